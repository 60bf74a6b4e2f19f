package medications

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/shared/util"
)

// ReminderPlanner maintains the reminder records derived from schedules.
type ReminderPlanner interface {
	Generate(ctx context.Context, schedule Schedule, medication Medication) (int, error)
	ClearForSchedule(ctx context.Context, familyID, scheduleID string) (int, error)
	ClearForMedication(ctx context.Context, familyID, medicationID string) (int, error)
}

// Service contains business logic for medications, schedules and dose logs.
type Service struct {
	Medications MedicationRepo
	Schedules   ScheduleRepo
	Logs        LogRepo
	Reminders   ReminderPlanner
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// MedicationInput carries medication fields. On update, nil pointers leave
// fields unchanged.
type MedicationInput struct {
	FamilyMemberID *string
	Name           *string
	Dosage         *string
	Instructions   *string
	PrescribedBy   *string
	StartDate      *time.Time
	EndDate        **time.Time
	IsActive       *bool
	RefillInfo     *string
	SideEffects    *[]string
	RelatedEvents  *[]string
}

// CreateMedication validates and stores a medication. The start date
// defaults to now and new medications are active unless stated otherwise.
func (s *Service) CreateMedication(ctx context.Context, familyID string, in MedicationInput) (Medication, error) {
	now := s.now()
	m := Medication{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		StartDate: now,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyMedicationInput(&m, in); err != nil {
		return Medication{}, err
	}
	if err := s.Medications.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// UpdateMedication applies a partial update. Deactivating a medication
// clears its reminders; reactivating it, or changing anything a reminder is
// built from, regenerates them. Moving the medication to another member
// moves its schedules too.
func (s *Service) UpdateMedication(ctx context.Context, familyID, id string, in MedicationInput) (Medication, error) {
	m, err := s.Medications.GetByID(ctx, familyID, id)
	if err != nil {
		return Medication{}, err
	}
	before := m
	if err := applyMedicationInput(&m, in); err != nil {
		return Medication{}, err
	}
	m.UpdatedAt = s.now()
	if err := s.Medications.Update(ctx, m); err != nil {
		return Medication{}, err
	}

	moved := before.FamilyMemberID != m.FamilyMemberID
	if moved {
		if err := s.reassignSchedules(ctx, m); err != nil {
			return Medication{}, fmt.Errorf("move schedules: %w", err)
		}
	}

	switch {
	case before.IsActive && !m.IsActive:
		if _, err := s.Reminders.ClearForMedication(ctx, familyID, id); err != nil {
			s.warn("medications.reminders.clear_failed", familyID, id, err)
		}
	case m.IsActive && (!before.IsActive || moved || reminderFieldsChanged(before, m)):
		s.regenerateForMedication(ctx, m)
	}
	return m, nil
}

// reminderFieldsChanged reports whether a reminder built from a would differ
// from one built from b, or fall on a different set of days.
func reminderFieldsChanged(a, b Medication) bool {
	if a.Name != b.Name || a.Dosage != b.Dosage || a.Instructions != b.Instructions {
		return true
	}
	if !a.StartDate.Equal(b.StartDate) {
		return true
	}
	if (a.EndDate == nil) != (b.EndDate == nil) {
		return true
	}
	return a.EndDate != nil && !a.EndDate.Equal(*b.EndDate)
}

func (s *Service) reassignSchedules(ctx context.Context, m Medication) error {
	schedules, err := s.Schedules.ListByMedication(ctx, m.FamilyID, m.ID, false)
	if err != nil {
		return err
	}
	now := s.now()
	for _, sched := range schedules {
		if sched.FamilyMemberID == m.FamilyMemberID {
			continue
		}
		sched.FamilyMemberID = m.FamilyMemberID
		sched.UpdatedAt = now
		if err := s.Schedules.Update(ctx, sched); err != nil {
			return err
		}
	}
	return nil
}

func applyMedicationInput(m *Medication, in MedicationInput) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&m.FamilyMemberID, in.FamilyMemberID)
	setString(&m.Name, in.Name)
	setString(&m.Dosage, in.Dosage)
	setString(&m.Instructions, in.Instructions)
	setString(&m.PrescribedBy, in.PrescribedBy)
	setString(&m.RefillInfo, in.RefillInfo)
	if in.StartDate != nil && !in.StartDate.IsZero() {
		m.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		m.EndDate = utcPtr(*in.EndDate)
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.SideEffects != nil {
		m.SideEffects = util.NormalizeTags(*in.SideEffects)
	}
	if in.RelatedEvents != nil {
		m.RelatedEvents = util.NormalizeTags(*in.RelatedEvents)
	}

	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if m.Dosage == "" {
		return fmt.Errorf("%w: dosage is required", ErrInvalidInput)
	}
	if m.FamilyMemberID == "" {
		return fmt.Errorf("%w: familyMemberId is required", ErrInvalidInput)
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
		return fmt.Errorf("%w: endDate precedes startDate", ErrInvalidInput)
	}
	return nil
}

// GetMedication returns a medication.
func (s *Service) GetMedication(ctx context.Context, familyID, id string) (Medication, error) {
	return s.Medications.GetByID(ctx, familyID, id)
}

// ListMedications returns a member's medications. An empty memberID lists the
// whole family.
func (s *Service) ListMedications(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Medication, error) {
	return s.Medications.ListByMember(ctx, familyID, strings.TrimSpace(memberID), activeOnly)
}

// DeleteMedication removes the medication's reminders, then its schedules,
// then the medication itself.
func (s *Service) DeleteMedication(ctx context.Context, familyID, id string) error {
	if _, err := s.Medications.GetByID(ctx, familyID, id); err != nil {
		return err
	}
	if _, err := s.Reminders.ClearForMedication(ctx, familyID, id); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}
	if _, err := s.Schedules.DeleteByMedication(ctx, familyID, id); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	return s.Medications.Delete(ctx, familyID, id)
}

// ConnectMedicalEvent links a medical event to the medication. Linking an
// already linked event is a no-op.
func (s *Service) ConnectMedicalEvent(ctx context.Context, familyID, id, eventID string) (Medication, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return Medication{}, fmt.Errorf("%w: eventId is required", ErrInvalidInput)
	}
	m, err := s.Medications.GetByID(ctx, familyID, id)
	if err != nil {
		return Medication{}, err
	}
	if slices.Contains(m.RelatedEvents, eventID) {
		return m, nil
	}
	m.RelatedEvents = append(m.RelatedEvents, eventID)
	m.UpdatedAt = s.now()
	if err := s.Medications.Update(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// DisconnectMedicalEvent unlinks a medical event. Unlinking an event that is
// not linked is a no-op.
func (s *Service) DisconnectMedicalEvent(ctx context.Context, familyID, id, eventID string) (Medication, error) {
	m, err := s.Medications.GetByID(ctx, familyID, id)
	if err != nil {
		return Medication{}, err
	}
	remaining := slices.DeleteFunc(slices.Clone(m.RelatedEvents), func(e string) bool { return e == eventID })
	if len(remaining) == len(m.RelatedEvents) {
		return m, nil
	}
	m.RelatedEvents = remaining
	m.UpdatedAt = s.now()
	if err := s.Medications.Update(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// ScheduleInput carries schedule fields. On update, nil pointers leave fields
// unchanged and MedicationID is ignored.
type ScheduleInput struct {
	MedicationID string
	Frequency    *string
	Times        *[]string
	DaysOfWeek   *[]int
	DayOfMonth   *int
	WithFood     *bool
	IsActive     *bool
}

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// CreateSchedule stores a schedule for an existing medication and generates
// its reminders. A generation failure is logged; the schedule is kept.
func (s *Service) CreateSchedule(ctx context.Context, familyID string, in ScheduleInput) (Schedule, error) {
	medicationID := strings.TrimSpace(in.MedicationID)
	if medicationID == "" {
		return Schedule{}, fmt.Errorf("%w: medicationId is required", ErrInvalidInput)
	}
	m, err := s.Medications.GetByID(ctx, familyID, medicationID)
	if err != nil {
		return Schedule{}, err
	}

	now := s.now()
	sched := Schedule{
		ID:             uuid.NewString(),
		FamilyID:       familyID,
		MedicationID:   m.ID,
		FamilyMemberID: m.FamilyMemberID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := applyScheduleInput(&sched, in); err != nil {
		return Schedule{}, err
	}
	if err := s.Schedules.Create(ctx, sched); err != nil {
		return Schedule{}, err
	}
	if _, err := s.Reminders.Generate(ctx, sched, m); err != nil {
		s.warn("medications.reminders.generate_failed", familyID, sched.ID, err)
	}
	return sched, nil
}

// UpdateSchedule applies a partial update. When the recurrence, the food
// note or the active flag changes, the schedule's reminders are rebuilt.
func (s *Service) UpdateSchedule(ctx context.Context, familyID, id string, in ScheduleInput) (Schedule, error) {
	sched, err := s.Schedules.GetByID(ctx, familyID, id)
	if err != nil {
		return Schedule{}, err
	}
	before := cloneSchedule(sched)
	if err := applyScheduleInput(&sched, in); err != nil {
		return Schedule{}, err
	}
	sched.UpdatedAt = s.now()
	if err := s.Schedules.Update(ctx, sched); err != nil {
		return Schedule{}, err
	}

	if recurrenceChanged(before, sched) || before.WithFood != sched.WithFood || before.IsActive != sched.IsActive {
		s.regenerate(ctx, sched)
	}
	return sched, nil
}

func recurrenceChanged(a, b Schedule) bool {
	if a.Frequency != b.Frequency || !slices.Equal(a.Times, b.Times) || !slices.Equal(a.DaysOfWeek, b.DaysOfWeek) {
		return true
	}
	if (a.DayOfMonth == nil) != (b.DayOfMonth == nil) {
		return true
	}
	return a.DayOfMonth != nil && *a.DayOfMonth != *b.DayOfMonth
}

func applyScheduleInput(sched *Schedule, in ScheduleInput) error {
	if in.Frequency != nil {
		sched.Frequency = strings.ToLower(strings.TrimSpace(*in.Frequency))
	}
	if in.Times != nil {
		times := make([]string, 0, len(*in.Times))
		for _, t := range *in.Times {
			t = strings.TrimSpace(t)
			if !timeOfDayPattern.MatchString(t) {
				return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, t)
			}
			if !slices.Contains(times, t) {
				times = append(times, t)
			}
		}
		slices.Sort(times)
		sched.Times = times
	}
	if in.DaysOfWeek != nil {
		days := slices.Clone(*in.DaysOfWeek)
		slices.Sort(days)
		sched.DaysOfWeek = slices.Compact(days)
	}
	if in.DayOfMonth != nil {
		d := *in.DayOfMonth
		sched.DayOfMonth = &d
	}
	if in.WithFood != nil {
		sched.WithFood = *in.WithFood
	}
	if in.IsActive != nil {
		sched.IsActive = *in.IsActive
	}

	if _, ok := frequencies[sched.Frequency]; !ok {
		return fmt.Errorf("%w: frequency must be daily, weekly, monthly or specific-days", ErrInvalidInput)
	}
	if len(sched.Times) == 0 {
		return fmt.Errorf("%w: at least one time is required", ErrInvalidInput)
	}
	switch sched.Frequency {
	case FrequencyWeekly, FrequencySpecificDays:
		if len(sched.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: daysOfWeek is required for %s schedules", ErrInvalidInput, sched.Frequency)
		}
		for _, d := range sched.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: daysOfWeek values must be 0-6", ErrInvalidInput)
			}
		}
		sched.DayOfMonth = nil
	case FrequencyMonthly:
		if sched.DayOfMonth == nil || *sched.DayOfMonth < 1 || *sched.DayOfMonth > 31 {
			return fmt.Errorf("%w: dayOfMonth must be 1-31 for monthly schedules", ErrInvalidInput)
		}
		sched.DaysOfWeek = nil
	default:
		sched.DaysOfWeek = nil
		sched.DayOfMonth = nil
	}
	return nil
}

// DeleteSchedule clears the schedule's reminders and removes it.
func (s *Service) DeleteSchedule(ctx context.Context, familyID, id string) error {
	if _, err := s.Schedules.GetByID(ctx, familyID, id); err != nil {
		return err
	}
	if _, err := s.Reminders.ClearForSchedule(ctx, familyID, id); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}
	return s.Schedules.Delete(ctx, familyID, id)
}

// GetSchedule returns a schedule.
func (s *Service) GetSchedule(ctx context.Context, familyID, id string) (Schedule, error) {
	return s.Schedules.GetByID(ctx, familyID, id)
}

// SchedulesForMedication returns the medication's active schedules.
func (s *Service) SchedulesForMedication(ctx context.Context, familyID, medicationID string) ([]Schedule, error) {
	if _, err := s.Medications.GetByID(ctx, familyID, medicationID); err != nil {
		return nil, err
	}
	return s.Schedules.ListByMedication(ctx, familyID, medicationID, true)
}

// SchedulesForMember returns the member's active schedules joined with their
// medications. Medications are fetched concurrently, once per id.
func (s *Service) SchedulesForMember(ctx context.Context, familyID, memberID string) ([]ScheduleWithMedication, error) {
	schedules, err := s.Schedules.ListByMember(ctx, familyID, memberID, true)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		ids = append(ids, sched.MedicationID)
	}
	meds, err := s.LookupMedications(ctx, familyID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ScheduleWithMedication, 0, len(schedules))
	for _, sched := range schedules {
		item := ScheduleWithMedication{Schedule: sched}
		if m, ok := meds[sched.MedicationID]; ok {
			item.Medication = &m
		}
		out = append(out, item)
	}
	return out, nil
}

// LookupMedications fetches the distinct medications named by ids
// concurrently. Missing medications are absent from the result.
func (s *Service) LookupMedications(ctx context.Context, familyID string, ids []string) (map[string]Medication, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	found := make([]*Medication, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range unique {
		if id == "" {
			continue
		}
		g.Go(func() error {
			m, err := s.Medications.GetByID(gctx, familyID, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Medication, len(unique))
	for _, m := range found {
		if m != nil {
			out[m.ID] = *m
		}
	}
	return out, nil
}

// ActiveSchedules returns every active schedule across families.
func (s *Service) ActiveSchedules(ctx context.Context) ([]Schedule, error) {
	return s.Schedules.ListActive(ctx)
}

// RegenerateSchedule rebuilds one schedule's reminders.
func (s *Service) RegenerateSchedule(ctx context.Context, familyID, id string) (int, error) {
	sched, err := s.Schedules.GetByID(ctx, familyID, id)
	if err != nil {
		return 0, err
	}
	if _, err := s.Reminders.ClearForSchedule(ctx, familyID, id); err != nil {
		return 0, fmt.Errorf("clear reminders: %w", err)
	}
	m, err := s.Medications.GetByID(ctx, familyID, sched.MedicationID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.Reminders.Generate(ctx, sched, m)
}

func (s *Service) regenerate(ctx context.Context, sched Schedule) {
	if _, err := s.RegenerateSchedule(ctx, sched.FamilyID, sched.ID); err != nil {
		s.warn("medications.reminders.regenerate_failed", sched.FamilyID, sched.ID, err)
	}
}

func (s *Service) regenerateForMedication(ctx context.Context, m Medication) {
	schedules, err := s.Schedules.ListByMedication(ctx, m.FamilyID, m.ID, true)
	if err != nil {
		s.warn("medications.reminders.regenerate_failed", m.FamilyID, m.ID, err)
		return
	}
	for _, sched := range schedules {
		s.regenerate(ctx, sched)
	}
}

// LogInput carries a dose log. Timestamp defaults to now.
type LogInput struct {
	ScheduleID string
	Timestamp  *time.Time
	Reason     string
	Notes      string
}

// LogTaken records a dose as taken.
func (s *Service) LogTaken(ctx context.Context, familyID, medicationID string, in LogInput) (Log, error) {
	return s.writeLog(ctx, familyID, medicationID, LogStatusTaken, in)
}

// LogSkipped records a dose as skipped.
func (s *Service) LogSkipped(ctx context.Context, familyID, medicationID string, in LogInput) (Log, error) {
	return s.writeLog(ctx, familyID, medicationID, LogStatusSkipped, in)
}

func (s *Service) writeLog(ctx context.Context, familyID, medicationID, status string, in LogInput) (Log, error) {
	m, err := s.Medications.GetByID(ctx, familyID, medicationID)
	if err != nil {
		return Log{}, err
	}
	scheduleID := strings.TrimSpace(in.ScheduleID)
	if scheduleID != "" {
		sched, err := s.Schedules.GetByID(ctx, familyID, scheduleID)
		if err != nil {
			return Log{}, err
		}
		if sched.MedicationID != m.ID {
			return Log{}, fmt.Errorf("%w: schedule belongs to another medication", ErrInvalidInput)
		}
	}

	now := s.now()
	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = in.Timestamp.UTC()
	}
	l := Log{
		ID:             uuid.NewString(),
		FamilyID:       familyID,
		MedicationID:   m.ID,
		ScheduleID:     scheduleID,
		FamilyMemberID: m.FamilyMemberID,
		Timestamp:      ts,
		Status:         status,
		Reason:         strings.TrimSpace(in.Reason),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
	}
	if err := s.Logs.Create(ctx, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

// ListLogs returns the member's logs in [start, end], newest first.
func (s *Service) ListLogs(ctx context.Context, familyID, memberID string, start, end time.Time) ([]Log, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end precedes start", ErrInvalidInput)
	}
	return s.Logs.ListByMember(ctx, familyID, memberID, start.UTC(), end.UTC())
}

// AdherenceStats counts taken and skipped doses in [start, end].
func (s *Service) AdherenceStats(ctx context.Context, familyID, memberID string, start, end time.Time) (AdherenceStats, error) {
	logs, err := s.ListLogs(ctx, familyID, memberID, start, end)
	if err != nil {
		return AdherenceStats{}, err
	}
	stats := AdherenceStats{Total: len(logs)}
	for _, l := range logs {
		switch l.Status {
		case LogStatusTaken:
			stats.Taken++
		case LogStatusSkipped:
			stats.Skipped++
		}
	}
	if stats.Total > 0 {
		stats.AdherenceRate = float64(stats.Taken) / float64(stats.Total) * 100
	}
	return stats, nil
}

func (s *Service) warn(event, familyID, id string, err error) {
	telemetry.Warn(event, map[string]any{
		"family_id": familyID,
		"id":        id,
		"error":     err,
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
