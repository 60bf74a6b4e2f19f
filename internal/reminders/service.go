package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"allie-backend/internal/medications"
	"allie-backend/internal/shared/metrics"
	"allie-backend/internal/shared/telemetry"
)

const (
	DefaultWindowDays   = 30
	DefaultBatchSize    = 400
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 90
)

// Catalog resolves the medications and schedules reminders derive from.
type Catalog interface {
	GetMedication(ctx context.Context, familyID, id string) (medications.Medication, error)
	LookupMedications(ctx context.Context, familyID string, ids []string) (map[string]medications.Medication, error)
	ActiveSchedules(ctx context.Context) ([]medications.Schedule, error)
}

// Service generates, queries and transitions reminders.
type Service struct {
	Repo       Repo
	Catalog    Catalog
	WindowDays int
	BatchSize  int
	Location   *time.Location
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) windowDays() int {
	if s.WindowDays > 0 {
		return s.WindowDays
	}
	return DefaultWindowDays
}

func (s *Service) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// Generate writes the schedule's reminders for the rolling window.
func (s *Service) Generate(ctx context.Context, schedule medications.Schedule, medication medications.Medication) (int, error) {
	return s.generateAfter(ctx, schedule, medication, s.now(), nil)
}

func (s *Service) generateAfter(ctx context.Context, schedule medications.Schedule, medication medications.Medication, now time.Time, after *time.Time) (int, error) {
	started := time.Now()
	batch := Expand(schedule, medication, now, s.windowDays(), s.Location)
	if after != nil {
		kept := batch[:0]
		for _, rem := range batch {
			if rem.ScheduledFor.After(*after) {
				kept = append(kept, rem)
			}
		}
		batch = kept
	}

	written := 0
	size := s.batchSize()
	for len(batch) > 0 {
		n := min(size, len(batch))
		if err := s.Repo.CreateBatch(ctx, batch[:n]); err != nil {
			metrics.AddRemindersGenerated(written)
			return written, fmt.Errorf("write reminders: %w", err)
		}
		written += n
		batch = batch[n:]
	}

	metrics.AddRemindersGenerated(written)
	metrics.ObserveGenerationDurationMs(float64(time.Since(started).Microseconds()) / 1000.0)
	if written > 0 {
		telemetry.Info("reminders.generated", map[string]any{
			"family_id":     schedule.FamilyID,
			"schedule_id":   schedule.ID,
			"medication_id": medication.ID,
			"count":         written,
		})
	}
	return written, nil
}

// ClearForSchedule deletes the schedule's medication reminders in batches.
func (s *Service) ClearForSchedule(ctx context.Context, familyID, scheduleID string) (int, error) {
	return s.clear(ctx, func(limit int) (int, error) {
		return s.Repo.DeleteForSchedule(ctx, familyID, scheduleID, limit)
	})
}

// ClearForMedication deletes the medication's reminders in batches.
func (s *Service) ClearForMedication(ctx context.Context, familyID, medicationID string) (int, error) {
	return s.clear(ctx, func(limit int) (int, error) {
		return s.Repo.DeleteForMedication(ctx, familyID, medicationID, limit)
	})
}

func (s *Service) clear(ctx context.Context, deleteBatch func(limit int) (int, error)) (int, error) {
	size := s.batchSize()
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := deleteBatch(size)
		total += n
		if err != nil {
			metrics.AddRemindersCleared(total)
			return total, err
		}
		if n < size {
			break
		}
	}
	metrics.AddRemindersCleared(total)
	return total, nil
}

// Upcoming returns the member's active medication reminders for the next
// days, each joined with its medication. days <= 0 means seven.
func (s *Service) Upcoming(ctx context.Context, familyID, memberID string, days int) ([]WithMedication, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		return nil, fmt.Errorf("%w: days must be at most %d", ErrInvalidInput, MaxUpcomingDays)
	}
	now := s.now()
	list, err := s.Repo.Upcoming(ctx, familyID, memberID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list))
	for _, rem := range list {
		ids = append(ids, rem.MedicationID)
	}
	meds, err := s.Catalog.LookupMedications(ctx, familyID, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup medications: %w", err)
	}

	out := make([]WithMedication, 0, len(list))
	for _, rem := range list {
		item := WithMedication{Reminder: rem}
		if m, ok := meds[rem.MedicationID]; ok {
			item.Medication = &m
		}
		out = append(out, item)
	}
	return out, nil
}

// Acknowledge marks a reminder as handled by the family.
func (s *Service) Acknowledge(ctx context.Context, familyID, id string) (Reminder, error) {
	rem, err := s.Repo.GetByID(ctx, familyID, id)
	if err != nil {
		return Reminder{}, err
	}
	if rem.Status == StatusDismissed {
		return Reminder{}, fmt.Errorf("%w: reminder was dismissed", ErrInvalidInput)
	}
	if rem.IsAcknowledged {
		return rem, nil
	}
	now := s.now()
	rem.IsAcknowledged = true
	rem.AcknowledgedAt = &now
	rem.Status = StatusCompleted
	if err := s.Repo.Update(ctx, rem); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}

// Dismiss deactivates a reminder so it is neither listed nor delivered.
func (s *Service) Dismiss(ctx context.Context, familyID, id string) (Reminder, error) {
	rem, err := s.Repo.GetByID(ctx, familyID, id)
	if err != nil {
		return Reminder{}, err
	}
	if rem.Status == StatusDismissed {
		return rem, nil
	}
	rem.IsActive = false
	rem.Status = StatusDismissed
	if err := s.Repo.Update(ctx, rem); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}

// Due returns reminders ready for delivery.
func (s *Service) Due(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = s.batchSize()
	}
	return s.Repo.Due(ctx, now.UTC(), limit)
}

// Deliver announces a reminder and marks it sent and delivered. Reminders
// that were dismissed or acknowledged in the meantime are skipped, and a
// reminder that was already delivered is not announced again.
func (s *Service) Deliver(ctx context.Context, id string) error {
	rem, err := s.Repo.Lookup(ctx, id)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"reminder_id":      rem.ID,
		"family_id":        rem.FamilyID,
		"family_member_id": rem.FamilyMemberID,
		"medication_id":    rem.MedicationID,
		"status":           rem.Status,
	}
	if !rem.IsActive || rem.Status == StatusDismissed || rem.Status == StatusCompleted {
		telemetry.Info("reminder.skipped", fields)
		return nil
	}
	now := s.now()
	if _, err := s.Repo.MarkSent(ctx, rem.ID, now); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	first, err := s.Repo.MarkDelivered(ctx, rem.ID, now)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if !first {
		telemetry.Info("reminder.delivery.duplicate", fields)
		return nil
	}
	fields["title"] = rem.Title
	fields["scheduled_for"] = rem.ScheduledFor
	telemetry.Info("reminder.delivered", fields)
	metrics.IncRemindersDelivered()
	return nil
}

// Refresh tops up every active schedule so reminders keep covering the
// rolling window. Only instants after a schedule's latest reminder are added.
func (s *Service) Refresh(ctx context.Context, now time.Time) (int, error) {
	schedules, err := s.Catalog.ActiveSchedules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list schedules: %w", err)
	}
	total := 0
	for _, sched := range schedules {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.refreshSchedule(ctx, sched, now.UTC())
		total += n
		if err != nil {
			telemetry.Warn("reminders.refresh.schedule_failed", map[string]any{
				"family_id":   sched.FamilyID,
				"schedule_id": sched.ID,
				"error":       err,
			})
		}
	}
	telemetry.Info("reminders.refreshed", map[string]any{
		"schedules": len(schedules),
		"count":     total,
	})
	return total, nil
}

func (s *Service) refreshSchedule(ctx context.Context, sched medications.Schedule, now time.Time) (int, error) {
	med, err := s.Catalog.GetMedication(ctx, sched.FamilyID, sched.MedicationID)
	if errors.Is(err, medications.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	latest, err := s.Repo.LatestForSchedule(ctx, sched.FamilyID, sched.ID)
	if err != nil {
		return 0, err
	}
	return s.generateAfter(ctx, sched, med, now, latest)
}

var _ medications.ReminderPlanner = (*Service)(nil)
