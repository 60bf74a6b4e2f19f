package medications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type plannerCall struct {
	op string
	id string
}

type fakePlanner struct {
	mu    sync.Mutex
	calls []plannerCall
}

func (p *fakePlanner) Generate(_ context.Context, s Schedule, _ Medication) (int, error) {
	p.record("generate", s.ID)
	return len(s.Times), nil
}

func (p *fakePlanner) ClearForSchedule(_ context.Context, _, scheduleID string) (int, error) {
	p.record("clear-schedule", scheduleID)
	return 0, nil
}

func (p *fakePlanner) ClearForMedication(_ context.Context, _, medicationID string) (int, error) {
	p.record("clear-medication", medicationID)
	return 0, nil
}

func (p *fakePlanner) record(op, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, plannerCall{op: op, id: id})
}

func (p *fakePlanner) reset() []plannerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.calls
	p.calls = nil
	return out
}

func newTestService(t *testing.T) (*Service, *fakePlanner) {
	t.Helper()
	planner := &fakePlanner{}
	return &Service{
		Medications: NewMemoryMedicationRepo(),
		Schedules:   NewMemoryScheduleRepo(),
		Logs:        NewMemoryLogRepo(),
		Reminders:   planner,
		Now:         func() time.Time { return fixedNow },
	}, planner
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func mustMedication(t *testing.T, svc *Service, member, name string) Medication {
	t.Helper()
	m, err := svc.CreateMedication(context.Background(), "fam-1", MedicationInput{
		FamilyMemberID: strPtr(member),
		Name:           strPtr(name),
		Dosage:         strPtr("10mg"),
	})
	require.NoError(t, err)
	return m
}

func TestCreateMedicationDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	m := mustMedication(t, svc, "m-1", " Lisinopril ")
	assert.Equal(t, "Lisinopril", m.Name)
	assert.True(t, m.IsActive)
	assert.Equal(t, fixedNow, m.StartDate)

	_, err := svc.CreateMedication(ctx, "fam-1", MedicationInput{Name: strPtr("X"), Dosage: strPtr("1")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateMedication(ctx, "fam-1", MedicationInput{FamilyMemberID: strPtr("m"), Name: strPtr("X")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	past := fixedNow.AddDate(0, 0, -1)
	endPtr := &past
	_, err = svc.CreateMedication(ctx, "fam-1", MedicationInput{
		FamilyMemberID: strPtr("m"),
		Name:           strPtr("X"),
		Dosage:         strPtr("1"),
		EndDate:        &endPtr,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListMedicationsActiveOnly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	mustMedication(t, svc, "m-1", "b-med")
	inactive := mustMedication(t, svc, "m-1", "a-med")
	mustMedication(t, svc, "m-2", "other")
	_, err := svc.UpdateMedication(ctx, "fam-1", inactive.ID, MedicationInput{IsActive: boolPtr(false)})
	require.NoError(t, err)

	active, err := svc.ListMedications(ctx, "fam-1", "m-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b-med", active[0].Name)

	all, err := svc.ListMedications(ctx, "fam-1", "m-1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a-med", all[0].Name)

	family, err := svc.ListMedications(ctx, "fam-1", "", false)
	require.NoError(t, err)
	assert.Len(t, family, 3)
}

func TestConnectAndDisconnectMedicalEventAreIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Amoxicillin")

	for range 2 {
		m, _ = svc.ConnectMedicalEvent(ctx, "fam-1", m.ID, "evt-1")
	}
	assert.Equal(t, []string{"evt-1"}, m.RelatedEvents)

	m, err := svc.DisconnectMedicalEvent(ctx, "fam-1", m.ID, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1"}, m.RelatedEvents)

	m, err = svc.DisconnectMedicalEvent(ctx, "fam-1", m.ID, "evt-1")
	require.NoError(t, err)
	assert.Empty(t, m.RelatedEvents)

	_, err = svc.ConnectMedicalEvent(ctx, "fam-1", "missing", "evt-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateScheduleValidatesAndGenerates(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	planner.reset()

	cases := []ScheduleInput{
		{MedicationID: m.ID, Frequency: strPtr("hourly"), Times: &[]string{"08:00"}},
		{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{}},
		{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"8am"}},
		{MedicationID: m.ID, Frequency: strPtr("weekly"), Times: &[]string{"08:00"}},
		{MedicationID: m.ID, Frequency: strPtr("weekly"), Times: &[]string{"08:00"}, DaysOfWeek: &[]int{7}},
		{MedicationID: m.ID, Frequency: strPtr("monthly"), Times: &[]string{"08:00"}, DayOfMonth: intPtr(32)},
	}
	for _, in := range cases {
		_, err := svc.CreateSchedule(ctx, "fam-1", in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: "missing", Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, planner.reset())

	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{
		MedicationID: m.ID,
		Frequency:    strPtr("Daily"),
		Times:        &[]string{"20:00", "08:00", "08:00"},
		DaysOfWeek:   &[]int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, FrequencyDaily, s.Frequency)
	assert.Equal(t, []string{"08:00", "20:00"}, s.Times)
	assert.Empty(t, s.DaysOfWeek)
	assert.Equal(t, "m-1", s.FamilyMemberID)
	assert.True(t, s.IsActive)
	assert.Equal(t, []plannerCall{{op: "generate", id: s.ID}}, planner.reset())
}

func TestUpdateScheduleRegeneratesOnlyWhenRecurrenceChanges(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)
	planner.reset()

	_, err = svc.UpdateSchedule(ctx, "fam-1", s.ID, ScheduleInput{Times: &[]string{"08:00"}})
	require.NoError(t, err)
	assert.Empty(t, planner.reset())

	updated, err := svc.UpdateSchedule(ctx, "fam-1", s.ID, ScheduleInput{
		Frequency:  strPtr("weekly"),
		DaysOfWeek: &[]int{5, 1, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5}, updated.DaysOfWeek)
	assert.Equal(t, []plannerCall{
		{op: "clear-schedule", id: s.ID},
		{op: "generate", id: s.ID},
	}, planner.reset())

	_, err = svc.UpdateSchedule(ctx, "fam-1", s.ID, ScheduleInput{Frequency: strPtr("monthly")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteMedicationCascades(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	for _, at := range []string{"08:00", "20:00"} {
		_, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{at}})
		require.NoError(t, err)
	}
	planner.reset()

	require.NoError(t, svc.DeleteMedication(ctx, "fam-1", m.ID))
	assert.Equal(t, []plannerCall{{op: "clear-medication", id: m.ID}}, planner.reset())

	schedules, err := svc.Schedules.ListByMedication(ctx, "fam-1", m.ID, false)
	require.NoError(t, err)
	assert.Empty(t, schedules)

	_, err = svc.GetMedication(ctx, "fam-1", m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMedication(ctx, "fam-1", m.ID), ErrNotFound)
}

func TestDeactivatingMedicationClearsReminders(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)
	planner.reset()

	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, []plannerCall{{op: "clear-medication", id: m.ID}}, planner.reset())

	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, []plannerCall{
		{op: "clear-schedule", id: s.ID},
		{op: "generate", id: s.ID},
	}, planner.reset())
}

func TestUpdateMedicationRegeneratesOnDateChanges(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)
	planner.reset()

	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{PrescribedBy: strPtr("Dr. Osei")})
	require.NoError(t, err)
	assert.Empty(t, planner.reset())

	end := fixedNow.AddDate(0, 0, 5)
	endPtr := &end
	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{EndDate: &endPtr})
	require.NoError(t, err)
	assert.Equal(t, []plannerCall{
		{op: "clear-schedule", id: s.ID},
		{op: "generate", id: s.ID},
	}, planner.reset())

	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{EndDate: &endPtr})
	require.NoError(t, err)
	assert.Empty(t, planner.reset(), "same end date")

	start := fixedNow.AddDate(0, 0, 1)
	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{StartDate: &start})
	require.NoError(t, err)
	assert.Len(t, planner.reset(), 2)
}

func TestUpdateMedicationMovesSchedulesToNewMember(t *testing.T) {
	t.Parallel()

	svc, planner := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)
	planner.reset()

	_, err = svc.UpdateMedication(ctx, "fam-1", m.ID, MedicationInput{FamilyMemberID: strPtr("m-2")})
	require.NoError(t, err)

	moved, err := svc.GetSchedule(ctx, "fam-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "m-2", moved.FamilyMemberID)
	assert.Equal(t, []plannerCall{
		{op: "clear-schedule", id: s.ID},
		{op: "generate", id: s.ID},
	}, planner.reset())
}

func TestSchedulesForMemberJoinsMedication(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")
	_, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: m.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)

	orphan := Schedule{
		ID:             "orphan",
		FamilyID:       "fam-1",
		MedicationID:   "gone",
		FamilyMemberID: "m-1",
		Frequency:      FrequencyDaily,
		Times:          []string{"09:00"},
		IsActive:       true,
		CreatedAt:      fixedNow.Add(time.Minute),
	}
	require.NoError(t, svc.Schedules.Create(ctx, orphan))

	items, err := svc.SchedulesForMember(ctx, "fam-1", "m-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Medication)
	assert.Equal(t, "Metformin", items[0].Medication.Name)
	assert.Equal(t, "orphan", items[1].ID)
	assert.Nil(t, items[1].Medication)
}

func TestLogsAndAdherence(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	m := mustMedication(t, svc, "m-1", "Metformin")

	stats, err := svc.AdherenceStats(ctx, "fam-1", "m-1", fixedNow.AddDate(0, 0, -7), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, AdherenceStats{}, stats)

	for i := range 3 {
		ts := fixedNow.Add(-time.Duration(i+1) * time.Hour)
		_, err := svc.LogTaken(ctx, "fam-1", m.ID, LogInput{Timestamp: &ts})
		require.NoError(t, err)
	}
	skipped, err := svc.LogSkipped(ctx, "fam-1", m.ID, LogInput{Reason: "nausea"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", skipped.FamilyMemberID)
	assert.Equal(t, fixedNow, skipped.Timestamp)

	old := fixedNow.AddDate(0, -2, 0)
	_, err = svc.LogTaken(ctx, "fam-1", m.ID, LogInput{Timestamp: &old})
	require.NoError(t, err)

	logs, err := svc.ListLogs(ctx, "fam-1", "m-1", fixedNow.AddDate(0, 0, -7), fixedNow)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, LogStatusSkipped, logs[0].Status)

	stats, err = svc.AdherenceStats(ctx, "fam-1", "m-1", fixedNow.AddDate(0, 0, -7), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, AdherenceStats{Total: 4, Taken: 3, Skipped: 1, AdherenceRate: 75}, stats)

	_, err = svc.ListLogs(ctx, "fam-1", "m-1", fixedNow, fixedNow.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.LogTaken(ctx, "fam-1", "missing", LogInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogRejectsScheduleOfAnotherMedication(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustMedication(t, svc, "m-1", "A")
	b := mustMedication(t, svc, "m-1", "B")
	s, err := svc.CreateSchedule(ctx, "fam-1", ScheduleInput{MedicationID: b.ID, Frequency: strPtr("daily"), Times: &[]string{"08:00"}})
	require.NoError(t, err)

	_, err = svc.LogTaken(ctx, "fam-1", a.ID, LogInput{ScheduleID: s.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
