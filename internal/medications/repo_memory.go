package medications

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryMedicationRepo is an in-memory implementation of MedicationRepo.
type MemoryMedicationRepo struct {
	mu   sync.RWMutex
	meds map[string]Medication
}

// NewMemoryMedicationRepo constructs a MemoryMedicationRepo.
func NewMemoryMedicationRepo() *MemoryMedicationRepo {
	return &MemoryMedicationRepo{meds: make(map[string]Medication)}
}

// Create stores a medication.
func (r *MemoryMedicationRepo) Create(ctx context.Context, m Medication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meds[m.ID] = cloneMedication(m)
	return nil
}

// Update replaces a medication.
func (r *MemoryMedicationRepo) Update(ctx context.Context, m Medication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.meds[m.ID]
	if !ok || existing.FamilyID != m.FamilyID {
		return ErrNotFound
	}
	r.meds[m.ID] = cloneMedication(m)
	return nil
}

// GetByID returns a medication within a family.
func (r *MemoryMedicationRepo) GetByID(ctx context.Context, familyID, id string) (Medication, error) {
	if err := ctx.Err(); err != nil {
		return Medication{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meds[id]
	if !ok || m.FamilyID != familyID {
		return Medication{}, ErrNotFound
	}
	return cloneMedication(m), nil
}

// ListByMember returns medications sorted by name.
func (r *MemoryMedicationRepo) ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Medication{}
	for _, m := range r.meds {
		if m.FamilyID != familyID {
			continue
		}
		if memberID != "" && m.FamilyMemberID != memberID {
			continue
		}
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, cloneMedication(m))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return a < b
	})
	return out, nil
}

// Delete removes a medication.
func (r *MemoryMedicationRepo) Delete(ctx context.Context, familyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meds[id]
	if !ok || m.FamilyID != familyID {
		return ErrNotFound
	}
	delete(r.meds, id)
	return nil
}

func cloneMedication(m Medication) Medication {
	m.SideEffects = append([]string(nil), m.SideEffects...)
	m.RelatedEvents = append([]string(nil), m.RelatedEvents...)
	return m
}

// MemoryScheduleRepo is an in-memory implementation of ScheduleRepo.
type MemoryScheduleRepo struct {
	mu        sync.RWMutex
	schedules map[string]Schedule
}

// NewMemoryScheduleRepo constructs a MemoryScheduleRepo.
func NewMemoryScheduleRepo() *MemoryScheduleRepo {
	return &MemoryScheduleRepo{schedules: make(map[string]Schedule)}
}

// Create stores a schedule.
func (r *MemoryScheduleRepo) Create(ctx context.Context, s Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = cloneSchedule(s)
	return nil
}

// Update replaces a schedule.
func (r *MemoryScheduleRepo) Update(ctx context.Context, s Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.schedules[s.ID]
	if !ok || existing.FamilyID != s.FamilyID {
		return ErrNotFound
	}
	r.schedules[s.ID] = cloneSchedule(s)
	return nil
}

// GetByID returns a schedule within a family.
func (r *MemoryScheduleRepo) GetByID(ctx context.Context, familyID, id string) (Schedule, error) {
	if err := ctx.Err(); err != nil {
		return Schedule{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[id]
	if !ok || s.FamilyID != familyID {
		return Schedule{}, ErrNotFound
	}
	return cloneSchedule(s), nil
}

// ListByMedication returns a medication's schedules, oldest first.
func (r *MemoryScheduleRepo) ListByMedication(ctx context.Context, familyID, medicationID string, activeOnly bool) ([]Schedule, error) {
	return r.filter(ctx, func(s Schedule) bool {
		return s.FamilyID == familyID && s.MedicationID == medicationID && (!activeOnly || s.IsActive)
	})
}

// ListByMember returns a member's schedules, oldest first.
func (r *MemoryScheduleRepo) ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Schedule, error) {
	return r.filter(ctx, func(s Schedule) bool {
		return s.FamilyID == familyID && s.FamilyMemberID == memberID && (!activeOnly || s.IsActive)
	})
}

// ListActive returns every active schedule.
func (r *MemoryScheduleRepo) ListActive(ctx context.Context) ([]Schedule, error) {
	return r.filter(ctx, func(s Schedule) bool { return s.IsActive })
}

func (r *MemoryScheduleRepo) filter(ctx context.Context, keep func(Schedule) bool) ([]Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Schedule{}
	for _, s := range r.schedules {
		if keep(s) {
			out = append(out, cloneSchedule(s))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a schedule.
func (r *MemoryScheduleRepo) Delete(ctx context.Context, familyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.FamilyID != familyID {
		return ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

// DeleteByMedication removes every schedule of a medication.
func (r *MemoryScheduleRepo) DeleteByMedication(ctx context.Context, familyID, medicationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.schedules {
		if s.FamilyID == familyID && s.MedicationID == medicationID {
			delete(r.schedules, id)
			n++
		}
	}
	return n, nil
}

func cloneSchedule(s Schedule) Schedule {
	s.Times = append([]string(nil), s.Times...)
	s.DaysOfWeek = append([]int(nil), s.DaysOfWeek...)
	if s.DayOfMonth != nil {
		d := *s.DayOfMonth
		s.DayOfMonth = &d
	}
	return s
}

// MemoryLogRepo is an in-memory implementation of LogRepo.
type MemoryLogRepo struct {
	mu   sync.RWMutex
	logs []Log
}

// NewMemoryLogRepo constructs a MemoryLogRepo.
func NewMemoryLogRepo() *MemoryLogRepo {
	return &MemoryLogRepo{}
}

// Create appends a log entry.
func (r *MemoryLogRepo) Create(ctx context.Context, l Log) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

// ListByMember returns logs in [start, end], newest first.
func (r *MemoryLogRepo) ListByMember(ctx context.Context, familyID, memberID string, start, end time.Time) ([]Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Log{}
	for _, l := range r.logs {
		if l.FamilyID != familyID || l.FamilyMemberID != memberID {
			continue
		}
		if l.Timestamp.Before(start) || l.Timestamp.After(end) {
			continue
		}
		out = append(out, l)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

var (
	_ MedicationRepo = (*MemoryMedicationRepo)(nil)
	_ ScheduleRepo   = (*MemoryScheduleRepo)(nil)
	_ LogRepo        = (*MemoryLogRepo)(nil)
)
