package reminders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	reminders map[string]Reminder
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reminders: make(map[string]Reminder)}
}

// CreateBatch stores reminders.
func (r *MemoryRepo) CreateBatch(ctx context.Context, batch []Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rem := range batch {
		r.reminders[rem.ID] = rem
	}
	return nil
}

// GetByID returns a reminder within a family.
func (r *MemoryRepo) GetByID(ctx context.Context, familyID, id string) (Reminder, error) {
	rem, err := r.Lookup(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if rem.FamilyID != familyID {
		return Reminder{}, ErrNotFound
	}
	return rem, nil
}

// Lookup returns a reminder by id.
func (r *MemoryRepo) Lookup(ctx context.Context, id string) (Reminder, error) {
	if err := ctx.Err(); err != nil {
		return Reminder{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rem, ok := r.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return rem, nil
}

// Update replaces a reminder.
func (r *MemoryRepo) Update(ctx context.Context, rem Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reminders[rem.ID]
	if !ok || existing.FamilyID != rem.FamilyID {
		return ErrNotFound
	}
	r.reminders[rem.ID] = rem
	return nil
}

// DeleteForSchedule removes up to limit medication reminders of a schedule.
func (r *MemoryRepo) DeleteForSchedule(ctx context.Context, familyID, scheduleID string, limit int) (int, error) {
	return r.deleteWhere(ctx, limit, func(rem Reminder) bool {
		return rem.FamilyID == familyID && rem.ScheduleID == scheduleID && rem.Type == TypeMedication
	})
}

// DeleteForMedication removes up to limit medication reminders of a medication.
func (r *MemoryRepo) DeleteForMedication(ctx context.Context, familyID, medicationID string, limit int) (int, error) {
	return r.deleteWhere(ctx, limit, func(rem Reminder) bool {
		return rem.FamilyID == familyID && rem.MedicationID == medicationID && rem.Type == TypeMedication
	})
}

func (r *MemoryRepo) deleteWhere(ctx context.Context, limit int, match func(Reminder) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rem := range r.reminders {
		if limit > 0 && n >= limit {
			break
		}
		if match(rem) {
			delete(r.reminders, id)
			n++
		}
	}
	return n, nil
}

// Upcoming returns active medication reminders in [from, to], soonest first.
func (r *MemoryRepo) Upcoming(ctx context.Context, familyID, memberID string, from, to time.Time) ([]Reminder, error) {
	return r.selectWhere(ctx, 0, func(rem Reminder) bool {
		return rem.FamilyID == familyID &&
			rem.FamilyMemberID == memberID &&
			rem.Type == TypeMedication &&
			rem.IsActive &&
			!rem.ScheduledFor.Before(from) &&
			!rem.ScheduledFor.After(to)
	})
}

// Due returns active scheduled reminders with scheduledFor <= now.
func (r *MemoryRepo) Due(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	return r.selectWhere(ctx, limit, func(rem Reminder) bool {
		return rem.IsActive && rem.Status == StatusScheduled && !rem.ScheduledFor.After(now)
	})
}

func (r *MemoryRepo) selectWhere(ctx context.Context, limit int, match func(Reminder) bool) ([]Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Reminder{}
	for _, rem := range r.reminders {
		if match(rem) {
			out = append(out, rem)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestForSchedule returns the last scheduledFor of a schedule's reminders.
func (r *MemoryRepo) LatestForSchedule(ctx context.Context, familyID, scheduleID string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *time.Time
	for _, rem := range r.reminders {
		if rem.FamilyID != familyID || rem.ScheduleID != scheduleID || rem.Type != TypeMedication {
			continue
		}
		if latest == nil || rem.ScheduledFor.After(*latest) {
			t := rem.ScheduledFor
			latest = &t
		}
	}
	return latest, nil
}

// MarkSent moves an active scheduled reminder to sent.
func (r *MemoryRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[id]
	if !ok || !rem.IsActive || rem.Status != StatusScheduled {
		return false, nil
	}
	rem.Status = StatusSent
	rem.SentAt = &at
	r.reminders[id] = rem
	return true, nil
}

// MarkDelivered stamps DeliveredAt once.
func (r *MemoryRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		return false, ErrNotFound
	}
	if rem.DeliveredAt != nil {
		return false, nil
	}
	rem.DeliveredAt = &at
	r.reminders[id] = rem
	return true, nil
}

// Unclaim returns a sent reminder to scheduled.
func (r *MemoryRepo) Unclaim(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		return ErrNotFound
	}
	if rem.Status == StatusSent && rem.DeliveredAt == nil {
		rem.Status = StatusScheduled
		rem.SentAt = nil
		r.reminders[id] = rem
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
