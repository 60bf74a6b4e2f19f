package reminders

import (
	"context"
	"time"
)

// Repo defines storage for reminders.
type Repo interface {
	CreateBatch(ctx context.Context, batch []Reminder) error
	GetByID(ctx context.Context, familyID, id string) (Reminder, error)
	// Lookup fetches a reminder by id alone, for queue consumers.
	Lookup(ctx context.Context, id string) (Reminder, error)
	Update(ctx context.Context, r Reminder) error
	// DeleteForSchedule removes up to limit medication reminders of a schedule.
	DeleteForSchedule(ctx context.Context, familyID, scheduleID string, limit int) (int, error)
	// DeleteForMedication removes up to limit medication reminders of a medication.
	DeleteForMedication(ctx context.Context, familyID, medicationID string, limit int) (int, error)
	// Upcoming returns active medication reminders in [from, to], soonest first.
	Upcoming(ctx context.Context, familyID, memberID string, from, to time.Time) ([]Reminder, error)
	// Due returns active scheduled reminders with scheduledFor <= now, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]Reminder, error)
	// LatestForSchedule returns the last scheduledFor of a schedule's
	// medication reminders, or nil when it has none.
	LatestForSchedule(ctx context.Context, familyID, scheduleID string) (*time.Time, error)
	// MarkSent moves an active scheduled reminder to sent. It reports false
	// when the reminder was not in that state.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkDelivered records the first delivery of a reminder. It reports
	// false when the reminder was already delivered.
	MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error)
	// Unclaim returns a sent, undelivered reminder to scheduled.
	Unclaim(ctx context.Context, id string) error
}
