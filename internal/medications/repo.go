package medications

import (
	"context"
	"time"
)

// MedicationRepo defines storage for medications.
type MedicationRepo interface {
	Create(ctx context.Context, m Medication) error
	Update(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, familyID, id string) (Medication, error)
	// ListByMember returns the family's medications sorted by name. An empty
	// memberID lists every member.
	ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Medication, error)
	Delete(ctx context.Context, familyID, id string) error
}

// ScheduleRepo defines storage for medication schedules.
type ScheduleRepo interface {
	Create(ctx context.Context, s Schedule) error
	Update(ctx context.Context, s Schedule) error
	GetByID(ctx context.Context, familyID, id string) (Schedule, error)
	ListByMedication(ctx context.Context, familyID, medicationID string, activeOnly bool) ([]Schedule, error)
	ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Schedule, error)
	// ListActive returns active schedules across every family.
	ListActive(ctx context.Context) ([]Schedule, error)
	Delete(ctx context.Context, familyID, id string) error
	DeleteByMedication(ctx context.Context, familyID, medicationID string) (int, error)
}

// LogRepo defines storage for dose logs.
type LogRepo interface {
	Create(ctx context.Context, l Log) error
	// ListByMember returns logs with start <= timestamp <= end, newest first.
	ListByMember(ctx context.Context, familyID, memberID string, start, end time.Time) ([]Log, error)
}
