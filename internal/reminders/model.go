package reminders

import (
	"time"

	"allie-backend/internal/medications"
)

const TypeMedication = "medication"

const (
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
	StatusDismissed = "dismissed"
	StatusCompleted = "completed"
)

// Reminder is a notification due at ScheduledFor.
type Reminder struct {
	ID             string
	FamilyID       string
	Type           string
	Title          string
	Message        string
	ScheduledFor   time.Time
	MedicationID   string
	ScheduleID     string
	FamilyMemberID string
	IsActive       bool
	IsAcknowledged bool
	Status         string
	SentAt         *time.Time
	AcknowledgedAt *time.Time
	CreatedAt      time.Time
	// DeliveredAt is set once by the worker; queue redeliveries see it and
	// stay quiet.
	DeliveredAt *time.Time
}

// WithMedication joins a reminder with its medication. Medication is nil when
// the medication no longer exists.
type WithMedication struct {
	Reminder
	Medication *medications.Medication
}
