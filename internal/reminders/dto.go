package reminders

import (
	"time"

	"allie-backend/internal/medications"
)

// ReminderResponse is the outward-facing representation of a reminder.
type ReminderResponse struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ScheduledFor   time.Time  `json:"scheduledFor"`
	MedicationID   string     `json:"medicationId,omitempty"`
	ScheduleID     string     `json:"scheduleId,omitempty"`
	FamilyMemberID string     `json:"familyMemberId,omitempty"`
	IsActive       bool       `json:"isActive"`
	IsAcknowledged bool       `json:"isAcknowledged"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UpcomingResponse is a reminder joined with its medication.
type UpcomingResponse struct {
	ReminderResponse
	Medication *MedicationSummary `json:"medication"`
}

// MedicationSummary carries the medication fields a reminder card shows.
type MedicationSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
	IsActive     bool   `json:"isActive"`
}

func toReminderResponse(r Reminder) ReminderResponse {
	return ReminderResponse{
		ID:             r.ID,
		Type:           r.Type,
		Title:          r.Title,
		Message:        r.Message,
		ScheduledFor:   r.ScheduledFor,
		MedicationID:   r.MedicationID,
		ScheduleID:     r.ScheduleID,
		FamilyMemberID: r.FamilyMemberID,
		IsActive:       r.IsActive,
		IsAcknowledged: r.IsAcknowledged,
		Status:         r.Status,
		SentAt:         r.SentAt,
		AcknowledgedAt: r.AcknowledgedAt,
		CreatedAt:      r.CreatedAt,
	}
}

func toUpcomingResponse(item WithMedication) UpcomingResponse {
	resp := UpcomingResponse{ReminderResponse: toReminderResponse(item.Reminder)}
	if item.Medication != nil {
		resp.Medication = toMedicationSummary(*item.Medication)
	}
	return resp
}

func toMedicationSummary(m medications.Medication) *MedicationSummary {
	return &MedicationSummary{
		ID:           m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage,
		Instructions: m.Instructions,
		IsActive:     m.IsActive,
	}
}
