package medications

import (
	"errors"
	"time"

	"allie-backend/internal/shared/util"
)

// MedicationResponse is the outward-facing representation of a medication.
type MedicationResponse struct {
	ID                   string     `json:"id"`
	FamilyMemberID       string     `json:"familyMemberId"`
	Name                 string     `json:"name"`
	Dosage               string     `json:"dosage"`
	Instructions         string     `json:"instructions"`
	PrescribedBy         string     `json:"prescribedBy,omitempty"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	IsActive             bool       `json:"isActive"`
	RefillInfo           string     `json:"refillInfo,omitempty"`
	SideEffectsToWatch   []string   `json:"sideEffectsToWatch"`
	RelatedMedicalEvents []string   `json:"relatedMedicalEvents"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ScheduleResponse is the outward-facing representation of a schedule.
type ScheduleResponse struct {
	ID             string    `json:"id"`
	MedicationID   string    `json:"medicationId"`
	FamilyMemberID string    `json:"familyMemberId"`
	Frequency      string    `json:"frequency"`
	Times          []string  `json:"times"`
	DaysOfWeek     []int     `json:"daysOfWeek"`
	DayOfMonth     *int      `json:"dayOfMonth"`
	WithFood       bool      `json:"withFood"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MemberScheduleResponse is a schedule joined with its medication. Medication
// is null when the medication no longer exists.
type MemberScheduleResponse struct {
	ScheduleResponse
	Medication *MedicationResponse `json:"medication"`
}

// LogResponse is the outward-facing representation of a dose log.
type LogResponse struct {
	ID             string    `json:"id"`
	MedicationID   string    `json:"medicationId"`
	ScheduleID     string    `json:"scheduleId,omitempty"`
	FamilyMemberID string    `json:"familyMemberId"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AdherenceResponse summarizes dose logs over a period.
type AdherenceResponse struct {
	Total         int       `json:"total"`
	Taken         int       `json:"taken"`
	Skipped       int       `json:"skipped"`
	AdherenceRate float64   `json:"adherenceRate"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

type medicationRequest struct {
	FamilyMemberID       *string   `json:"familyMemberId"`
	Name                 *string   `json:"name"`
	Dosage               *string   `json:"dosage"`
	Instructions         *string   `json:"instructions"`
	PrescribedBy         *string   `json:"prescribedBy"`
	StartDate            *string   `json:"startDate"`
	EndDate              *string   `json:"endDate"`
	IsActive             *bool     `json:"isActive"`
	RefillInfo           *string   `json:"refillInfo"`
	SideEffectsToWatch   *[]string `json:"sideEffectsToWatch"`
	RelatedMedicalEvents *[]string `json:"relatedMedicalEvents"`
}

type scheduleRequest struct {
	MedicationID string    `json:"medicationId"`
	Frequency    *string   `json:"frequency"`
	Times        *[]string `json:"times"`
	DaysOfWeek   *[]int    `json:"daysOfWeek"`
	DayOfMonth   *int      `json:"dayOfMonth"`
	WithFood     *bool     `json:"withFood"`
	IsActive     *bool     `json:"isActive"`
}

type logRequest struct {
	Status     string `json:"status"`
	ScheduleID string `json:"scheduleId"`
	Timestamp  string `json:"timestamp"`
	Reason     string `json:"reason"`
	Notes      string `json:"notes"`
}

func (r medicationRequest) toInput(loc *time.Location) (MedicationInput, error) {
	in := MedicationInput{
		FamilyMemberID: r.FamilyMemberID,
		Name:           r.Name,
		Dosage:         r.Dosage,
		Instructions:   r.Instructions,
		PrescribedBy:   r.PrescribedBy,
		IsActive:       r.IsActive,
		RefillInfo:     r.RefillInfo,
		SideEffects:    r.SideEffectsToWatch,
		RelatedEvents:  r.RelatedMedicalEvents,
	}
	if r.StartDate != nil {
		t, err := util.ParseDate(*r.StartDate, loc)
		if err != nil {
			return MedicationInput{}, errors.New("startDate must be YYYY-MM-DD or RFC 3339")
		}
		in.StartDate = &t
	}
	if r.EndDate != nil {
		t, err := util.ParseOptionalDayEnd(*r.EndDate, loc)
		if err != nil {
			return MedicationInput{}, errors.New("endDate must be YYYY-MM-DD or RFC 3339")
		}
		in.EndDate = &t
	}
	return in, nil
}

func (r scheduleRequest) toInput() ScheduleInput {
	return ScheduleInput{
		MedicationID: r.MedicationID,
		Frequency:    r.Frequency,
		Times:        r.Times,
		DaysOfWeek:   r.DaysOfWeek,
		DayOfMonth:   r.DayOfMonth,
		WithFood:     r.WithFood,
		IsActive:     r.IsActive,
	}
}

func toMedicationResponse(m Medication) MedicationResponse {
	sideEffects := m.SideEffects
	if sideEffects == nil {
		sideEffects = []string{}
	}
	related := m.RelatedEvents
	if related == nil {
		related = []string{}
	}
	return MedicationResponse{
		ID:                   m.ID,
		FamilyMemberID:       m.FamilyMemberID,
		Name:                 m.Name,
		Dosage:               m.Dosage,
		Instructions:         m.Instructions,
		PrescribedBy:         m.PrescribedBy,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		IsActive:             m.IsActive,
		RefillInfo:           m.RefillInfo,
		SideEffectsToWatch:   sideEffects,
		RelatedMedicalEvents: related,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toScheduleResponse(s Schedule) ScheduleResponse {
	times := s.Times
	if times == nil {
		times = []string{}
	}
	days := s.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	return ScheduleResponse{
		ID:             s.ID,
		MedicationID:   s.MedicationID,
		FamilyMemberID: s.FamilyMemberID,
		Frequency:      s.Frequency,
		Times:          times,
		DaysOfWeek:     days,
		DayOfMonth:     s.DayOfMonth,
		WithFood:       s.WithFood,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toMemberScheduleResponse(s ScheduleWithMedication) MemberScheduleResponse {
	resp := MemberScheduleResponse{ScheduleResponse: toScheduleResponse(s.Schedule)}
	if s.Medication != nil {
		m := toMedicationResponse(*s.Medication)
		resp.Medication = &m
	}
	return resp
}

func toLogResponse(l Log) LogResponse {
	return LogResponse{
		ID:             l.ID,
		MedicationID:   l.MedicationID,
		ScheduleID:     l.ScheduleID,
		FamilyMemberID: l.FamilyMemberID,
		Timestamp:      l.Timestamp,
		Status:         l.Status,
		Reason:         l.Reason,
		Notes:          l.Notes,
		CreatedAt:      l.CreatedAt,
	}
}
