package medications

import "time"

const (
	FrequencyDaily        = "daily"
	FrequencyWeekly       = "weekly"
	FrequencyMonthly      = "monthly"
	FrequencySpecificDays = "specific-days"
)

var frequencies = map[string]struct{}{
	FrequencyDaily:        {},
	FrequencyWeekly:       {},
	FrequencyMonthly:      {},
	FrequencySpecificDays: {},
}

const (
	LogStatusTaken   = "taken"
	LogStatusSkipped = "skipped"
)

// Medication is a drug a family member takes.
type Medication struct {
	ID             string
	FamilyID       string
	FamilyMemberID string
	Name           string
	Dosage         string
	Instructions   string
	PrescribedBy   string
	StartDate      time.Time
	EndDate        *time.Time
	IsActive       bool
	RefillInfo     string
	SideEffects    []string
	RelatedEvents  []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Schedule is a recurrence rule for taking a medication.
// DaysOfWeek uses time.Weekday numbering (Sunday = 0).
type Schedule struct {
	ID             string
	FamilyID       string
	MedicationID   string
	FamilyMemberID string
	Frequency      string
	Times          []string
	DaysOfWeek     []int
	DayOfMonth     *int
	WithFood       bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleWithMedication joins a schedule with its medication. Medication is
// nil when the medication no longer exists.
type ScheduleWithMedication struct {
	Schedule
	Medication *Medication
}

// Log records a dose that was taken or skipped.
type Log struct {
	ID             string
	FamilyID       string
	MedicationID   string
	ScheduleID     string
	FamilyMemberID string
	Timestamp      time.Time
	Status         string
	Reason         string
	Notes          string
	CreatedAt      time.Time
}

// AdherenceStats summarizes logs over a period.
type AdherenceStats struct {
	Total         int
	Taken         int
	Skipped       int
	AdherenceRate float64
}
