package reminders

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"allie-backend/internal/medications"
)

// Expand turns a schedule's recurrence into reminders for the calendar days
// from now's date through now+windowDays, evaluated in loc. Instants at or
// before now are skipped, as are instants outside the medication's start and
// end dates. Inactive schedules and medications expand to nothing.
func Expand(s medications.Schedule, m medications.Medication, now time.Time, windowDays int, loc *time.Location) []Reminder {
	if !s.IsActive || !m.IsActive || windowDays < 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	title := "Time to take " + m.Name
	message := reminderMessage(s, m)
	created := now.UTC()

	var out []Reminder
	for d := 0; d <= windowDays; d++ {
		day := first.AddDate(0, 0, d)
		if !matchesDay(s, day) {
			continue
		}
		for _, clock := range s.Times {
			hour, minute, ok := parseClock(clock)
			if !ok {
				continue
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
			if !at.After(now) || at.Before(m.StartDate) {
				continue
			}
			if m.EndDate != nil && at.After(*m.EndDate) {
				continue
			}
			out = append(out, Reminder{
				ID:             uuid.NewString(),
				FamilyID:       s.FamilyID,
				Type:           TypeMedication,
				Title:          title,
				Message:        message,
				ScheduledFor:   at.UTC(),
				MedicationID:   m.ID,
				ScheduleID:     s.ID,
				FamilyMemberID: s.FamilyMemberID,
				IsActive:       true,
				Status:         StatusScheduled,
				CreatedAt:      created,
			})
		}
	}
	return out
}

func matchesDay(s medications.Schedule, day time.Time) bool {
	switch s.Frequency {
	case medications.FrequencyDaily:
		return true
	case medications.FrequencyWeekly, medications.FrequencySpecificDays:
		return slices.Contains(s.DaysOfWeek, int(day.Weekday()))
	case medications.FrequencyMonthly:
		return s.DayOfMonth != nil && *s.DayOfMonth == day.Day()
	default:
		return false
	}
}

func parseClock(value string) (int, int, bool) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func reminderMessage(s medications.Schedule, m medications.Medication) string {
	food := ""
	if s.WithFood {
		food = "Take with food."
	}
	msg := fmt.Sprintf("Time to take %s of %s. %s %s", m.Dosage, m.Name, food, m.Instructions)
	return strings.Join(strings.Fields(msg), " ")
}
