package reminders

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"allie-backend/internal/medications"
	"allie-backend/internal/shared/util"
)

// Sunday.
var genNow = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

func testMedication() medications.Medication {
	return medications.Medication{
		ID:             "med-1",
		FamilyID:       "fam-1",
		FamilyMemberID: "m-1",
		Name:           "Metformin",
		Dosage:         "500mg",
		IsActive:       true,
		StartDate:      genNow.AddDate(0, -1, 0),
	}
}

func testSchedule(freq string, times ...string) medications.Schedule {
	return medications.Schedule{
		ID:             "s-1",
		FamilyID:       "fam-1",
		MedicationID:   "med-1",
		FamilyMemberID: "m-1",
		Frequency:      freq,
		Times:          times,
		IsActive:       true,
	}
}

var ignoreID = cmpopts.IgnoreFields(Reminder{}, "ID")

func scheduledTimes(rs []Reminder) []time.Time {
	out := make([]time.Time, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ScheduledFor)
	}
	return out
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
}

func TestExpandDailySkipsPastInstants(t *testing.T) {
	got := Expand(testSchedule(medications.FrequencyDaily, "08:00", "20:00"), testMedication(), genNow, 2, time.UTC)

	want := []time.Time{at(1, 20, 0), at(2, 8, 0), at(2, 20, 0), at(3, 8, 0), at(3, 20, 0)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("scheduled times mismatch (-want +got):\n%s", diff)
	}

	first := Reminder{
		FamilyID:       "fam-1",
		Type:           TypeMedication,
		Title:          "Time to take Metformin",
		Message:        "Time to take 500mg of Metformin.",
		ScheduledFor:   at(1, 20, 0),
		MedicationID:   "med-1",
		ScheduleID:     "s-1",
		FamilyMemberID: "m-1",
		IsActive:       true,
		Status:         StatusScheduled,
		CreatedAt:      genNow,
	}
	if diff := cmp.Diff(first, got[0], ignoreID); diff != "" {
		t.Fatalf("reminder mismatch (-want +got):\n%s", diff)
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("expected distinct ids, got %q and %q", got[0].ID, got[1].ID)
	}
}

func TestExpandInstantEqualToNowIsSkipped(t *testing.T) {
	got := Expand(testSchedule(medications.FrequencyDaily, "08:30"), testMedication(), genNow, 0, time.UTC)
	if len(got) != 0 {
		t.Fatalf("expected no reminders, got %v", scheduledTimes(got))
	}
}

func TestExpandWeeklyAndSpecificDays(t *testing.T) {
	for _, freq := range []string{medications.FrequencyWeekly, medications.FrequencySpecificDays} {
		s := testSchedule(freq, "09:00")
		s.DaysOfWeek = []int{int(time.Monday), int(time.Wednesday)}

		got := Expand(s, testMedication(), genNow, 7, time.UTC)
		want := []time.Time{at(2, 9, 0), at(4, 9, 0)}
		if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", freq, diff)
		}
	}
}

func TestExpandMonthlyWindowIsInclusive(t *testing.T) {
	s := testSchedule(medications.FrequencyMonthly, "07:00")
	day := 1
	s.DayOfMonth = &day

	got := Expand(s, testMedication(), genNow, 30, time.UTC)
	want := []time.Time{time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandUsesLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	got := Expand(testSchedule(medications.FrequencyDaily, "09:00"), testMedication(), genNow, 0, est)

	// 08:30 UTC is 03:30 EST on June 1, so 09:00 EST that day is still ahead.
	want := []time.Time{at(1, 14, 0)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("location mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandMessageIncludesFoodAndInstructions(t *testing.T) {
	s := testSchedule(medications.FrequencyDaily, "20:00")
	s.WithFood = true
	m := testMedication()
	m.Instructions = "  with a full   glass of water "

	got := Expand(s, m, genNow, 0, time.UTC)
	if len(got) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(got))
	}
	want := "Time to take 500mg of Metformin. Take with food. with a full glass of water"
	if got[0].Message != want {
		t.Fatalf("message = %q, want %q", got[0].Message, want)
	}
}

func TestExpandRespectsActiveFlagsAndEndDate(t *testing.T) {
	s := testSchedule(medications.FrequencyDaily, "08:00", "20:00")
	m := testMedication()

	inactive := s
	inactive.IsActive = false
	if got := Expand(inactive, m, genNow, 3, time.UTC); got != nil {
		t.Fatalf("inactive schedule expanded to %d reminders", len(got))
	}

	stopped := m
	stopped.IsActive = false
	if got := Expand(s, stopped, genNow, 3, time.UTC); got != nil {
		t.Fatalf("inactive medication expanded to %d reminders", len(got))
	}

	end := at(2, 12, 0)
	m.EndDate = &end
	got := Expand(s, m, genNow, 3, time.UTC)
	want := []time.Time{at(1, 20, 0), at(2, 8, 0)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("end date mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandSkipsBeforeStartDate(t *testing.T) {
	m := testMedication()
	m.StartDate = at(3, 0, 0)
	got := Expand(testSchedule(medications.FrequencyDaily, "08:00"), m, genNow, 3, time.UTC)
	want := []time.Time{at(3, 8, 0), at(4, 8, 0)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("start date mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandCalendarEndDateKeepsLastDay(t *testing.T) {
	end, err := util.ParseDayEnd("2025-06-03", time.UTC)
	if err != nil {
		t.Fatalf("ParseDayEnd: %v", err)
	}
	m := testMedication()
	m.EndDate = &end

	got := Expand(testSchedule(medications.FrequencyDaily, "09:00"), m, at(1, 8, 0), 30, time.UTC)

	want := []time.Time{at(1, 9, 0), at(2, 9, 0), at(3, 9, 0)}
	if diff := cmp.Diff(want, scheduledTimes(got)); diff != "" {
		t.Fatalf("scheduled times mismatch (-want +got):\n%s", diff)
	}
}
