package metrics

import (
	"strings"
	"testing"
)

func TestHistogramIsCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
	}
	if cumulative != 2 {
		t.Fatalf("expected 2 observations within buckets, got %d", cumulative)
	}
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
}

func TestRenderIncludesReminderCounters(t *testing.T) {
	AddRemindersGenerated(3)
	IncRemindersDelivered()

	out := Render()
	for _, name := range []string{
		"reminders_generated_total",
		"reminders_delivered_total",
		"reminder_generation_duration_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
