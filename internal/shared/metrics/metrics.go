package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	remindersGeneratedTotal  atomic.Uint64
	remindersClearedTotal    atomic.Uint64
	remindersDispatchedTotal atomic.Uint64
	remindersDeliveredTotal  atomic.Uint64
	remindersFailedTotal     atomic.Uint64
	reminderJobsDropped      atomic.Uint64

	generationDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// AddRemindersGenerated records reminders written by the generator.
func AddRemindersGenerated(n int) {
	if n > 0 {
		remindersGeneratedTotal.Add(uint64(n))
	}
}

// AddRemindersCleared records reminders removed when a schedule changes.
func AddRemindersCleared(n int) {
	if n > 0 {
		remindersClearedTotal.Add(uint64(n))
	}
}

// IncRemindersDispatched counts reminders handed to the delivery queue.
func IncRemindersDispatched() {
	remindersDispatchedTotal.Add(1)
}

// IncRemindersDelivered counts reminders marked sent by the worker.
func IncRemindersDelivered() {
	remindersDeliveredTotal.Add(1)
}

// IncRemindersFailed counts dispatch or delivery failures.
func IncRemindersFailed() {
	remindersFailedTotal.Add(1)
}

// IncReminderJobsDropped counts unrecoverable queue messages.
func IncReminderJobsDropped() {
	reminderJobsDropped.Add(1)
}

// ObserveGenerationDurationMs records one generator run in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "reminders_generated_total", "Reminders written by the schedule generator", remindersGeneratedTotal.Load())
	writeCounter(&buf, "reminders_cleared_total", "Reminders removed on schedule change or delete", remindersClearedTotal.Load())
	writeCounter(&buf, "reminders_dispatched_total", "Due reminders handed to delivery", remindersDispatchedTotal.Load())
	writeCounter(&buf, "reminders_delivered_total", "Reminders marked sent", remindersDeliveredTotal.Load())
	writeCounter(&buf, "reminders_failed_total", "Reminder dispatch or delivery failures", remindersFailedTotal.Load())
	writeCounter(&buf, "reminder_jobs_dropped_total", "Unrecoverable reminder queue messages", reminderJobsDropped.Load())
	writeHistogram(&buf, "reminder_generation_duration_ms", "Reminder generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket whose bound it fits; buckets are
// made cumulative at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
