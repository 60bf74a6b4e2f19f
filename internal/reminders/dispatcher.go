package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"allie-backend/internal/queue"
	"allie-backend/internal/shared/metrics"
	"allie-backend/internal/shared/telemetry"
)

const defaultRefreshInterval = 6 * time.Hour

// DispatchResult summarizes one dispatch pass.
type DispatchResult struct {
	Due        int
	Dispatched int
	Failed     int
}

// Dispatcher hands due reminders to delivery. With a Queue it enqueues one
// message per reminder; without one it delivers inline.
type Dispatcher struct {
	Reminders       *Service
	Queue           queue.Client
	BatchSize       int
	RefreshInterval time.Duration
}

// RunOnce dispatches reminders due at now. Each reminder is claimed by moving
// it to sent before it is handed off, and released again when hand-off fails.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (DispatchResult, error) {
	due, err := d.Reminders.Due(ctx, now, d.BatchSize)
	if err != nil {
		return DispatchResult{}, err
	}
	result := DispatchResult{Due: len(due)}
	requestID := uuid.NewString()

	for _, rem := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		claimed, err := d.Reminders.Repo.MarkSent(ctx, rem.ID, now.UTC())
		if err != nil {
			result.Failed++
			metrics.IncRemindersFailed()
			telemetry.Error("reminders.dispatch.claim_failed", map[string]any{
				"reminder_id": rem.ID,
				"error":       err,
			})
			continue
		}
		if !claimed {
			continue
		}
		if err := d.handOff(ctx, rem, requestID, now); err != nil {
			result.Failed++
			metrics.IncRemindersFailed()
			telemetry.Error("reminders.dispatch.failed", map[string]any{
				"reminder_id": rem.ID,
				"family_id":   rem.FamilyID,
				"request_id":  requestID,
				"error":       err,
			})
			if err := d.Reminders.Repo.Unclaim(ctx, rem.ID); err != nil {
				telemetry.Warn("reminders.dispatch.unclaim_failed", map[string]any{
					"reminder_id": rem.ID,
					"error":       err,
				})
			}
			continue
		}
		result.Dispatched++
		metrics.IncRemindersDispatched()
	}

	if result.Due > 0 {
		telemetry.Info("reminders.dispatched", map[string]any{
			"request_id": requestID,
			"due":        result.Due,
			"dispatched": result.Dispatched,
			"failed":     result.Failed,
		})
	}
	return result, nil
}

func (d *Dispatcher) handOff(ctx context.Context, rem Reminder, requestID string, now time.Time) error {
	if d.Queue == nil {
		return d.Reminders.Deliver(ctx, rem.ID)
	}
	return d.Queue.Send(ctx, queue.NewReminderMessage(rem.ID, rem.FamilyID, requestID, now))
}

// Run dispatches on every tick of interval and refreshes the rolling window
// every RefreshInterval, until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	refreshEvery := d.RefreshInterval
	if refreshEvery <= 0 {
		refreshEvery = defaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastRefresh time.Time
	for {
		now := d.Reminders.now()
		if now.Sub(lastRefresh) >= refreshEvery {
			if _, err := d.Reminders.Refresh(ctx, now); err != nil && ctx.Err() == nil {
				telemetry.Error("reminders.refresh.failed", map[string]any{"error": err})
			}
			lastRefresh = now
		}
		if _, err := d.RunOnce(ctx, now); err != nil && ctx.Err() == nil {
			telemetry.Error("reminders.dispatch.run_failed", map[string]any{"error": err})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
