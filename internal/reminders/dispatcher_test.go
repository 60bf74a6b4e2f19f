package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"allie-backend/internal/queue"
)

type fakeQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
	sent chan struct{}
}

func (q *fakeQueue) Send(_ context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	if q.sent != nil {
		select {
		case q.sent <- struct{}{}:
		default:
		}
	}
	return nil
}

func (q *fakeQueue) messages() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.msgs...)
}

func seedDue(t *testing.T, repo Repo, now time.Time) {
	t.Helper()
	batch := []Reminder{
		{ID: "r-1", FamilyID: "fam-1", Type: TypeMedication, ScheduledFor: now.Add(-2 * time.Minute), IsActive: true, Status: StatusScheduled},
		{ID: "r-2", FamilyID: "fam-1", Type: TypeMedication, ScheduledFor: now.Add(-time.Minute), IsActive: true, Status: StatusScheduled},
		{ID: "r-3", FamilyID: "fam-1", Type: TypeMedication, ScheduledFor: now, IsActive: false, Status: StatusDismissed},
		{ID: "r-4", FamilyID: "fam-1", Type: TypeMedication, ScheduledFor: now.Add(time.Hour), IsActive: true, Status: StatusScheduled},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
}

func newDispatchService(now time.Time) *Service {
	return &Service{
		Repo:     NewMemoryRepo(),
		Catalog:  emptyCatalog{},
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
}

func TestRunOnceEnqueuesDueReminders(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newDispatchService(genNow)
	seedDue(t, svc.Repo, genNow)
	q := &fakeQueue{}
	d := &Dispatcher{Reminders: svc, Queue: q}

	res, err := d.RunOnce(context.Background(), genNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Due: 2, Dispatched: 2}, res)

	msgs := q.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "r-1", msgs[0].ReminderID)
	assert.Equal(t, "r-2", msgs[1].ReminderID)
	assert.Equal(t, msgs[0].RequestID, msgs[1].RequestID)
	assert.Equal(t, queue.MessageVersion, msgs[0].Version)

	rem, err := svc.Repo.Lookup(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, rem.Status)

	res, err = d.RunOnce(context.Background(), genNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res)
}

func TestRunOnceReleasesClaimOnQueueFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newDispatchService(genNow)
	seedDue(t, svc.Repo, genNow)
	d := &Dispatcher{Reminders: svc, Queue: &fakeQueue{err: errors.New("queue down")}}

	res, err := d.RunOnce(context.Background(), genNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Due: 2, Failed: 2}, res)

	rem, err := svc.Repo.Lookup(context.Background(), "r-2")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, rem.Status)
	assert.Nil(t, rem.SentAt)
}

func TestRunOnceDeliversInlineWithoutQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newDispatchService(genNow)
	seedDue(t, svc.Repo, genNow)
	d := &Dispatcher{Reminders: svc, BatchSize: 1}

	res, err := d.RunOnce(context.Background(), genNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Due: 1, Dispatched: 1}, res)

	rem, err := svc.Repo.Lookup(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, rem.Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newDispatchService(genNow)
	seedDue(t, svc.Repo, genNow)
	q := &fakeQueue{sent: make(chan struct{}, 1)}
	d := &Dispatcher{Reminders: svc, Queue: q}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, 10*time.Millisecond) }()

	select {
	case <-q.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never sent")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
