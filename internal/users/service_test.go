package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFromAuthKeepsCreatedAt(t *testing.T) {
	clock := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepo())
	svc.Now = func() time.Time { return clock }
	ctx := context.Background()

	first, err := svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "a@example.com", FullName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, clock, first.CreatedAt)

	clock = clock.Add(time.Hour)
	second, err := svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "a@example.com", FullName: "Ann Lee"})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, clock, second.UpdatedAt)

	got, err := svc.GetByID(ctx, "google:1")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got.FullName)
}

func TestUpsertFromAuthRequiresIdentity(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetByID(context.Background(), "google:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
