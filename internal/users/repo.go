package users

import (
	"context"
	"time"
)

// Repo persists users keyed by their namespaced subject ("google:<sub>").
type Repo interface {
	// Upsert inserts the user or refreshes its profile, keeping CreatedAt.
	Upsert(ctx context.Context, user User, at time.Time) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
