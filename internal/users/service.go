package users

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// UpsertFromAuth records the identity returned by the OAuth provider so family
// ownership survives token expiry.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) (User, error) {
	user.ID = strings.TrimSpace(user.ID)
	user.Email = strings.TrimSpace(user.Email)
	if user.ID == "" || user.Email == "" {
		return User{}, fmt.Errorf("%w: user id and email are required", ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, user, s.now())
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}
