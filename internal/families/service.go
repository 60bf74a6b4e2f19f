package families

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for families.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create makes a family owned by ownerID. When the owner already has one, the
// existing family is returned together with ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, ownerID, name string) (Family, error) {
	ownerID = strings.TrimSpace(ownerID)
	name = strings.TrimSpace(name)
	if ownerID == "" {
		return Family{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if name == "" {
		return Family{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if existing, err := s.Repo.GetByOwner(ctx, ownerID); err == nil {
		return existing, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return Family{}, err
	}

	now := s.now()
	family := Family{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, family); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			existing, getErr := s.Repo.GetByOwner(ctx, ownerID)
			if getErr != nil {
				return Family{}, getErr
			}
			return existing, ErrAlreadyExists
		}
		return Family{}, err
	}
	return family, nil
}

// Current returns the family owned by the user.
func (s *Service) Current(ctx context.Context, userID string) (Family, error) {
	if strings.TrimSpace(userID) == "" {
		return Family{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByOwner(ctx, userID)
}

// MemberInput carries fields for a new member.
type MemberInput struct {
	Name         string
	Relationship string
	BirthDate    *time.Time
}

// AddMember adds a person to the family.
func (s *Service) AddMember(ctx context.Context, familyID string, in MemberInput) (Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	member := Member{
		ID:           uuid.NewString(),
		FamilyID:     familyID,
		Name:         name,
		Relationship: strings.TrimSpace(in.Relationship),
		BirthDate:    in.BirthDate,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.AddMember(ctx, member); err != nil {
		return Member{}, err
	}
	return member, nil
}

// ListMembers returns members sorted by name.
func (s *Service) ListMembers(ctx context.Context, familyID string) ([]Member, error) {
	return s.Repo.ListMembers(ctx, familyID)
}

// RemoveMember deletes a member. Records referring to the member are left as is.
func (s *Service) RemoveMember(ctx context.Context, familyID, memberID string) error {
	if strings.TrimSpace(memberID) == "" {
		return fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}
	return s.Repo.DeleteMember(ctx, familyID, memberID)
}
