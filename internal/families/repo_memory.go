package families

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	families map[string]Family   // familyId -> family
	owners   map[string]string   // ownerId -> familyId
	members  map[string][]Member // familyId -> members
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		families: make(map[string]Family),
		owners:   make(map[string]string),
		members:  make(map[string][]Member),
	}
}

// Create stores a family. Owners are unique.
func (r *MemoryRepo) Create(ctx context.Context, family Family) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[family.OwnerID]; ok {
		return ErrAlreadyExists
	}
	r.families[family.ID] = family
	r.owners[family.OwnerID] = family.ID
	return nil
}

// GetByOwner returns the family owned by a user.
func (r *MemoryRepo) GetByOwner(ctx context.Context, ownerID string) (Family, error) {
	if err := ctx.Err(); err != nil {
		return Family{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.owners[ownerID]
	if !ok {
		return Family{}, ErrNotFound
	}
	return r.families[id], nil
}

// GetByID returns a family by id.
func (r *MemoryRepo) GetByID(ctx context.Context, familyID string) (Family, error) {
	if err := ctx.Err(); err != nil {
		return Family{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	family, ok := r.families[familyID]
	if !ok {
		return Family{}, ErrNotFound
	}
	return family, nil
}

// AddMember appends a member to a family.
func (r *MemoryRepo) AddMember(ctx context.Context, member Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.families[member.FamilyID]; !ok {
		return ErrNotFound
	}
	r.members[member.FamilyID] = append(r.members[member.FamilyID], member)
	return nil
}

// ListMembers returns a family's members sorted by name.
func (r *MemoryRepo) ListMembers(ctx context.Context, familyID string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	members := make([]Member, len(r.members[familyID]))
	copy(members, r.members[familyID])
	r.mu.RUnlock()

	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

// DeleteMember removes a member from a family.
func (r *MemoryRepo) DeleteMember(ctx context.Context, familyID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[familyID]
	for i := range members {
		if members[i].ID == memberID {
			r.members[familyID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
