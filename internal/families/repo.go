package families

import "context"

// Repo defines persistence operations for families and their members.
type Repo interface {
	Create(ctx context.Context, family Family) error
	GetByOwner(ctx context.Context, ownerID string) (Family, error)
	GetByID(ctx context.Context, familyID string) (Family, error)
	AddMember(ctx context.Context, member Member) error
	ListMembers(ctx context.Context, familyID string) ([]Member, error)
	DeleteMember(ctx context.Context, familyID, memberID string) error
}
