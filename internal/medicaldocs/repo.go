package medicaldocs

import "context"

// Repo defines persistence operations for medical documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Update(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, familyID, id string) (Document, error)
	List(ctx context.Context, familyID string, filter Filter) ([]Document, error)
	Delete(ctx context.Context, familyID, id string) error
}

// CategoryRepo defines persistence operations for document categories.
type CategoryRepo interface {
	Create(ctx context.Context, category Category) error
	List(ctx context.Context, familyID string) ([]Category, error)
	Delete(ctx context.Context, familyID, id string) error
}
