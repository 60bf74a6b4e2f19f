package insurance

import "context"

// PlanRepo defines persistence operations for plans.
type PlanRepo interface {
	Create(ctx context.Context, plan Plan) error
	Update(ctx context.Context, plan Plan) error
	GetByID(ctx context.Context, familyID, id string) (Plan, error)
	List(ctx context.Context, familyID string) ([]Plan, error)
	Delete(ctx context.Context, familyID, id string) error
}

// DocumentRepo defines persistence operations for plan documents.
type DocumentRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, familyID, id string) (Document, error)
	ListByPlan(ctx context.Context, familyID, planID string) ([]Document, error)
	Delete(ctx context.Context, familyID, id string) error
	DeleteByPlan(ctx context.Context, familyID, planID string) (int, error)
}
