package insurance

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryPlanRepo is an in-memory implementation of PlanRepo.
type MemoryPlanRepo struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewMemoryPlanRepo constructs a MemoryPlanRepo.
func NewMemoryPlanRepo() *MemoryPlanRepo {
	return &MemoryPlanRepo{plans: make(map[string]Plan)}
}

// Create stores a plan.
func (r *MemoryPlanRepo) Create(ctx context.Context, plan Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

// Update replaces a plan.
func (r *MemoryPlanRepo) Update(ctx context.Context, plan Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.plans[plan.ID]
	if !ok || existing.FamilyID != plan.FamilyID {
		return ErrNotFound
	}
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

// GetByID returns a plan within a family.
func (r *MemoryPlanRepo) GetByID(ctx context.Context, familyID, id string) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok || plan.FamilyID != familyID {
		return Plan{}, ErrNotFound
	}
	return clonePlan(plan), nil
}

// List returns the family's plans sorted by provider.
func (r *MemoryPlanRepo) List(ctx context.Context, familyID string) ([]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Plan{}
	for _, plan := range r.plans {
		if plan.FamilyID == familyID {
			out = append(out, clonePlan(plan))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Provider), strings.ToLower(out[j].Provider)
		if a == b {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return a < b
	})
	return out, nil
}

// Delete removes a plan.
func (r *MemoryPlanRepo) Delete(ctx context.Context, familyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok || plan.FamilyID != familyID {
		return ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func clonePlan(p Plan) Plan {
	p.CoveredMembers = append([]string(nil), p.CoveredMembers...)
	return p
}

// MemoryDocumentRepo is an in-memory implementation of DocumentRepo.
type MemoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryDocumentRepo constructs a MemoryDocumentRepo.
func NewMemoryDocumentRepo() *MemoryDocumentRepo {
	return &MemoryDocumentRepo{docs: make(map[string]Document)}
}

// Create stores a document.
func (r *MemoryDocumentRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// GetByID returns a document within a family.
func (r *MemoryDocumentRepo) GetByID(ctx context.Context, familyID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.FamilyID != familyID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByPlan returns a plan's documents, newest first.
func (r *MemoryDocumentRepo) ListByPlan(ctx context.Context, familyID, planID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Document{}
	for _, doc := range r.docs {
		if doc.FamilyID == familyID && doc.PlanID == planID {
			out = append(out, doc)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a document.
func (r *MemoryDocumentRepo) Delete(ctx context.Context, familyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.FamilyID != familyID {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// DeleteByPlan removes every document attached to a plan.
func (r *MemoryDocumentRepo) DeleteByPlan(ctx context.Context, familyID, planID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, doc := range r.docs {
		if doc.FamilyID == familyID && doc.PlanID == planID {
			delete(r.docs, id)
			n++
		}
	}
	return n, nil
}

var (
	_ PlanRepo     = (*MemoryPlanRepo)(nil)
	_ DocumentRepo = (*MemoryDocumentRepo)(nil)
)
