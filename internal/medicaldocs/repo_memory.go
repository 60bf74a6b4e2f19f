package medicaldocs

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document // id -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

// Create stores a document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Update replaces a stored document.
func (r *MemoryRepo) Update(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.FamilyID != doc.FamilyID {
		return ErrNotFound
	}
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a document within a family.
func (r *MemoryRepo) GetByID(ctx context.Context, familyID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.FamilyID != familyID {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// List returns the family's documents matching filter, newest date first.
func (r *MemoryRepo) List(ctx context.Context, familyID string, filter Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category := filter.category()
	patientID := filter.patientID()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	out := []Document{}
	for _, doc := range r.docs {
		if doc.FamilyID != familyID {
			continue
		}
		if category != "" && doc.Category != category {
			continue
		}
		if patientID != "" && doc.PatientID != patientID {
			continue
		}
		if search != "" && !matchesSearch(doc, search) {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, familyID, id string) error {
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

func matchesSearch(doc Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Title), needle) ||
		strings.Contains(strings.ToLower(doc.Description), needle) ||
		strings.Contains(strings.ToLower(doc.ExtractedText), needle) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func cloneDocument(doc Document) Document {
	doc.Tags = append([]string(nil), doc.Tags...)
	return doc
}

// MemoryCategoryRepo is an in-memory implementation of CategoryRepo.
type MemoryCategoryRepo struct {
	mu         sync.RWMutex
	categories map[string]Category
}

// NewMemoryCategoryRepo constructs a MemoryCategoryRepo.
func NewMemoryCategoryRepo() *MemoryCategoryRepo {
	return &MemoryCategoryRepo{categories: make(map[string]Category)}
}

// Create stores a category.
func (r *MemoryCategoryRepo) Create(ctx context.Context, category Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = category
	return nil
}

// List returns the family's categories sorted by name.
func (r *MemoryCategoryRepo) List(ctx context.Context, familyID string) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Category{}
	for _, c := range r.categories {
		if c.FamilyID == familyID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Delete removes a category.
func (r *MemoryCategoryRepo) Delete(ctx context.Context, familyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || c.FamilyID != familyID {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

var (
	_ Repo         = (*MemoryRepo)(nil)
	_ CategoryRepo = (*MemoryCategoryRepo)(nil)
)
