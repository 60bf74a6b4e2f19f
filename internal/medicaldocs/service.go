package medicaldocs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"allie-backend/internal/extract"
	"allie-backend/internal/shared/storage/object"
	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/shared/util"
)

// MaxFileBytes is the largest file accepted for a medical document.
const MaxFileBytes = 10 << 20

// Service contains business logic for medical documents and categories.
type Service struct {
	Repo       Repo
	Categories CategoryRepo
	Store      object.ObjectStore

	// Uploads holds files written through presigned URLs. Nil disables
	// CreateFromUpload.
	Uploads       object.ObjectStore
	UploadsPrefix string

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Input carries the metadata of a new document.
type Input struct {
	Title          string
	Description    string
	PatientID      string
	Category       string
	Date           time.Time
	ExpirationDate *time.Time
	Tags           []string
}

// File is an optional attachment for Create.
type File struct {
	Name string
	Body io.Reader
}

// Create records a document, storing and indexing the file when present.
func (s *Service) Create(ctx context.Context, familyID, userID string, in Input, file *File) (Document, error) {
	doc, err := s.newDocument(familyID, userID, in)
	if err != nil {
		return Document{}, err
	}

	if file != nil {
		obj, err := s.Store.Save(ctx, familyID, file.Name, file.Body)
		if err != nil {
			if errors.Is(err, util.ErrInvalidFileName) {
				return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
			}
			return Document{}, fmt.Errorf("store file: %w", err)
		}
		s.attach(ctx, &doc, obj, file.Name)
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if doc.HasFile() {
			s.removeFile(ctx, doc.StorageKey)
		}
		return Document{}, err
	}
	return doc, nil
}

// CreateFromUpload records a document whose file was uploaded through a
// presigned URL. The staged object is moved into the family's store.
func (s *Service) CreateFromUpload(ctx context.Context, familyID, userID, uploadKey, fileName string, in Input) (Document, error) {
	if s.Uploads == nil {
		return Document{}, errors.New("uploads not configured")
	}
	uploadKey = strings.TrimSpace(uploadKey)
	if uploadKey == "" {
		return Document{}, fmt.Errorf("%w: s3Key is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(uploadKey, object.OwnerPrefix(s.UploadsPrefix, familyID)) {
		return Document{}, fmt.Errorf("%w: s3Key does not belong to this family", ErrInvalidInput)
	}
	if strings.TrimSpace(fileName) == "" {
		return Document{}, fmt.Errorf("%w: fileName is required", ErrInvalidInput)
	}

	doc, err := s.newDocument(familyID, userID, in)
	if err != nil {
		return Document{}, err
	}

	staged, err := s.Uploads.Stat(ctx, uploadKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: uploaded file not found", ErrInvalidInput)
		}
		return Document{}, err
	}
	if staged.SizeBytes <= 0 || staged.SizeBytes > MaxFileBytes {
		return Document{}, fmt.Errorf("%w: uploaded file size out of range", ErrInvalidInput)
	}

	body, err := s.Uploads.Open(ctx, uploadKey)
	if err != nil {
		return Document{}, fmt.Errorf("open upload: %w", err)
	}
	obj, err := s.Store.Save(ctx, familyID, fileName, io.LimitReader(body, MaxFileBytes))
	body.Close()
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
		}
		return Document{}, fmt.Errorf("store file: %w", err)
	}
	if staged.ContentType != "" {
		obj.ContentType = staged.ContentType
	}
	s.attach(ctx, &doc, obj, fileName)

	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeFile(ctx, doc.StorageKey)
		return Document{}, err
	}
	if err := s.Uploads.Delete(ctx, uploadKey); err != nil {
		telemetry.Warn("medicaldocs.upload.cleanup_failed", map[string]any{
			"family_id": familyID,
			"key":       uploadKey,
			"error":     err,
		})
	}
	return doc, nil
}

func (s *Service) newDocument(familyID, userID string, in Input) (Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return Document{
		ID:             uuid.NewString(),
		FamilyID:       familyID,
		CreatedBy:      userID,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		PatientID:      strings.TrimSpace(in.PatientID),
		Category:       strings.TrimSpace(in.Category),
		Date:           date.UTC(),
		ExpirationDate: utcPtr(in.ExpirationDate),
		Tags:           util.NormalizeTags(in.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *Service) attach(ctx context.Context, doc *Document, obj object.Object, fileName string) {
	doc.FileName = fileName
	doc.FileType = obj.ContentType
	doc.FileSize = obj.SizeBytes
	doc.StorageKey = obj.Key

	if !extract.Supported(obj.ContentType, fileName) {
		return
	}
	text, err := extract.ExtractText(ctx, s.Store, obj.Key, obj.ContentType, fileName)
	if err != nil {
		telemetry.Warn("medicaldocs.extract.failed", map[string]any{
			"family_id":   doc.FamilyID,
			"document_id": doc.ID,
			"mime":        obj.ContentType,
			"error":       err,
		})
		return
	}
	doc.ExtractedText = text
}

// Get returns a document.
func (s *Service) Get(ctx context.Context, familyID, id string) (Document, error) {
	return s.Repo.GetByID(ctx, familyID, id)
}

// List returns documents matching filter, newest date first.
func (s *Service) List(ctx context.Context, familyID string, filter Filter) ([]Document, error) {
	return s.Repo.List(ctx, familyID, filter)
}

// Update carries a partial edit. Nil fields are left unchanged.
type Update struct {
	Title           *string
	Description     *string
	PatientID       *string
	Category        *string
	Date            *time.Time
	ExpirationDate  *time.Time
	ClearExpiration bool
	Tags            *[]string
}

// Update applies a partial edit to a document's metadata.
func (s *Service) Update(ctx context.Context, familyID, id string, u Update) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, familyID, id)
	if err != nil {
		return Document{}, err
	}
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return Document{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		doc.Title = title
	}
	if u.Description != nil {
		doc.Description = strings.TrimSpace(*u.Description)
	}
	if u.PatientID != nil {
		doc.PatientID = strings.TrimSpace(*u.PatientID)
	}
	if u.Category != nil {
		doc.Category = strings.TrimSpace(*u.Category)
	}
	if u.Date != nil && !u.Date.IsZero() {
		doc.Date = u.Date.UTC()
	}
	if u.ClearExpiration {
		doc.ExpirationDate = nil
	} else if u.ExpirationDate != nil {
		doc.ExpirationDate = utcPtr(u.ExpirationDate)
	}
	if u.Tags != nil {
		doc.Tags = util.NormalizeTags(*u.Tags)
	}
	doc.UpdatedAt = s.now()

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document and then its file.
func (s *Service) Delete(ctx context.Context, familyID, id string) error {
	doc, err := s.Repo.GetByID(ctx, familyID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, familyID, id); err != nil {
		return err
	}
	if doc.HasFile() {
		s.removeFile(ctx, doc.StorageKey)
	}
	return nil
}

// Download opens the document's file. Callers close the reader.
func (s *Service) Download(ctx context.Context, familyID, id string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, familyID, id)
	if err != nil {
		return Document{}, nil, err
	}
	if !doc.HasFile() {
		return Document{}, nil, ErrNoFile
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, nil, ErrNoFile
		}
		return Document{}, nil, err
	}
	return doc, rc, nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("medicaldocs.file.delete_failed", map[string]any{
			"key":   key,
			"error": err,
		})
	}
}

// CategoryInput carries fields for a new category.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
}

// CreateCategory adds a category. Color defaults to DefaultCategoryColor.
func (s *Service) CreateCategory(ctx context.Context, familyID, userID string, in CategoryInput) (Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultCategoryColor
	}
	now := s.now()
	category := Category{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Categories.Create(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

// ListCategories returns categories sorted by name.
func (s *Service) ListCategories(ctx context.Context, familyID string) ([]Category, error) {
	return s.Categories.List(ctx, familyID)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, familyID, id string) error {
	return s.Categories.Delete(ctx, familyID, id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
