package insurance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"allie-backend/internal/shared/storage/object"
	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/shared/util"
)

// Service contains business logic for insurance plans and their documents.
type Service struct {
	Plans     PlanRepo
	Documents DocumentRepo
	Store     object.ObjectStore
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// PlanInput carries plan fields. On update, nil pointers leave fields unchanged.
type PlanInput struct {
	Provider       *string
	PlanName       *string
	PolicyNumber   *string
	GroupNumber    *string
	MemberID       *string
	CoverageType   *string
	PrimaryHolder  *string
	PhoneNumber    *string
	Website        *string
	EffectiveDate  **time.Time
	ExpirationDate **time.Time
	CoveredMembers *[]string
	Notes          *string
}

// CreatePlan validates and stores a plan. Coverage type defaults to medical.
func (s *Service) CreatePlan(ctx context.Context, familyID, userID string, in PlanInput) (Plan, error) {
	now := s.now()
	plan := Plan{
		ID:           uuid.NewString(),
		FamilyID:     familyID,
		CoverageType: CoverageMedical,
		CreatedBy:    userID,
		UpdatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := applyPlanInput(&plan, in); err != nil {
		return Plan{}, err
	}
	if err := s.Plans.Create(ctx, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// UpdatePlan applies a partial update to a plan.
func (s *Service) UpdatePlan(ctx context.Context, familyID, userID, planID string, in PlanInput) (Plan, error) {
	plan, err := s.Plans.GetByID(ctx, familyID, planID)
	if err != nil {
		return Plan{}, err
	}
	if err := applyPlanInput(&plan, in); err != nil {
		return Plan{}, err
	}
	plan.UpdatedBy = userID
	plan.UpdatedAt = s.now()
	if err := s.Plans.Update(ctx, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func applyPlanInput(plan *Plan, in PlanInput) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&plan.Provider, in.Provider)
	setString(&plan.PlanName, in.PlanName)
	setString(&plan.PolicyNumber, in.PolicyNumber)
	setString(&plan.GroupNumber, in.GroupNumber)
	setString(&plan.MemberID, in.MemberID)
	setString(&plan.PrimaryHolder, in.PrimaryHolder)
	setString(&plan.PhoneNumber, in.PhoneNumber)
	setString(&plan.Website, in.Website)
	setString(&plan.Notes, in.Notes)
	if in.CoverageType != nil {
		coverage := strings.ToLower(strings.TrimSpace(*in.CoverageType))
		if coverage == "" {
			coverage = CoverageMedical
		}
		plan.CoverageType = coverage
	}
	if in.EffectiveDate != nil {
		plan.EffectiveDate = utcPtr(*in.EffectiveDate)
	}
	if in.ExpirationDate != nil {
		plan.ExpirationDate = utcPtr(*in.ExpirationDate)
	}
	if in.CoveredMembers != nil {
		plan.CoveredMembers = util.NormalizeTags(*in.CoveredMembers)
	}

	if plan.Provider == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}
	if _, ok := coverageTypes[plan.CoverageType]; !ok {
		return fmt.Errorf("%w: unknown coverageType %q", ErrInvalidInput, plan.CoverageType)
	}
	if plan.EffectiveDate != nil && plan.ExpirationDate != nil && plan.ExpirationDate.Before(*plan.EffectiveDate) {
		return fmt.Errorf("%w: expirationDate precedes effectiveDate", ErrInvalidInput)
	}
	return nil
}

// GetPlan returns a plan.
func (s *Service) GetPlan(ctx context.Context, familyID, planID string) (Plan, error) {
	return s.Plans.GetByID(ctx, familyID, planID)
}

// ListPlans returns plans sorted by provider.
func (s *Service) ListPlans(ctx context.Context, familyID string) ([]Plan, error) {
	return s.Plans.List(ctx, familyID)
}

// DeletePlan removes the plan, then its documents and their files. Failures
// after the plan is gone are logged and do not fail the call.
func (s *Service) DeletePlan(ctx context.Context, familyID, planID string) error {
	docs, err := s.Documents.ListByPlan(ctx, familyID, planID)
	if err != nil {
		return err
	}
	if err := s.Plans.Delete(ctx, familyID, planID); err != nil {
		return err
	}
	if _, err := s.Documents.DeleteByPlan(ctx, familyID, planID); err != nil {
		telemetry.Warn("insurance.plan.cascade_failed", map[string]any{
			"family_id": familyID,
			"plan_id":   planID,
			"error":     err,
		})
		return nil
	}
	for _, doc := range docs {
		if doc.StorageKey != "" {
			s.removeFile(ctx, doc.StorageKey)
		}
	}
	return nil
}

// DocumentInput carries fields for a new plan document.
type DocumentInput struct {
	MemberID       string
	Name           string
	Description    string
	DocumentType   string
	ExpirationDate *time.Time
}

// File is an optional attachment.
type File struct {
	Name string
	Body io.Reader
}

// CreateDocument attaches a document to a plan in the family.
func (s *Service) CreateDocument(ctx context.Context, familyID, userID, planID string, in DocumentInput, file *File) (Document, error) {
	if _, err := s.Plans.GetByID(ctx, familyID, planID); err != nil {
		return Document{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" && file != nil {
		name = strings.TrimSpace(file.Name)
	}
	if name == "" {
		return Document{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	docType := strings.ToLower(strings.TrimSpace(in.DocumentType))
	if docType == "" {
		docType = DocumentInsuranceCard
	}
	if _, ok := documentTypes[docType]; !ok {
		return Document{}, fmt.Errorf("%w: unknown documentType %q", ErrInvalidInput, docType)
	}

	now := s.now()
	doc := Document{
		ID:             uuid.NewString(),
		FamilyID:       familyID,
		PlanID:         planID,
		MemberID:       strings.TrimSpace(in.MemberID),
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		DocumentType:   docType,
		ExpirationDate: utcPtr(in.ExpirationDate),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if file != nil {
		obj, err := s.Store.Save(ctx, familyID, file.Name, file.Body)
		if err != nil {
			if errors.Is(err, util.ErrInvalidFileName) {
				return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
			}
			return Document{}, fmt.Errorf("store file: %w", err)
		}
		doc.FileName = file.Name
		doc.FileType = obj.ContentType
		doc.FileSize = obj.SizeBytes
		doc.StorageKey = obj.Key
	}

	if err := s.Documents.Create(ctx, doc); err != nil {
		if doc.StorageKey != "" {
			s.removeFile(ctx, doc.StorageKey)
		}
		return Document{}, err
	}
	return doc, nil
}

// ListDocuments returns a plan's documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, familyID, planID string) ([]Document, error) {
	if _, err := s.Plans.GetByID(ctx, familyID, planID); err != nil {
		return nil, err
	}
	return s.Documents.ListByPlan(ctx, familyID, planID)
}

// DeleteDocument removes a document and its file.
func (s *Service) DeleteDocument(ctx context.Context, familyID, docID string) error {
	doc, err := s.Documents.GetByID(ctx, familyID, docID)
	if err != nil {
		return err
	}
	if err := s.Documents.Delete(ctx, familyID, docID); err != nil {
		return err
	}
	if doc.StorageKey != "" {
		s.removeFile(ctx, doc.StorageKey)
	}
	return nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("insurance.file.delete_failed", map[string]any{
			"key":   key,
			"error": err,
		})
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
