package insurance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"allie-backend/internal/shared/storage/db"
)

const planColumns = `id, family_id, provider, plan_name, policy_number, group_number, member_id, coverage_type,
       primary_holder, phone_number, website, effective_date, expiration_date, covered_members, notes,
       created_by, updated_by, created_at, updated_at`

// PGPlanRepo implements PlanRepo using Postgres.
type PGPlanRepo struct {
	DB *sql.DB
}

// Create inserts a plan.
func (r *PGPlanRepo) Create(ctx context.Context, p Plan) error {
	const query = `
INSERT INTO insurance_plans (
    id, family_id, provider, plan_name, policy_number, group_number, member_id, coverage_type,
    primary_holder, phone_number, website, effective_date, expiration_date, covered_members, notes,
    created_by, updated_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.FamilyID,
		p.Provider,
		nullableString(p.PlanName),
		nullableString(p.PolicyNumber),
		nullableString(p.GroupNumber),
		nullableString(p.MemberID),
		p.CoverageType,
		nullableString(p.PrimaryHolder),
		nullableString(p.PhoneNumber),
		nullableString(p.Website),
		nullableTime(p.EffectiveDate),
		nullableTime(p.ExpirationDate),
		db.JSONList[string](p.CoveredMembers),
		nullableString(p.Notes),
		p.CreatedBy,
		p.UpdatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update writes every editable column of a plan.
func (r *PGPlanRepo) Update(ctx context.Context, p Plan) error {
	const query = `
UPDATE insurance_plans
SET provider = $1, plan_name = $2, policy_number = $3, group_number = $4, member_id = $5,
    coverage_type = $6, primary_holder = $7, phone_number = $8, website = $9, effective_date = $10,
    expiration_date = $11, covered_members = $12, notes = $13, updated_by = $14, updated_at = $15
WHERE family_id = $16 AND id = $17`
	res, err := r.DB.ExecContext(ctx, query,
		p.Provider,
		nullableString(p.PlanName),
		nullableString(p.PolicyNumber),
		nullableString(p.GroupNumber),
		nullableString(p.MemberID),
		p.CoverageType,
		nullableString(p.PrimaryHolder),
		nullableString(p.PhoneNumber),
		nullableString(p.Website),
		nullableTime(p.EffectiveDate),
		nullableTime(p.ExpirationDate),
		db.JSONList[string](p.CoveredMembers),
		nullableString(p.Notes),
		p.UpdatedBy,
		p.UpdatedAt,
		p.FamilyID,
		p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a plan within a family.
func (r *PGPlanRepo) GetByID(ctx context.Context, familyID, id string) (Plan, error) {
	query := `SELECT ` + planColumns + `
FROM insurance_plans
WHERE family_id = $1 AND id = $2
LIMIT 1`
	plan, err := scanPlan(r.DB.QueryRowContext(ctx, query, familyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	return plan, nil
}

// List returns plans sorted by provider.
func (r *PGPlanRepo) List(ctx context.Context, familyID string) ([]Plan, error) {
	query := `SELECT ` + planColumns + `
FROM insurance_plans
WHERE family_id = $1
ORDER BY lower(provider) ASC, created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Plan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

// Delete removes a plan.
func (r *PGPlanRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM insurance_plans WHERE family_id = $1 AND id = $2`, familyID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (Plan, error) {
	var p Plan
	var planName, policyNumber, groupNumber, memberID sql.NullString
	var primaryHolder, phone, website, notes sql.NullString
	var effective, expiration sql.NullTime
	var covered db.JSONList[string]
	if err := row.Scan(
		&p.ID,
		&p.FamilyID,
		&p.Provider,
		&planName,
		&policyNumber,
		&groupNumber,
		&memberID,
		&p.CoverageType,
		&primaryHolder,
		&phone,
		&website,
		&effective,
		&expiration,
		&covered,
		&notes,
		&p.CreatedBy,
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Plan{}, err
	}
	p.PlanName = planName.String
	p.PolicyNumber = policyNumber.String
	p.GroupNumber = groupNumber.String
	p.MemberID = memberID.String
	p.PrimaryHolder = primaryHolder.String
	p.PhoneNumber = phone.String
	p.Website = website.String
	p.Notes = notes.String
	p.CoveredMembers = []string(covered)
	if effective.Valid {
		p.EffectiveDate = &effective.Time
	}
	if expiration.Valid {
		p.ExpirationDate = &expiration.Time
	}
	return p, nil
}

const documentColumns = `id, family_id, plan_id, member_id, name, description, document_type, expiration_date,
       file_name, file_type, file_size, storage_key, created_by, created_at, updated_at`

// PGDocumentRepo implements DocumentRepo using Postgres.
type PGDocumentRepo struct {
	DB *sql.DB
}

// Create inserts a document.
func (r *PGDocumentRepo) Create(ctx context.Context, d Document) error {
	const query = `
INSERT INTO insurance_documents (
    id, family_id, plan_id, member_id, name, description, document_type, expiration_date,
    file_name, file_type, file_size, storage_key, created_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.FamilyID,
		d.PlanID,
		nullableString(d.MemberID),
		d.Name,
		nullableString(d.Description),
		d.DocumentType,
		nullableTime(d.ExpirationDate),
		nullableString(d.FileName),
		nullableString(d.FileType),
		d.FileSize,
		nullableString(d.StorageKey),
		d.CreatedBy,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

// GetByID fetches a document within a family.
func (r *PGDocumentRepo) GetByID(ctx context.Context, familyID, id string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM insurance_documents
WHERE family_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, familyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByPlan returns a plan's documents, newest first.
func (r *PGDocumentRepo) ListByPlan(ctx context.Context, familyID, planID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + `
FROM insurance_documents
WHERE family_id = $1 AND plan_id = $2
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, familyID, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a document.
func (r *PGDocumentRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM insurance_documents WHERE family_id = $1 AND id = $2`, familyID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByPlan removes every document attached to a plan.
func (r *PGDocumentRepo) DeleteByPlan(ctx context.Context, familyID, planID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM insurance_documents WHERE family_id = $1 AND plan_id = $2`, familyID, planID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var memberID, description, fileName, fileType, storageKey sql.NullString
	var expiration sql.NullTime
	if err := row.Scan(
		&d.ID,
		&d.FamilyID,
		&d.PlanID,
		&memberID,
		&d.Name,
		&description,
		&d.DocumentType,
		&expiration,
		&fileName,
		&fileType,
		&d.FileSize,
		&storageKey,
		&d.CreatedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	d.MemberID = memberID.String
	d.Description = description.String
	d.FileName = fileName.String
	d.FileType = fileType.String
	d.StorageKey = storageKey.String
	if expiration.Valid {
		d.ExpirationDate = &expiration.Time
	}
	return d, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

var (
	_ PlanRepo     = (*PGPlanRepo)(nil)
	_ DocumentRepo = (*PGDocumentRepo)(nil)
)
