package medicaldocs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"allie-backend/internal/shared/storage/db"
)

const documentColumns = `id, family_id, created_by, title, description, patient_id, category, document_date,
       expiration_date, file_name, file_type, file_size, storage_key, extracted_text, tags, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO medical_documents (
    id, family_id, created_by, title, description, patient_id, category, document_date,
    expiration_date, file_name, file_type, file_size, storage_key, extracted_text, tags, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.FamilyID,
		doc.CreatedBy,
		doc.Title,
		nullableString(doc.Description),
		nullableString(doc.PatientID),
		nullableString(doc.Category),
		doc.Date,
		nullableTime(doc.ExpirationDate),
		nullableString(doc.FileName),
		nullableString(doc.FileType),
		doc.FileSize,
		nullableString(doc.StorageKey),
		nullableString(doc.ExtractedText),
		db.JSONList[string](doc.Tags),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Update writes the editable metadata of a document.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE medical_documents
SET title = $1, description = $2, patient_id = $3, category = $4, document_date = $5,
    expiration_date = $6, tags = $7, updated_at = $8
WHERE family_id = $9 AND id = $10`
	res, err := r.DB.ExecContext(ctx, query,
		doc.Title,
		nullableString(doc.Description),
		nullableString(doc.PatientID),
		nullableString(doc.Category),
		doc.Date,
		nullableTime(doc.ExpirationDate),
		db.JSONList[string](doc.Tags),
		doc.UpdatedAt,
		doc.FamilyID,
		doc.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a document within a family.
func (r *PGRepo) GetByID(ctx context.Context, familyID, id string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM medical_documents
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

// List returns documents matching filter, newest date first.
func (r *PGRepo) List(ctx context.Context, familyID string, filter Filter) ([]Document, error) {
	var (
		where = []string{"family_id = $1"}
		args  = []any{familyID}
	)
	if category := filter.category(); category != "" {
		args = append(args, category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if patientID := filter.patientID(); patientID != "" {
		args = append(args, patientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(title ILIKE $%[1]d OR description ILIKE $%[1]d OR extracted_text ILIKE $%[1]d"+
				" OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS tag WHERE tag ILIKE $%[1]d))", n))
	}

	query := `SELECT ` + documentColumns + `
FROM medical_documents
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY document_date DESC, created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
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
func (r *PGRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM medical_documents WHERE family_id = $1 AND id = $2`, familyID, id)
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

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var description, patientID, category sql.NullString
	var fileName, fileType, storageKey, extracted sql.NullString
	var expiration sql.NullTime
	var tags db.JSONList[string]
	if err := row.Scan(
		&doc.ID,
		&doc.FamilyID,
		&doc.CreatedBy,
		&doc.Title,
		&description,
		&patientID,
		&category,
		&doc.Date,
		&expiration,
		&fileName,
		&fileType,
		&doc.FileSize,
		&storageKey,
		&extracted,
		&tags,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Description = description.String
	doc.PatientID = patientID.String
	doc.Category = category.String
	doc.FileName = fileName.String
	doc.FileType = fileType.String
	doc.StorageKey = storageKey.String
	doc.ExtractedText = extracted.String
	doc.Tags = []string(tags)
	if expiration.Valid {
		doc.ExpirationDate = &expiration.Time
	}
	return doc, nil
}

// PGCategoryRepo implements CategoryRepo using Postgres.
type PGCategoryRepo struct {
	DB *sql.DB
}

// Create inserts a category.
func (r *PGCategoryRepo) Create(ctx context.Context, c Category) error {
	const query = `
INSERT INTO medical_document_categories (id, family_id, name, description, color, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.FamilyID, c.Name, nullableString(c.Description), c.Color, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return err
}

// List returns categories sorted by name.
func (r *PGCategoryRepo) List(ctx context.Context, familyID string) ([]Category, error) {
	const query = `
SELECT id, family_id, name, description, color, created_by, created_at, updated_at
FROM medical_document_categories
WHERE family_id = $1
ORDER BY lower(name) ASC`
	rows, err := r.DB.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.FamilyID, &c.Name, &description, &c.Color, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Description = description.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a category. Documents keep their category label.
func (r *PGCategoryRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM medical_document_categories WHERE family_id = $1 AND id = $2`, familyID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
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
	_ Repo         = (*PGRepo)(nil)
	_ CategoryRepo = (*PGCategoryRepo)(nil)
)
