package families

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a family. A second family for the same owner is rejected.
func (r *PGRepo) Create(ctx context.Context, family Family) error {
	const query = `
INSERT INTO families (id, name, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, family.ID, family.Name, family.OwnerID, family.CreatedAt, family.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

// GetByOwner returns the family owned by a user.
func (r *PGRepo) GetByOwner(ctx context.Context, ownerID string) (Family, error) {
	const query = `
SELECT id, name, owner_id, created_at, updated_at
FROM families
WHERE owner_id = $1
LIMIT 1`
	return r.scanFamily(r.DB.QueryRowContext(ctx, query, ownerID))
}

// GetByID returns a family by id.
func (r *PGRepo) GetByID(ctx context.Context, familyID string) (Family, error) {
	const query = `
SELECT id, name, owner_id, created_at, updated_at
FROM families
WHERE id = $1
LIMIT 1`
	return r.scanFamily(r.DB.QueryRowContext(ctx, query, familyID))
}

func (r *PGRepo) scanFamily(row *sql.Row) (Family, error) {
	var family Family
	err := row.Scan(&family.ID, &family.Name, &family.OwnerID, &family.CreatedAt, &family.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Family{}, ErrNotFound
		}
		return Family{}, err
	}
	return family, nil
}

// AddMember inserts a family member.
func (r *PGRepo) AddMember(ctx context.Context, member Member) error {
	const query = `
INSERT INTO family_members (id, family_id, name, relationship, birth_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	var relationship sql.NullString
	if member.Relationship != "" {
		relationship = sql.NullString{String: member.Relationship, Valid: true}
	}
	var birthDate sql.NullTime
	if member.BirthDate != nil {
		birthDate = sql.NullTime{Time: *member.BirthDate, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, member.ID, member.FamilyID, member.Name, relationship, birthDate, member.CreatedAt)
	return err
}

// ListMembers returns a family's members sorted by name.
func (r *PGRepo) ListMembers(ctx context.Context, familyID string) ([]Member, error) {
	const query = `
SELECT id, family_id, name, relationship, birth_date, created_at
FROM family_members
WHERE family_id = $1
ORDER BY lower(name) ASC`
	rows, err := r.DB.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		var member Member
		var relationship sql.NullString
		var birthDate sql.NullTime
		if err := rows.Scan(&member.ID, &member.FamilyID, &member.Name, &relationship, &birthDate, &member.CreatedAt); err != nil {
			return nil, err
		}
		if relationship.Valid {
			member.Relationship = relationship.String
		}
		if birthDate.Valid {
			member.BirthDate = &birthDate.Time
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

// DeleteMember removes a family member.
func (r *PGRepo) DeleteMember(ctx context.Context, familyID, memberID string) error {
	const query = `DELETE FROM family_members WHERE family_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, familyID, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
