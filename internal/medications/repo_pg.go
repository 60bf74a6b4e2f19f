package medications

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"allie-backend/internal/shared/storage/db"
)

const medicationColumns = `id, family_id, family_member_id, name, dosage, instructions, prescribed_by, start_date, end_date,
       is_active, refill_info, side_effects, related_events, created_at, updated_at`

// PGMedicationRepo implements MedicationRepo using Postgres.
type PGMedicationRepo struct {
	DB *sql.DB
}

// Create inserts a medication.
func (r *PGMedicationRepo) Create(ctx context.Context, m Medication) error {
	const query = `
INSERT INTO medications (
    id, family_id, family_member_id, name, dosage, instructions, prescribed_by, start_date, end_date,
    is_active, refill_info, side_effects, related_events, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		m.ID,
		m.FamilyID,
		m.FamilyMemberID,
		m.Name,
		m.Dosage,
		nullableString(m.Instructions),
		nullableString(m.PrescribedBy),
		m.StartDate,
		nullableTime(m.EndDate),
		m.IsActive,
		nullableString(m.RefillInfo),
		db.JSONList[string](m.SideEffects),
		db.JSONList[string](m.RelatedEvents),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// Update writes every editable column of a medication.
func (r *PGMedicationRepo) Update(ctx context.Context, m Medication) error {
	const query = `
UPDATE medications
SET family_member_id = $1, name = $2, dosage = $3, instructions = $4, prescribed_by = $5, start_date = $6,
    end_date = $7, is_active = $8, refill_info = $9, side_effects = $10, related_events = $11, updated_at = $12
WHERE family_id = $13 AND id = $14`
	res, err := r.DB.ExecContext(ctx, query,
		m.FamilyMemberID,
		m.Name,
		m.Dosage,
		nullableString(m.Instructions),
		nullableString(m.PrescribedBy),
		m.StartDate,
		nullableTime(m.EndDate),
		m.IsActive,
		nullableString(m.RefillInfo),
		db.JSONList[string](m.SideEffects),
		db.JSONList[string](m.RelatedEvents),
		m.UpdatedAt,
		m.FamilyID,
		m.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a medication within a family.
func (r *PGMedicationRepo) GetByID(ctx context.Context, familyID, id string) (Medication, error) {
	query := `SELECT ` + medicationColumns + `
FROM medications
WHERE family_id = $1 AND id = $2
LIMIT 1`
	m, err := scanMedication(r.DB.QueryRowContext(ctx, query, familyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, err
	}
	return m, nil
}

// ListByMember returns medications sorted by name.
func (r *PGMedicationRepo) ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Medication, error) {
	query := `SELECT ` + medicationColumns + `
FROM medications
WHERE family_id = $1
  AND ($2 = '' OR family_member_id = $2)
  AND (NOT $3 OR is_active)
ORDER BY lower(name) ASC, created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, familyID, memberID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a medication.
func (r *PGMedicationRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM medications WHERE family_id = $1 AND id = $2`, familyID, id)
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

func scanMedication(row rowScanner) (Medication, error) {
	var m Medication
	var instructions, prescribedBy, refillInfo sql.NullString
	var endDate sql.NullTime
	var sideEffects, related db.JSONList[string]
	if err := row.Scan(
		&m.ID,
		&m.FamilyID,
		&m.FamilyMemberID,
		&m.Name,
		&m.Dosage,
		&instructions,
		&prescribedBy,
		&m.StartDate,
		&endDate,
		&m.IsActive,
		&refillInfo,
		&sideEffects,
		&related,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return Medication{}, err
	}
	m.Instructions = instructions.String
	m.PrescribedBy = prescribedBy.String
	m.RefillInfo = refillInfo.String
	m.SideEffects = []string(sideEffects)
	m.RelatedEvents = []string(related)
	if endDate.Valid {
		m.EndDate = &endDate.Time
	}
	return m, nil
}

const scheduleColumns = `id, family_id, medication_id, family_member_id, frequency, times, days_of_week, day_of_month,
       with_food, is_active, created_at, updated_at`

// PGScheduleRepo implements ScheduleRepo using Postgres.
type PGScheduleRepo struct {
	DB *sql.DB
}

// Create inserts a schedule.
func (r *PGScheduleRepo) Create(ctx context.Context, s Schedule) error {
	const query = `
INSERT INTO medication_schedules (
    id, family_id, medication_id, family_member_id, frequency, times, days_of_week, day_of_month,
    with_food, is_active, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.FamilyID,
		s.MedicationID,
		s.FamilyMemberID,
		s.Frequency,
		db.JSONList[string](s.Times),
		db.JSONList[int](s.DaysOfWeek),
		nullableInt(s.DayOfMonth),
		s.WithFood,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

// Update writes every editable column of a schedule.
func (r *PGScheduleRepo) Update(ctx context.Context, s Schedule) error {
	const query = `
UPDATE medication_schedules
SET frequency = $1, times = $2, days_of_week = $3, day_of_month = $4, with_food = $5, is_active = $6,
    family_member_id = $7, updated_at = $8
WHERE family_id = $9 AND id = $10`
	res, err := r.DB.ExecContext(ctx, query,
		s.Frequency,
		db.JSONList[string](s.Times),
		db.JSONList[int](s.DaysOfWeek),
		nullableInt(s.DayOfMonth),
		s.WithFood,
		s.IsActive,
		s.FamilyMemberID,
		s.UpdatedAt,
		s.FamilyID,
		s.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a schedule within a family.
func (r *PGScheduleRepo) GetByID(ctx context.Context, familyID, id string) (Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
FROM medication_schedules
WHERE family_id = $1 AND id = $2
LIMIT 1`
	s, err := scanSchedule(r.DB.QueryRowContext(ctx, query, familyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Schedule{}, ErrNotFound
		}
		return Schedule{}, err
	}
	return s, nil
}

// ListByMedication returns a medication's schedules, oldest first.
func (r *PGScheduleRepo) ListByMedication(ctx context.Context, familyID, medicationID string, activeOnly bool) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
FROM medication_schedules
WHERE family_id = $1 AND medication_id = $2 AND (NOT $3 OR is_active)
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, familyID, medicationID, activeOnly)
}

// ListByMember returns a member's schedules, oldest first.
func (r *PGScheduleRepo) ListByMember(ctx context.Context, familyID, memberID string, activeOnly bool) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
FROM medication_schedules
WHERE family_id = $1 AND family_member_id = $2 AND (NOT $3 OR is_active)
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, familyID, memberID, activeOnly)
}

// ListActive returns every active schedule.
func (r *PGScheduleRepo) ListActive(ctx context.Context) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
FROM medication_schedules
WHERE is_active
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *PGScheduleRepo) list(ctx context.Context, query string, args ...any) ([]Schedule, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a schedule.
func (r *PGScheduleRepo) Delete(ctx context.Context, familyID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM medication_schedules WHERE family_id = $1 AND id = $2`, familyID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByMedication removes every schedule of a medication.
func (r *PGScheduleRepo) DeleteByMedication(ctx context.Context, familyID, medicationID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM medication_schedules WHERE family_id = $1 AND medication_id = $2`, familyID, medicationID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanSchedule(row rowScanner) (Schedule, error) {
	var s Schedule
	var times db.JSONList[string]
	var days db.JSONList[int]
	var dayOfMonth sql.NullInt64
	if err := row.Scan(
		&s.ID,
		&s.FamilyID,
		&s.MedicationID,
		&s.FamilyMemberID,
		&s.Frequency,
		&times,
		&days,
		&dayOfMonth,
		&s.WithFood,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return Schedule{}, err
	}
	s.Times = []string(times)
	s.DaysOfWeek = []int(days)
	if dayOfMonth.Valid {
		d := int(dayOfMonth.Int64)
		s.DayOfMonth = &d
	}
	return s, nil
}

// PGLogRepo implements LogRepo using Postgres.
type PGLogRepo struct {
	DB *sql.DB
}

// Create inserts a log entry.
func (r *PGLogRepo) Create(ctx context.Context, l Log) error {
	const query = `
INSERT INTO medication_logs (
    id, family_id, medication_id, schedule_id, family_member_id, taken_at, status, reason, notes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		l.ID,
		l.FamilyID,
		l.MedicationID,
		nullableString(l.ScheduleID),
		l.FamilyMemberID,
		l.Timestamp,
		l.Status,
		nullableString(l.Reason),
		nullableString(l.Notes),
		l.CreatedAt,
	)
	return err
}

// ListByMember returns logs in [start, end], newest first.
func (r *PGLogRepo) ListByMember(ctx context.Context, familyID, memberID string, start, end time.Time) ([]Log, error) {
	const query = `
SELECT id, family_id, medication_id, schedule_id, family_member_id, taken_at, status, reason, notes, created_at
FROM medication_logs
WHERE family_id = $1 AND family_member_id = $2 AND taken_at >= $3 AND taken_at <= $4
ORDER BY taken_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, familyID, memberID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Log{}
	for rows.Next() {
		var l Log
		var scheduleID, reason, notes sql.NullString
		if err := rows.Scan(
			&l.ID,
			&l.FamilyID,
			&l.MedicationID,
			&scheduleID,
			&l.FamilyMemberID,
			&l.Timestamp,
			&l.Status,
			&reason,
			&notes,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		l.ScheduleID = scheduleID.String
		l.Reason = reason.String
		l.Notes = notes.String
		out = append(out, l)
	}
	return out, rows.Err()
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

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

var (
	_ MedicationRepo = (*PGMedicationRepo)(nil)
	_ ScheduleRepo   = (*PGScheduleRepo)(nil)
	_ LogRepo        = (*PGLogRepo)(nil)
)
