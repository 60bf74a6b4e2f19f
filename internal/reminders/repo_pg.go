package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const insertColumns = `id, family_id, type, title, message, scheduled_for, medication_id, schedule_id, family_member_id,
       is_active, is_acknowledged, status, sent_at, acknowledged_at, created_at`

const reminderColumns = insertColumns + `, delivered_at`

const insertColumnCount = 15

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateBatch inserts reminders with one multi-row statement.
func (r *PGRepo) CreateBatch(ctx context.Context, batch []Reminder) error {
	if len(batch) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reminders (` + insertColumns + `) VALUES `)
	args := make([]any, 0, len(batch)*insertColumnCount)
	for i, rem := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < insertColumnCount; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*insertColumnCount+j+1)
		}
		b.WriteByte(')')
		args = append(args,
			rem.ID,
			rem.FamilyID,
			rem.Type,
			rem.Title,
			rem.Message,
			rem.ScheduledFor,
			nullableString(rem.MedicationID),
			nullableString(rem.ScheduleID),
			nullableString(rem.FamilyMemberID),
			rem.IsActive,
			rem.IsAcknowledged,
			rem.Status,
			nullableTime(rem.SentAt),
			nullableTime(rem.AcknowledgedAt),
			rem.CreatedAt,
		)
	}
	_, err := r.DB.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID fetches a reminder within a family.
func (r *PGRepo) GetByID(ctx context.Context, familyID, id string) (Reminder, error) {
	query := `SELECT ` + reminderColumns + `
FROM reminders
WHERE family_id = $1 AND id = $2
LIMIT 1`
	return r.getOne(ctx, query, familyID, id)
}

// Lookup fetches a reminder by id.
func (r *PGRepo) Lookup(ctx context.Context, id string) (Reminder, error) {
	query := `SELECT ` + reminderColumns + `
FROM reminders
WHERE id = $1
LIMIT 1`
	return r.getOne(ctx, query, id)
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (Reminder, error) {
	rem, err := scanReminder(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, err
	}
	return rem, nil
}

// Update writes the mutable state of a reminder.
func (r *PGRepo) Update(ctx context.Context, rem Reminder) error {
	const query = `
UPDATE reminders
SET is_active = $1, is_acknowledged = $2, status = $3, sent_at = $4, acknowledged_at = $5
WHERE family_id = $6 AND id = $7`
	res, err := r.DB.ExecContext(ctx, query,
		rem.IsActive,
		rem.IsAcknowledged,
		rem.Status,
		nullableTime(rem.SentAt),
		nullableTime(rem.AcknowledgedAt),
		rem.FamilyID,
		rem.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForSchedule removes up to limit medication reminders of a schedule.
func (r *PGRepo) DeleteForSchedule(ctx context.Context, familyID, scheduleID string, limit int) (int, error) {
	const query = `
DELETE FROM reminders
WHERE id IN (
    SELECT id FROM reminders
    WHERE family_id = $1 AND schedule_id = $2 AND type = 'medication'
    LIMIT $3
)`
	return r.deleteBatch(ctx, query, familyID, scheduleID, limit)
}

// DeleteForMedication removes up to limit medication reminders of a medication.
func (r *PGRepo) DeleteForMedication(ctx context.Context, familyID, medicationID string, limit int) (int, error) {
	const query = `
DELETE FROM reminders
WHERE id IN (
    SELECT id FROM reminders
    WHERE family_id = $1 AND medication_id = $2 AND type = 'medication'
    LIMIT $3
)`
	return r.deleteBatch(ctx, query, familyID, medicationID, limit)
}

func (r *PGRepo) deleteBatch(ctx context.Context, query, familyID, id string, limit int) (int, error) {
	res, err := r.DB.ExecContext(ctx, query, familyID, id, limit)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Upcoming returns active medication reminders in [from, to], soonest first.
func (r *PGRepo) Upcoming(ctx context.Context, familyID, memberID string, from, to time.Time) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + `
FROM reminders
WHERE family_id = $1 AND family_member_id = $2 AND type = 'medication' AND is_active
  AND scheduled_for >= $3 AND scheduled_for <= $4
ORDER BY scheduled_for ASC, id ASC`
	return r.list(ctx, query, familyID, memberID, from, to)
}

// Due returns active scheduled reminders with scheduledFor <= now.
func (r *PGRepo) Due(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + `
FROM reminders
WHERE status = 'scheduled' AND is_active AND scheduled_for <= $1
ORDER BY scheduled_for ASC, id ASC
LIMIT $2`
	return r.list(ctx, query, now, limit)
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// LatestForSchedule returns the last scheduledFor of a schedule's reminders.
func (r *PGRepo) LatestForSchedule(ctx context.Context, familyID, scheduleID string) (*time.Time, error) {
	const query = `
SELECT max(scheduled_for)
FROM reminders
WHERE family_id = $1 AND schedule_id = $2 AND type = 'medication'`
	var latest sql.NullTime
	if err := r.DB.QueryRowContext(ctx, query, familyID, scheduleID).Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// MarkSent moves an active scheduled reminder to sent.
func (r *PGRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
UPDATE reminders
SET status = 'sent', sent_at = $1
WHERE id = $2 AND status = 'scheduled' AND is_active`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkDelivered stamps delivered_at once.
func (r *PGRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
UPDATE reminders
SET delivered_at = $1
WHERE id = $2 AND delivered_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Unclaim returns a sent reminder to scheduled.
func (r *PGRepo) Unclaim(ctx context.Context, id string) error {
	const query = `
UPDATE reminders
SET status = 'scheduled', sent_at = NULL
WHERE id = $1 AND status = 'sent' AND delivered_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var rem Reminder
	var medicationID, scheduleID, memberID sql.NullString
	var sentAt, acknowledgedAt, deliveredAt sql.NullTime
	if err := row.Scan(
		&rem.ID,
		&rem.FamilyID,
		&rem.Type,
		&rem.Title,
		&rem.Message,
		&rem.ScheduledFor,
		&medicationID,
		&scheduleID,
		&memberID,
		&rem.IsActive,
		&rem.IsAcknowledged,
		&rem.Status,
		&sentAt,
		&acknowledgedAt,
		&rem.CreatedAt,
		&deliveredAt,
	); err != nil {
		return Reminder{}, err
	}
	rem.MedicationID = medicationID.String
	rem.ScheduleID = scheduleID.String
	rem.FamilyMemberID = memberID.String
	if sentAt.Valid {
		rem.SentAt = &sentAt.Time
	}
	if acknowledgedAt.Valid {
		rem.AcknowledgedAt = &acknowledgedAt.Time
	}
	if deliveredAt.Valid {
		rem.DeliveredAt = &deliveredAt.Time
	}
	return rem, nil
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

var _ Repo = (*PGRepo)(nil)
