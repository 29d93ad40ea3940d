package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// StaffRepository implements persistence.StaffRepository using SQLite.
type StaffRepository struct {
	pool *ConnectionPool
}

// NewStaffRepository creates a new SQLite staff repository.
func NewStaffRepository(pool *ConnectionPool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// UpsertStaff inserts or replaces a roster entry. Roster ownership sits with
// an external collaborator; this is its write path and the test seed hook.
func (r *StaffRepository) UpsertStaff(ctx context.Context, staff persistence.Staff) error {
	if staff.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	lastAbsence := ""
	if !staff.LastAbsenceDate.IsZero() {
		lastAbsence = formatDate(staff.LastAbsenceDate)
	}

	query := `
		INSERT INTO staff (id, name, role, rank, status, consecutive_absences, last_absence_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			rank = excluded.rank,
			status = excluded.status,
			consecutive_absences = excluded.consecutive_absences,
			last_absence_date = excluded.last_absence_date,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		staff.ID,
		staff.Name,
		string(staff.Role),
		string(staff.Rank),
		string(staff.Status),
		staff.ConsecutiveAbsences,
		lastAbsence,
		formatTime(staff.CreatedAt),
		formatTime(staff.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetStaff retrieves a staff member by id.
func (r *StaffRepository) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	query := `
		SELECT id, name, role, rank, status, consecutive_absences, last_absence_date, created_at, updated_at
		FROM staff WHERE id = ?
	`
	return scanStaff(r.pool.DB().QueryRowContext(ctx, query, id))
}

// ListStaff returns all staff of the given role ordered by id.
func (r *StaffRepository) ListStaff(ctx context.Context, role planner.Role) ([]persistence.Staff, error) {
	query := `
		SELECT id, name, role, rank, status, consecutive_absences, last_absence_date, created_at, updated_at
		FROM staff WHERE role = ? ORDER BY id
	`
	rows, err := r.pool.DB().QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	staff := make([]persistence.Staff, 0)
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, member)
	}
	return staff, rows.Err()
}

// UpdateStaffStatus transitions a staff member's status.
func (r *StaffRepository) UpdateStaffStatus(ctx context.Context, id string, status planner.StaffStatus) error {
	query := `UPDATE staff SET status = ?, updated_at = ? WHERE id = ?`
	result, err := r.pool.DB().ExecContext(ctx, query, string(status), formatTime(time.Now()), id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// IncrementAbsences bumps the consecutive-absence counter for the calendar
// day and returns the current value. A day already counted leaves the counter
// untouched, so two absent periods on one date count once.
func (r *StaffRepository) IncrementAbsences(ctx context.Context, id string, date time.Time) (int, error) {
	day := formatDate(date)
	count := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE staff
			SET consecutive_absences = consecutive_absences + 1, last_absence_date = ?, updated_at = ?
			WHERE id = ? AND last_absence_date <> ?`,
			day, formatTime(time.Now()), id, day,
		)
		if err != nil {
			return mapError(err)
		}
		if _, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		err = tx.QueryRow(`SELECT consecutive_absences FROM staff WHERE id = ?`, id).Scan(&count)
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrNotFound
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ResetAbsences zeroes the counter for every listed staff member.
func (r *StaffRepository) ResetAbsences(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTime(time.Now()))
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE staff SET consecutive_absences = 0, last_absence_date = '', updated_at = ?
		WHERE (consecutive_absences > 0 OR last_absence_date <> '') AND id IN (%s)`,
		placeholders,
	)
	if _, err := r.pool.DB().ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (persistence.Staff, error) {
	var (
		staff             persistence.Staff
		role, rank, state string
		lastAbsence       string
		created, updated  string
	)
	err := row.Scan(&staff.ID, &staff.Name, &role, &rank, &state, &staff.ConsecutiveAbsences, &lastAbsence, &created, &updated)
	if err != nil {
		return persistence.Staff{}, mapError(err)
	}
	staff.Role = planner.Role(role)
	staff.Rank = planner.Rank(rank)
	staff.Status = planner.StaffStatus(state)
	if lastAbsence != "" {
		if staff.LastAbsenceDate, err = parseDate(lastAbsence); err != nil {
			return persistence.Staff{}, err
		}
	}
	if staff.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Staff{}, err
	}
	if staff.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Staff{}, err
	}
	return staff, nil
}
