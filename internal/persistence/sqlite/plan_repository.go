package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// PlanRepository implements persistence.PlanRepository using SQLite. Plan
// mutations and their history/interaction bookkeeping always commit in one
// transaction.
type PlanRepository struct {
	pool *ConnectionPool
}

// NewPlanRepository creates a new SQLite plan repository.
func NewPlanRepository(pool *ConnectionPool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// SavePlan upserts the plan for its (date, period). Existing room assignments
// for the key are replaced; history rows and interaction counters only
// accumulate, so re-planning a key never duplicates bookkeeping.
func (r *PlanRepository) SavePlan(ctx context.Context, plan persistence.AssignmentPlan, history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) error {
	date := formatDate(plan.Date)
	period := string(plan.Period)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO plans (date, period, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (date, period) DO UPDATE SET
				status = excluded.status,
				updated_at = excluded.updated_at
		`, date, period, string(plan.Status), formatTime(plan.CreatedAt), formatTime(plan.UpdatedAt))
		if err != nil {
			return mapError(err)
		}

		if _, err := tx.Exec(`DELETE FROM room_assignments WHERE date = ? AND period = ?`, date, period); err != nil {
			return mapError(err)
		}

		for _, assignment := range plan.Assignments {
			if err := insertAssignment(tx, assignment); err != nil {
				return err
			}
		}

		return applyBookkeeping(tx, history, interactions)
	})
}

// GetPlan retrieves the plan for a (date, period) with its assignments.
func (r *PlanRepository) GetPlan(ctx context.Context, date time.Time, period planner.Period) (persistence.AssignmentPlan, error) {
	day := formatDate(date)

	var (
		plan             persistence.AssignmentPlan
		status           string
		created, updated string
	)
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT status, created_at, updated_at FROM plans WHERE date = ? AND period = ?`,
		day, string(period),
	).Scan(&status, &created, &updated)
	if err != nil {
		return persistence.AssignmentPlan{}, mapError(err)
	}

	plan.Date = planner.NormalizeDate(date)
	plan.Period = period
	plan.Status = planner.AssignmentStatus(status)
	if plan.CreatedAt, err = parseTime(created); err != nil {
		return persistence.AssignmentPlan{}, err
	}
	if plan.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.AssignmentPlan{}, err
	}

	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, date, period, room_id, supervisor_id, type, status, created_at, updated_at
		FROM room_assignments WHERE date = ? AND period = ? ORDER BY room_id
	`, day, string(period))
	if err != nil {
		return persistence.AssignmentPlan{}, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return persistence.AssignmentPlan{}, err
		}
		plan.Assignments = append(plan.Assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return persistence.AssignmentPlan{}, mapError(err)
	}

	for i := range plan.Assignments {
		observers, err := r.loadObservers(ctx, plan.Assignments[i].ID)
		if err != nil {
			return persistence.AssignmentPlan{}, err
		}
		plan.Assignments[i].ObserverIDs = observers
	}
	return plan, nil
}

// GetAssignment retrieves a single room assignment by id.
func (r *PlanRepository) GetAssignment(ctx context.Context, assignmentID string) (persistence.RoomAssignment, error) {
	assignment, err := scanAssignment(r.pool.DB().QueryRowContext(ctx, `
		SELECT id, date, period, room_id, supervisor_id, type, status, created_at, updated_at
		FROM room_assignments WHERE id = ?
	`, assignmentID))
	if err != nil {
		return persistence.RoomAssignment{}, err
	}

	observers, err := r.loadObservers(ctx, assignment.ID)
	if err != nil {
		return persistence.RoomAssignment{}, err
	}
	assignment.ObserverIDs = observers
	return assignment, nil
}

// UpdateAssignment replaces one room assignment in place, rederives the plan
// status from its rooms, and applies the bookkeeping in the same transaction.
func (r *PlanRepository) UpdateAssignment(ctx context.Context, assignment persistence.RoomAssignment, history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) error {
	date := formatDate(assignment.Date)
	period := string(assignment.Period)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var supervisorID sql.NullString
		if assignment.SupervisorID != nil {
			supervisorID = sql.NullString{String: *assignment.SupervisorID, Valid: true}
		}

		result, err := tx.Exec(`
			UPDATE room_assignments
			SET supervisor_id = ?, type = ?, status = ?, updated_at = ?
			WHERE id = ?
		`, supervisorID, string(assignment.Type), string(assignment.Status), formatTime(assignment.UpdatedAt), assignment.ID)
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

		if _, err := tx.Exec(`DELETE FROM assignment_observers WHERE assignment_id = ?`, assignment.ID); err != nil {
			return mapError(err)
		}
		if err := insertObservers(tx, assignment.ID, assignment.ObserverIDs); err != nil {
			return err
		}

		if err := rederivePlanStatus(tx, date, period, formatTime(assignment.UpdatedAt)); err != nil {
			return err
		}

		return applyBookkeeping(tx, history, interactions)
	})
}

func insertAssignment(tx *sql.Tx, assignment persistence.RoomAssignment) error {
	var supervisorID sql.NullString
	if assignment.SupervisorID != nil {
		supervisorID = sql.NullString{String: *assignment.SupervisorID, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO room_assignments (id, date, period, room_id, supervisor_id, type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		assignment.ID,
		formatDate(assignment.Date),
		string(assignment.Period),
		assignment.RoomID,
		supervisorID,
		string(assignment.Type),
		string(assignment.Status),
		formatTime(assignment.CreatedAt),
		formatTime(assignment.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return insertObservers(tx, assignment.ID, assignment.ObserverIDs)
}

func insertObservers(tx *sql.Tx, assignmentID string, observerIDs []string) error {
	for position, observerID := range observerIDs {
		_, err := tx.Exec(`
			INSERT INTO assignment_observers (assignment_id, observer_id, position)
			VALUES (?, ?, ?)
		`, assignmentID, observerID, position)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *PlanRepository) loadObservers(ctx context.Context, assignmentID string) ([]string, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT observer_id FROM assignment_observers WHERE assignment_id = ? ORDER BY position
	`, assignmentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	observers := make([]string, 0)
	for rows.Next() {
		var observerID string
		if err := rows.Scan(&observerID); err != nil {
			return nil, mapError(err)
		}
		observers = append(observers, observerID)
	}
	return observers, rows.Err()
}

// rederivePlanStatus recomputes the plan-level status from its room statuses.
func rederivePlanStatus(tx *sql.Tx, date, period, updatedAt string) error {
	rows, err := tx.Query(`SELECT status FROM room_assignments WHERE date = ? AND period = ?`, date, period)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	assignments := make([]persistence.RoomAssignment, 0)
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return mapError(err)
		}
		assignments = append(assignments, persistence.RoomAssignment{Status: planner.AssignmentStatus(status)})
	}
	if err := rows.Err(); err != nil {
		return mapError(err)
	}

	_, err = tx.Exec(
		`UPDATE plans SET status = ?, updated_at = ? WHERE date = ? AND period = ?`,
		string(persistence.DerivePlanStatus(assignments)), updatedAt, date, period,
	)
	return mapError(err)
}

// applyBookkeeping upserts history rows (idempotent on the natural key) and
// increments interaction counters.
func applyBookkeeping(tx *sql.Tx, history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) error {
	for _, record := range history {
		_, err := tx.Exec(`
			INSERT INTO history_records (id, staff_id, room_id, date, period, role)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (staff_id, room_id, date, period, role) DO NOTHING
		`,
			record.ID,
			record.StaffID,
			record.RoomID,
			formatDate(record.Date),
			string(record.Period),
			string(record.Role),
		)
		if err != nil {
			return mapError(err)
		}
	}

	for _, record := range interactions {
		delta := record.Count
		if delta <= 0 {
			delta = 1
		}
		_, err := tx.Exec(`
			INSERT INTO interaction_records (supervisor_id, observer_id, date, room_id, count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (supervisor_id, observer_id, date, room_id)
			DO UPDATE SET count = count + excluded.count
		`,
			record.SupervisorID,
			record.ObserverID,
			formatDate(record.Date),
			record.RoomID,
			delta,
		)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanAssignment(row rowScanner) (persistence.RoomAssignment, error) {
	var (
		assignment       persistence.RoomAssignment
		date, period     string
		supervisorID     sql.NullString
		assignmentType   string
		status           string
		created, updated string
	)
	err := row.Scan(&assignment.ID, &date, &period, &assignment.RoomID, &supervisorID, &assignmentType, &status, &created, &updated)
	if err != nil {
		return persistence.RoomAssignment{}, mapError(err)
	}
	if assignment.Date, err = parseDate(date); err != nil {
		return persistence.RoomAssignment{}, err
	}
	assignment.Period = planner.Period(period)
	if supervisorID.Valid {
		id := supervisorID.String
		assignment.SupervisorID = &id
	}
	assignment.Type = persistence.AssignmentType(assignmentType)
	assignment.Status = planner.AssignmentStatus(status)
	if assignment.CreatedAt, err = parseTime(created); err != nil {
		return persistence.RoomAssignment{}, err
	}
	if assignment.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.RoomAssignment{}, err
	}
	return assignment, nil
}
