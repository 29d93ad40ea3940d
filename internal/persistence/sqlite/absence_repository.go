package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// AbsenceRepository implements persistence.AbsenceLog using SQLite. The table
// is append-only; events are never updated or deleted.
type AbsenceRepository struct {
	pool *ConnectionPool
}

// NewAbsenceRepository creates a new SQLite absence repository.
func NewAbsenceRepository(pool *ConnectionPool) *AbsenceRepository {
	return &AbsenceRepository{pool: pool}
}

// AppendAbsence appends an event to the audit trail.
func (r *AbsenceRepository) AppendAbsence(ctx context.Context, event persistence.AbsenceEvent) error {
	var replacementID sql.NullString
	if event.ReplacementID != nil {
		replacementID = sql.NullString{String: *event.ReplacementID, Valid: true}
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO absence_events (id, assignment_id, staff_id, role, reason, action, replacement_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.AssignmentID,
		event.StaffID,
		string(event.Role),
		event.Reason,
		string(event.Action),
		replacementID,
		formatTime(event.RecordedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// FindAbsence returns the most recent event for the slot.
func (r *AbsenceRepository) FindAbsence(ctx context.Context, assignmentID, staffID string, role planner.Role) (persistence.AbsenceEvent, error) {
	return scanAbsence(r.pool.DB().QueryRowContext(ctx, `
		SELECT id, assignment_id, staff_id, role, reason, action, replacement_id, recorded_at
		FROM absence_events
		WHERE assignment_id = ? AND staff_id = ? AND role = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1
	`, assignmentID, staffID, string(role)))
}

// ListAbsences returns every event recorded against the assignment in order.
func (r *AbsenceRepository) ListAbsences(ctx context.Context, assignmentID string) ([]persistence.AbsenceEvent, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, assignment_id, staff_id, role, reason, action, replacement_id, recorded_at
		FROM absence_events WHERE assignment_id = ?
		ORDER BY recorded_at, id
	`, assignmentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	events := make([]persistence.AbsenceEvent, 0)
	for rows.Next() {
		event, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanAbsence(row rowScanner) (persistence.AbsenceEvent, error) {
	var (
		event         persistence.AbsenceEvent
		role, action  string
		replacementID sql.NullString
		recorded      string
	)
	err := row.Scan(&event.ID, &event.AssignmentID, &event.StaffID, &role, &event.Reason, &action, &replacementID, &recorded)
	if err != nil {
		return persistence.AbsenceEvent{}, mapError(err)
	}
	event.Role = planner.Role(role)
	event.Action = persistence.AbsenceAction(action)
	if replacementID.Valid {
		id := replacementID.String
		event.ReplacementID = &id
	}
	if event.RecordedAt, err = parseTime(recorded); err != nil {
		return persistence.AbsenceEvent{}, err
	}
	return event, nil
}
