package sqlite

import (
	"context"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// HistoryRepository implements persistence.HistoryStore using SQLite. Writes
// happen inside plan transactions (see PlanRepository); this type covers the
// windowed reads the rule set consumes.
type HistoryRepository struct {
	pool *ConnectionPool
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(pool *ConnectionPool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// RoomVisitsSince returns history rows with a date on or after since.
func (r *HistoryRepository) RoomVisitsSince(ctx context.Context, since time.Time) ([]persistence.HistoryRecord, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, staff_id, room_id, date, period, role
		FROM history_records WHERE date >= ? ORDER BY id
	`, formatDate(since))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	records := make([]persistence.HistoryRecord, 0)
	for rows.Next() {
		var (
			record       persistence.HistoryRecord
			date, period string
			role         string
		)
		if err := rows.Scan(&record.ID, &record.StaffID, &record.RoomID, &date, &period, &role); err != nil {
			return nil, mapError(err)
		}
		if record.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		record.Period = planner.Period(period)
		record.Role = planner.Role(role)
		records = append(records, record)
	}
	return records, rows.Err()
}

// PairingsSince returns interaction rows with a date on or after since.
func (r *HistoryRepository) PairingsSince(ctx context.Context, since time.Time) ([]persistence.InteractionRecord, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT supervisor_id, observer_id, date, room_id, count
		FROM interaction_records WHERE date >= ?
		ORDER BY supervisor_id, observer_id, date, room_id
	`, formatDate(since))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	records := make([]persistence.InteractionRecord, 0)
	for rows.Next() {
		var (
			record persistence.InteractionRecord
			date   string
		)
		if err := rows.Scan(&record.SupervisorID, &record.ObserverID, &date, &record.RoomID, &record.Count); err != nil {
			return nil, mapError(err)
		}
		if record.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AssignmentCounts returns per-staff history row counts for dates in [from, to].
func (r *HistoryRepository) AssignmentCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT staff_id, COUNT(*) FROM history_records
		WHERE date >= ? AND date <= ?
		GROUP BY staff_id
	`, formatDate(from), formatDate(to))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			staffID string
			count   int
		)
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, mapError(err)
		}
		counts[staffID] = count
	}
	return counts, rows.Err()
}
