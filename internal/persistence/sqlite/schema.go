package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema steps. PRAGMA user_version tracks the
// last applied step, so adding a statement slice here is the whole upgrade
// procedure.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS staff (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('supervisor', 'observer')),
			rank TEXT NOT NULL CHECK (rank IN ('college_employee', 'external_employee')),
			status TEXT NOT NULL CHECK (status IN ('active', 'suspended', 'deleted')),
			consecutive_absences INTEGER NOT NULL DEFAULT 0 CHECK (consecutive_absences >= 0),
			last_absence_date TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL CHECK (capacity > 0),
			required_supervisors INTEGER NOT NULL CHECK (required_supervisors >= 0),
			required_observers INTEGER NOT NULL CHECK (required_observers >= 0),
			can_add_observer INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL CHECK (status IN ('available', 'unavailable')),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plans (
			date TEXT NOT NULL,
			period TEXT NOT NULL CHECK (period IN ('morning', 'evening')),
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (date, period)
		)`,
		`CREATE TABLE IF NOT EXISTS room_assignments (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			period TEXT NOT NULL,
			room_id TEXT NOT NULL REFERENCES rooms(id),
			supervisor_id TEXT REFERENCES staff(id),
			type TEXT NOT NULL CHECK (type IN ('automatic', 'manual', 'temporary')),
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (date, period) REFERENCES plans(date, period) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS assignment_observers (
			assignment_id TEXT NOT NULL REFERENCES room_assignments(id) ON DELETE CASCADE,
			observer_id TEXT NOT NULL REFERENCES staff(id),
			position INTEGER NOT NULL,
			PRIMARY KEY (assignment_id, observer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS history_records (
			id TEXT PRIMARY KEY,
			staff_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			date TEXT NOT NULL,
			period TEXT NOT NULL,
			role TEXT NOT NULL,
			UNIQUE (staff_id, room_id, date, period, role)
		)`,
		`CREATE TABLE IF NOT EXISTS interaction_records (
			supervisor_id TEXT NOT NULL,
			observer_id TEXT NOT NULL,
			date TEXT NOT NULL,
			room_id TEXT NOT NULL,
			count INTEGER NOT NULL CHECK (count > 0),
			PRIMARY KEY (supervisor_id, observer_id, date, room_id)
		)`,
		`CREATE TABLE IF NOT EXISTS absence_events (
			id TEXT PRIMARY KEY,
			assignment_id TEXT NOT NULL,
			staff_id TEXT NOT NULL,
			role TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL CHECK (action IN ('absence_only', 'auto_replacement', 'manual_replacement')),
			replacement_id TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_records_date ON history_records(date)`,
		`CREATE INDEX IF NOT EXISTS idx_interaction_records_date ON interaction_records(date)`,
		`CREATE INDEX IF NOT EXISTS idx_absence_events_slot ON absence_events(assignment_id, staff_id, role, recorded_at)`,
	},
}

// Migrate brings the schema up to the current version.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	var version int
	if err := pool.DB().QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for next := version; next < len(migrations); next++ {
		step := migrations[next]
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range step {
				if _, err := tx.Exec(statement); err != nil {
					return fmt.Errorf("apply migration %d: %w", next+1, err)
				}
			}
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next+1)); err != nil {
				return fmt.Errorf("record migration %d: %w", next+1, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
