package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/example/exam-assignment/internal/persistence"
)

// mapError translates driver errors into persistence sentinels so callers
// never depend on SQLite error strings.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		return persistence.ErrForeignKeyViolation
	case strings.Contains(message, "CHECK constraint failed"),
		strings.Contains(message, "NOT NULL constraint failed"):
		return persistence.ErrConstraintViolation
	}
	return err
}
