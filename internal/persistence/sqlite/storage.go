package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// Store bundles every SQLite-backed repository over one connection pool.
type Store struct {
	pool *ConnectionPool

	*StaffRepository
	*RoomRepository
	*PlanRepository
	*HistoryRepository
	*AbsenceRepository
}

// Open connects to the database and wires the repositories.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:              pool,
		StaffRepository:   NewStaffRepository(pool),
		RoomRepository:    NewRoomRepository(pool),
		PlanRepository:    NewPlanRepository(pool),
		HistoryRepository: NewHistoryRepository(pool),
		AbsenceRepository: NewAbsenceRepository(pool),
	}, nil
}

// Migrate brings the schema up to the current version.
func (s *Store) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Pool exposes the connection pool for tests.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return planner.NormalizeDate(t).Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
