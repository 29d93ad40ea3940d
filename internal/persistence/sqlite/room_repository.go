package sqlite

import (
	"context"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// UpsertRoom inserts or replaces a room catalog entry. Catalog ownership sits
// with an external collaborator; this is its write path and the test seed hook.
func (r *RoomRepository) UpsertRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	query := `
		INSERT INTO rooms (id, name, capacity, required_supervisors, required_observers, can_add_observer, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			capacity = excluded.capacity,
			required_supervisors = excluded.required_supervisors,
			required_observers = excluded.required_observers,
			can_add_observer = excluded.can_add_observer,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.RequiredSupervisors,
		room.RequiredObservers,
		boolToInt(room.CanAddObserver),
		string(room.Status),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	query := `
		SELECT id, name, capacity, required_supervisors, required_observers, can_add_observer, status, created_at, updated_at
		FROM rooms WHERE id = ?
	`
	return scanRoom(r.pool.DB().QueryRowContext(ctx, query, id))
}

// ListRooms returns every room ordered by id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := `
		SELECT id, name, capacity, required_supervisors, required_observers, can_add_observer, status, created_at, updated_at
		FROM rooms ORDER BY id
	`
	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room             persistence.Room
		canAdd           int
		status           string
		created, updated string
	)
	err := row.Scan(&room.ID, &room.Name, &room.Capacity, &room.RequiredSupervisors, &room.RequiredObservers, &canAdd, &status, &created, &updated)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	room.CanAddObserver = canAdd != 0
	room.Status = persistence.RoomStatus(status)
	if room.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
