package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// storage instance for integration-style persistence tests.
type SQLiteHarness struct {
	Store *sqlite.Store

	Staff    persistence.StaffRepository
	Rooms    persistence.RoomRepository
	Plans    persistence.PlanRepository
	History  persistence.HistoryStore
	Absences persistence.AbsenceLog

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "assignments.db")

	store, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:    store,
		Staff:    store,
		Rooms:    store,
		Plans:    store,
		History:  store,
		Absences: store,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedStaff upserts the supplied staff fixtures into the harness store.
func (h *SQLiteHarness) SeedStaff(tb testing.TB, fixtures ...StaffFixture) {
	tb.Helper()
	ctx := context.Background()
	for _, f := range fixtures {
		if err := h.Store.UpsertStaff(ctx, f.Persistence()); err != nil {
			tb.Fatalf("failed to seed staff %s: %v", f.ID, err)
		}
	}
}

// SeedRooms upserts the supplied room fixtures into the harness store.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, fixtures ...RoomFixture) {
	tb.Helper()
	ctx := context.Background()
	for _, f := range fixtures {
		if err := h.Store.UpsertRoom(ctx, f.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %s: %v", f.ID, err)
		}
	}
}
