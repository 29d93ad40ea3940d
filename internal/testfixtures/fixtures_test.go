package testfixtures

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

func TestStaffFixtureDefaults(t *testing.T) {
	fixture := NewStaffFixture()

	if !strings.HasPrefix(fixture.ID, "staff-") {
		t.Fatalf("unexpected id %q", fixture.ID)
	}
	if fixture.Role != planner.RoleSupervisor {
		t.Fatalf("expected supervisor default, got %s", fixture.Role)
	}
	if fixture.Rank != planner.RankCollege {
		t.Fatalf("expected college rank default, got %s", fixture.Rank)
	}
	if fixture.Status != planner.StaffActive {
		t.Fatalf("expected active default, got %s", fixture.Status)
	}
	if !fixture.CreatedAt.Equal(fixture.UpdatedAt) {
		t.Fatalf("expected matching timestamps, got %v / %v", fixture.CreatedAt, fixture.UpdatedAt)
	}

	next := NewStaffFixture()
	if next.ID == fixture.ID {
		t.Fatalf("expected distinct ids, both %q", fixture.ID)
	}
}

func TestStaffFixtureOptions(t *testing.T) {
	created := ReferenceTime().Add(-time.Hour)
	updated := ReferenceTime()
	fixture := NewStaffFixture(
		WithStaffID("obs-9"),
		WithStaffName("Ninth Observer"),
		AsObserver(),
		WithStaffRank(planner.RankExternal),
		WithStaffStatus(planner.StaffSuspended),
		WithConsecutiveAbsences(2),
		WithStaffTimestamps(created, updated),
	)

	record := fixture.Persistence()
	if record.ID != "obs-9" || record.Name != "Ninth Observer" {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.Role != planner.RoleObserver || record.Rank != planner.RankExternal {
		t.Fatalf("unexpected role/rank: %+v", record)
	}
	if record.Status != planner.StaffSuspended || record.ConsecutiveAbsences != 2 {
		t.Fatalf("unexpected status: %+v", record)
	}
	if !record.CreatedAt.Equal(created) || !record.UpdatedAt.Equal(updated) {
		t.Fatalf("unexpected timestamps: %+v", record)
	}

	candidate := fixture.Planner()
	if candidate.ID != "obs-9" || candidate.Role != planner.RoleObserver || candidate.ConsecutiveAbsences != 2 {
		t.Fatalf("unexpected planner projection: %+v", candidate)
	}
}

func TestRoomFixtureDefaults(t *testing.T) {
	fixture := NewRoomFixture()

	if !strings.HasPrefix(fixture.ID, "room-") {
		t.Fatalf("unexpected id %q", fixture.ID)
	}
	if fixture.RequiredSupervisors != 1 || fixture.RequiredObservers != 1 {
		t.Fatalf("unexpected default requirements: %+v", fixture)
	}
	if fixture.CanAddObserver {
		t.Fatalf("expected fixed observer count by default")
	}
	if fixture.Status != persistence.RoomAvailable {
		t.Fatalf("expected available default, got %s", fixture.Status)
	}
}

func TestRoomFixtureOptions(t *testing.T) {
	fixture := NewRoomFixture(
		WithRoomID("hall-1"),
		WithRoomName("Main Hall"),
		WithRoomCapacity(120),
		WithRoomRequirements(2, 3),
		WithFlexibleObservers(),
		WithRoomStatus(persistence.RoomUnavailable),
	)

	record := fixture.Persistence()
	if record.ID != "hall-1" || record.Capacity != 120 {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.RequiredSupervisors != 2 || record.RequiredObservers != 3 || !record.CanAddObserver {
		t.Fatalf("unexpected requirements: %+v", record)
	}

	room := fixture.Planner()
	if room.Available {
		t.Fatalf("expected unavailable status to project as Available=false")
	}
}

func TestAbsenceFixtureOptions(t *testing.T) {
	recorded := ReferenceTime().Add(30 * time.Minute)
	fixture := NewAbsenceFixture(
		WithAbsenceAssignment("assignment-7"),
		WithAbsenceStaff("obs-2", planner.RoleObserver),
		WithAbsenceReason("transport strike"),
		WithAbsenceAction(persistence.AutoReplacement),
		WithAbsenceReplacement("obs-5"),
		WithAbsenceRecordedAt(recorded),
	)

	event := fixture.Persistence()
	if event.AssignmentID != "assignment-7" || event.StaffID != "obs-2" || event.Role != planner.RoleObserver {
		t.Fatalf("unexpected slot: %+v", event)
	}
	if event.Action != persistence.AutoReplacement || event.Reason != "transport strike" {
		t.Fatalf("unexpected resolution: %+v", event)
	}
	if event.ReplacementID == nil || *event.ReplacementID != "obs-5" {
		t.Fatalf("unexpected replacement: %+v", event)
	}
	if !event.RecordedAt.Equal(recorded) {
		t.Fatalf("unexpected timestamp: %+v", event)
	}

	// Persistence copies the replacement pointer rather than sharing it.
	*event.ReplacementID = "tampered"
	if again := fixture.Persistence(); *again.ReplacementID != "obs-5" {
		t.Fatalf("expected fixture isolated from event mutation, got %q", *again.ReplacementID)
	}
}

func TestSeededStorage(t *testing.T) {
	ctx := context.Background()
	staff := NewStaffFixture(WithStaffID("sup-1"))
	room := NewRoomFixture(WithRoomID("room-a"))

	storage := SeededStorage([]StaffFixture{staff}, []RoomFixture{room})

	got, err := storage.GetStaff(ctx, "sup-1")
	if err != nil {
		t.Fatalf("GetStaff returned error: %v", err)
	}
	if got.Role != planner.RoleSupervisor {
		t.Fatalf("unexpected staff: %+v", got)
	}
	if _, err := storage.GetRoom(ctx, "room-a"); err != nil {
		t.Fatalf("GetRoom returned error: %v", err)
	}
}

func TestStandardRoster(t *testing.T) {
	ctx := context.Background()
	storage, sups, obs := StandardRoster(2, 3)

	if len(sups) != 2 || len(obs) != 3 {
		t.Fatalf("unexpected roster sizes: %d supervisors, %d observers", len(sups), len(obs))
	}

	supervisors, err := storage.ListStaff(ctx, planner.RoleSupervisor)
	if err != nil {
		t.Fatalf("ListStaff returned error: %v", err)
	}
	if len(supervisors) != 2 {
		t.Fatalf("expected 2 seeded supervisors, got %d", len(supervisors))
	}
	observers, err := storage.ListStaff(ctx, planner.RoleObserver)
	if err != nil {
		t.Fatalf("ListStaff returned error: %v", err)
	}
	if len(observers) != 3 {
		t.Fatalf("expected 3 seeded observers, got %d", len(observers))
	}
}
