package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// Deficiency describes a room left short of required staff after planning or
// replacement, tagged by the missing role.
type Deficiency struct {
	Date   time.Time
	Period planner.Period
	RoomID string
	Role   planner.Role
	Count  int
}

// Notifier receives deficiency notices. The engine only writes to it; how
// notices reach administrators is a collaborator concern.
type Notifier interface {
	NotifyDeficiency(ctx context.Context, deficiency Deficiency)
}

// LogNotifier is the default Notifier; it records each deficiency as a
// structured warning.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier wraps a logger as a Notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: defaultLogger(logger)}
}

// NotifyDeficiency logs the deficiency.
func (n *LogNotifier) NotifyDeficiency(ctx context.Context, deficiency Deficiency) {
	logger := serviceLogger(ctx, n.logger, "notifier", "deficiency")
	logger.Warn("room is short of required staff",
		"date", planner.DateKey(deficiency.Date),
		"period", string(deficiency.Period),
		"room_id", deficiency.RoomID,
		"missing_role", string(deficiency.Role),
		"missing_count", deficiency.Count,
	)
}
