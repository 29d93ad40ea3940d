package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/exam-assignment/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)

	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := serviceLogger(ctx, base, "planning", "plan", "date", "2024-06-10")
	logger.Info("plan computed")

	out := buf.String()
	for _, want := range []string{"service=planning", "operation=plan", "date=2024-06-10", "plan computed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestServiceLoggerFallsBackToBase(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	logger := serviceLogger(context.Background(), base, "replacement", "record_absence")
	logger.Info("absence recorded")

	if !strings.Contains(buf.String(), "service=replacement") {
		t.Fatalf("expected base logger output, got %q", buf.String())
	}
}
