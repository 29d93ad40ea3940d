package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/exam-assignment/internal/application"
)

// EngineFactory assists tests with constructing the assignment engine using
// deterministic identifiers and clocks.
type EngineFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// EngineFactoryOption configures an EngineFactory instance.
type EngineFactoryOption func(*EngineFactory)

// NewEngineFactory constructs an EngineFactory with defaults.
func NewEngineFactory(opts ...EngineFactoryOption) *EngineFactory {
	factory := &EngineFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) EngineFactoryOption {
	return func(factory *EngineFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) EngineFactoryOption {
	return func(factory *EngineFactory) {
		factory.IDGenerator = generator
	}
}

// EngineDeps captures dependencies for constructing an engine.
type EngineDeps struct {
	Store       application.Store
	Notifier    application.Notifier
	Config      application.EngineConfig
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewEngine builds an engine using the supplied dependencies combined with
// the factory defaults.
func (f *EngineFactory) NewEngine(deps EngineDeps) *application.Engine {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = application.NewLogNotifier(deps.Logger)
	}
	return application.NewEngine(
		deps.Store,
		notifier,
		deps.Config,
		idGen,
		now,
		deps.Logger,
	)
}
