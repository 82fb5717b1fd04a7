// Package lifecycle orders process startup and shutdown of the shared resources.
//
// Startup preloads the model and then connects the database; shutdown closes
// the database. Each runs at most once per successful start.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is a lifecycle state.
type State int

// Lifecycle states.
const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned by Start when the lifecycle is not stopped.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Preloader loads the model.
type Preloader interface {
	Preload(ctx context.Context) error
}

// Connection is the database connection opened at startup.
type Connection interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}

// Lifecycle owns the startup and shutdown order.
type Lifecycle struct {
	model  Preloader
	db     Connection
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a stopped Lifecycle.
func New(model Preloader, db Connection, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		model:  model,
		db:     db,
		logger: logger,
		state:  StateStopped,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start preloads the model, then connects the database.
// On failure the lifecycle returns to stopped and never reaches running.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateStopped {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, state)
	}
	l.state = StateStarting
	l.mu.Unlock()

	if err := l.start(ctx); err != nil {
		l.setState(StateStopped)
		return err
	}

	l.setState(StateRunning)
	l.logger.Info("lifecycle running")
	return nil
}

func (l *Lifecycle) start(ctx context.Context) error {
	l.logger.Info("preloading model")
	if err := l.model.Preload(ctx); err != nil {
		return fmt.Errorf("preload model: %w", err)
	}

	l.logger.Info("connecting to database")
	if err := l.db.Connect(ctx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return nil
}

// Stop closes the database. It only acts when running; otherwise it returns nil.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return nil
	}
	l.state = StateStopping
	l.mu.Unlock()

	defer l.setState(StateStopped)

	l.logger.Info("closing database")
	if err := l.db.Close(ctx); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (l *Lifecycle) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
