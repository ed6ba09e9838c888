package supervisor

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/errors"
	"github.com/wagiedev/agentbridge-go/internal/protocol"
	"github.com/wagiedev/agentbridge-go/internal/subprocess"
)

// Supervisor manages the lifecycle of one worker process.
type Supervisor struct {
	log     *slog.Logger
	options *config.Options
	spawner config.Spawner

	// lock serializes start, stop and queries. It is a semaphore so that
	// waiting for it honours context cancellation.
	lock *semaphore.Weighted

	// slotMu guards worker for the non-blocking IsRunning check.
	slotMu  sync.RWMutex
	worker  config.Worker
	session *protocol.Session

	shutdownOnce sync.Once
	closed       atomic.Bool
}

// New creates a Supervisor. No worker is started until Start or Query.
func New(options *config.Options) *Supervisor {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	spawner := options.Spawner
	if spawner == nil {
		spawner = subprocess.Spawner{}
	}

	return &Supervisor{
		log:     log.With("component", "supervisor"),
		options: options,
		spawner: spawner,
		lock:    semaphore.NewWeighted(1),
	}
}

// Start launches the worker if it is not already running.
//
// Calling Start while a live worker exists is a no-op. A worker that has
// exited is replaced. Returns SpawnError if the worker cannot be started,
// LockError if ctx ends while waiting for another operation and
// ErrShutdown after Shutdown.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release(1)

	if s.closed.Load() {
		return errors.ErrShutdown
	}

	return s.startLocked(ctx)
}

// Stop terminates the worker and waits for it to exit.
//
// Stop is a no-op when no worker exists. On StopError the worker is kept so
// IsRunning keeps reporting its real state.
func (s *Supervisor) Stop(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release(1)

	return s.stopLocked(ctx)
}

// IsRunning reports whether a worker exists and has not exited.
// It never waits for an in-flight query.
func (s *Supervisor) IsRunning() bool {
	s.slotMu.RLock()
	defer s.slotMu.RUnlock()

	return s.worker != nil && !s.worker.Exited()
}

// Pid returns the running worker's process id, or 0.
func (s *Supervisor) Pid() int {
	s.slotMu.RLock()
	defer s.slotMu.RUnlock()

	if s.worker == nil || s.worker.Exited() {
		return 0
	}

	return s.worker.Pid()
}

// Query sends query to the worker, starting it first if needed, and
// returns its terminal answer.
//
// Concurrent calls are serialized: a query is written only after the
// previous query's terminal message has been consumed.
func (s *Supervisor) Query(ctx context.Context, query string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.lock.Release(1)

	if s.closed.Load() {
		return "", errors.ErrShutdown
	}

	if err := s.startLocked(ctx); err != nil {
		return "", err
	}

	return s.session.Send(ctx, query)
}

// QueryIfRunning sends query only when a live worker exists.
// Returns ErrNotRunning otherwise; the worker is never started.
func (s *Supervisor) QueryIfRunning(ctx context.Context, query string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.lock.Release(1)

	if s.closed.Load() || !s.IsRunning() {
		return "", errors.ErrNotRunning
	}

	return s.session.Send(ctx, query)
}

// Shutdown stops the worker as a last resort and refuses further work.
//
// It is idempotent and never fails: a stop error is logged and dropped.
// It waits for an in-flight query unless ctx ends first, in which case the
// worker is terminated underneath it.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.log.Info("Shutting down supervisor")

		s.closed.Store(true)

		if err := s.lock.Acquire(ctx, 1); err != nil {
			s.log.Warn("Shutdown did not get the worker lock, terminating anyway", "error", err)
			s.terminateBestEffort()

			return
		}
		defer s.lock.Release(1)

		if err := s.stopLocked(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("Failed to stop worker during shutdown", "error", err)
		}
	})
}

func (s *Supervisor) acquire(ctx context.Context) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return &errors.LockError{Err: err}
	}

	return nil
}

// startLocked requires s.lock.
func (s *Supervisor) startLocked(ctx context.Context) error {
	if s.IsRunning() {
		s.log.Debug("Worker already running")

		return nil
	}

	if s.worker != nil {
		s.log.Info("Replacing exited worker")

		// Releases the dead worker's pipes.
		_ = s.worker.Terminate(ctx, 0)
	}

	worker, err := s.spawner.Spawn(ctx, s.options)
	if err != nil {
		if _, ok := stderrors.AsType[*errors.SpawnError](err); !ok {
			err = &errors.SpawnError{Err: err}
		}

		s.log.Error("Failed to start worker", "error", err)

		return err
	}

	s.slotMu.Lock()
	s.worker = worker
	s.session = protocol.NewSession(s.options.Logger, worker, s.options)
	s.slotMu.Unlock()

	s.log.Info("Worker running", "pid", worker.Pid())

	return nil
}

// stopLocked requires s.lock.
func (s *Supervisor) stopLocked(ctx context.Context) error {
	s.slotMu.RLock()
	worker := s.worker
	s.slotMu.RUnlock()

	if worker == nil {
		return nil
	}

	s.log.Info("Stopping worker", "pid", worker.Pid())

	if err := worker.Terminate(ctx, s.grace()); err != nil {
		s.log.Error("Failed to stop worker", "pid", worker.Pid(), "error", err)

		return err
	}

	s.slotMu.Lock()
	s.worker = nil
	s.session = nil
	s.slotMu.Unlock()

	s.log.Info("Worker stopped")

	return nil
}

// terminateBestEffort kills the worker without holding s.lock.
func (s *Supervisor) terminateBestEffort() {
	s.slotMu.RLock()
	worker := s.worker
	s.slotMu.RUnlock()

	if worker == nil {
		return
	}

	if err := worker.Terminate(context.Background(), s.grace()); err != nil {
		s.log.Warn("Best-effort terminate failed", "error", err)
	}
}

func (s *Supervisor) grace() time.Duration {
	if s.options.StopTimeout > 0 {
		return s.options.StopTimeout
	}

	return config.DefaultStopTimeout
}
