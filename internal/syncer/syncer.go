// Package syncer marks locally created todos as delivered to the remote
// service once the network is back.
//
// There is no real remote yet: the default Hook only logs what it would
// send. A real client can be plugged in through Hook without touching the
// sweep logic.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/notice"
	"github.com/idilsaglam/tada/internal/store"
)

// Hook delivers one todo to the remote service.
type Hook func(ctx context.Context, t model.Todo) error

// LogHook returns the placeholder hook: it logs the send with a fresh
// event id and always succeeds.
func LogHook(logger *log.Logger) Hook {
	return func(ctx context.Context, t model.Todo) error {
		logger.Info("send to remote",
			"event_id", uuid.NewString(),
			"todo_id", t.ID,
			"text", t.Text,
			"completed", t.Completed,
			"created_at", t.Created(),
		)
		return nil
	}
}

// SyncError reports a todo the hook failed to deliver. The todo stays
// unsynced and is retried by the next sweep.
type SyncError struct {
	TodoID int64
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync todo %d: %v", e.TodoID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Result summarizes one sweep.
type Result struct {
	Pending int     // unsynced items found
	Synced  int     // items marked synced
	Skipped int     // removed between listing and marking
	Failed  []int64 // items the hook or the store rejected
}

type Sweeper struct {
	store   store.Store
	hook    Hook
	notices notice.Sink
	log     *log.Logger

	mu sync.Mutex
}

// New builds a sweeper over st. A nil hook means LogHook, a nil sink
// discards notices and a nil logger uses the package default.
func New(st store.Store, hook Hook, sink notice.Sink, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	if hook == nil {
		hook = LogHook(logger)
	}
	if sink == nil {
		sink = notice.Discard
	}
	return &Sweeper{store: st, hook: hook, notices: sink, log: logger}
}

// Send runs the hook for a single todo, wrapping failures in SyncError.
func (s *Sweeper) Send(ctx context.Context, t model.Todo) error {
	if err := s.hook(ctx, t); err != nil {
		return &SyncError{TodoID: t.ID, Err: err}
	}
	return nil
}

// Sweep sends every unsynced todo and marks it synced, one at a time in
// store order. With nothing pending it does nothing at all.
//
// Sweeps never overlap, but the listing and the per-item updates are not
// one transaction: a todo deleted mid-sweep is skipped, not an error.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.List(ctx)
	if err != nil {
		notice.Error(s.notices, "Could not read todos: "+err.Error())
		return Result{}, fmt.Errorf("sweep: %w", err)
	}

	var pending []model.Todo
	for _, t := range items {
		if !t.Synced {
			pending = append(pending, t)
		}
	}
	res := Result{Pending: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	notice.Info(s.notices, fmt.Sprintf("Syncing %d item(s)…", len(pending)))
	s.log.Info("sweep started", "pending", len(pending))

	var errs []error
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Send(ctx, t); err != nil {
			s.log.Warn("send failed", "todo_id", t.ID, "err", err)
			res.Failed = append(res.Failed, t.ID)
			errs = append(errs, err)
			continue
		}
		err := s.store.Update(ctx, t.ID, model.Patch{Synced: model.Bool(true)})
		switch {
		case store.IsNotFound(err):
			s.log.Debug("todo removed during sweep", "todo_id", t.ID)
			res.Skipped++
		case err != nil:
			s.log.Error("mark synced failed", "todo_id", t.ID, "err", err)
			res.Failed = append(res.Failed, t.ID)
			errs = append(errs, err)
		default:
			res.Synced++
		}
	}

	s.log.Info("sweep finished", "synced", res.Synced, "failed", len(res.Failed), "skipped", res.Skipped)
	if len(res.Failed) > 0 {
		notice.Warn(s.notices, fmt.Sprintf("Synced %d of %d; %d will retry when back online",
			res.Synced, res.Pending, len(res.Failed)))
	} else {
		notice.Info(s.notices, fmt.Sprintf("Sync complete: %d item(s) synced", res.Synced))
	}
	return res, errors.Join(errs...)
}
