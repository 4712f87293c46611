// Package todo implements the todo operations on top of a store: create,
// toggle, delete, clear and the sync bookkeeping around them.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/notice"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/syncer"
)

// ValidationError reports user input that was rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var (
	ErrEmptyText    = ValidationError{Field: "text", Reason: "empty"}
	ErrNotConfirmed = errors.New("clear all: not confirmed")
	ErrOffline      = errors.New("offline")
)

// Status is the view of connectivity the manager needs.
type Status interface {
	Online() bool
}

type Manager struct {
	store   store.Store
	status  Status
	sweeper *syncer.Sweeper
	notices notice.Sink
	log     *log.Logger

	now func() time.Time
}

// Options are the optional collaborators of a Manager.
type Options struct {
	Notices notice.Sink
	Logger  *log.Logger
	Now     func() time.Time // defaults to time.Now
}

// NewManager wires a manager to one store, one status source and one
// sweeper. All three are owned by the caller.
func NewManager(st store.Store, status Status, sw *syncer.Sweeper, opt Options) *Manager {
	m := &Manager{
		store:   st,
		status:  status,
		sweeper: sw,
		notices: opt.Notices,
		log:     opt.Logger,
		now:     opt.Now,
	}
	if m.notices == nil {
		m.notices = notice.Discard
	}
	if m.log == nil {
		m.log = log.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Attach registers the manager as mon's reconnect handler, so every
// Offline→Online transition runs one sweep.
func (m *Manager) Attach(ctx context.Context, mon *connectivity.Monitor) {
	mon.OnOnline(func() {
		m.log.Info("back online, syncing pending todos")
		if _, err := m.sweeper.Sweep(ctx); err != nil {
			m.log.Warn("sweep after reconnect", "err", err)
		}
	})
}

// Create stores a new todo and returns it with its assigned id.
//
// The todo is always stored pending first. While online it is then handed
// to the sync hook with its id and marked synced if that succeeded;
// otherwise the next sweep picks it up.
func (m *Manager) Create(ctx context.Context, text string) (model.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, ErrEmptyText
	}

	t := model.Todo{
		Text:      text,
		CreatedAt: m.now().UnixMilli(),
	}
	id, err := m.store.Add(ctx, t)
	if err != nil {
		m.storageFailed("save", err)
		return model.Todo{}, fmt.Errorf("create: %w", err)
	}
	t.ID = id

	if !m.status.Online() {
		m.log.Debug("todo created offline", "id", id)
		notice.Info(m.notices, "Saved offline. Will sync when back online.")
		return t, nil
	}

	if err := m.sweeper.Send(ctx, t); err != nil {
		m.log.Warn("send on create failed, leaving pending", "id", id, "err", err)
		return t, nil
	}
	err = m.store.Update(ctx, id, model.Patch{Synced: model.Bool(true)})
	switch {
	case store.IsNotFound(err):
		// removed before it could be marked
	case err != nil:
		m.storageFailed("update", err)
		return t, fmt.Errorf("create: %w", err)
	default:
		t.Synced = true
	}
	m.log.Debug("todo created", "id", id, "synced", t.Synced)
	return t, nil
}

// Toggle flips completed on id. Unknown ids are ignored.
func (m *Manager) Toggle(ctx context.Context, id int64) error {
	t, err := m.store.Get(ctx, id)
	if store.IsNotFound(err) {
		return nil
	}
	if err != nil {
		m.storageFailed("read", err)
		return fmt.Errorf("toggle: %w", err)
	}
	err = m.store.Update(ctx, id, model.Patch{Completed: model.Bool(!t.Completed)})
	if store.IsNotFound(err) {
		return nil
	}
	if err != nil {
		m.storageFailed("update", err)
		return fmt.Errorf("toggle: %w", err)
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.store.Remove(ctx, id); err != nil {
		m.storageFailed("delete", err)
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// ClearAll removes every todo. It is destructive, so callers must pass
// confirmed=true after asking the user; otherwise nothing changes.
func (m *Manager) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := m.store.Clear(ctx); err != nil {
		m.storageFailed("clear", err)
		return fmt.Errorf("clear all: %w", err)
	}
	m.log.Info("all todos cleared")
	return nil
}

// Sync runs a sweep on user request. It is refused while offline.
func (m *Manager) Sync(ctx context.Context) (syncer.Result, error) {
	if !m.status.Online() {
		notice.Warn(m.notices, "Offline: sync will run when the connection is back.")
		return syncer.Result{}, ErrOffline
	}
	return m.sweeper.Sweep(ctx)
}

// List returns a fresh snapshot from the store.
func (m *Manager) List(ctx context.Context) ([]model.Todo, error) {
	items, err := m.store.List(ctx)
	if err != nil {
		m.storageFailed("read", err)
		return nil, fmt.Errorf("list: %w", err)
	}
	return items, nil
}

func (m *Manager) Online() bool { return m.status.Online() }

func (m *Manager) storageFailed(what string, err error) {
	m.log.Error("storage failure", "op", what, "err", err)
	notice.Error(m.notices, fmt.Sprintf("Could not %s: %v", what, err))
}

// UnsyncedCount counts todos still waiting to be synced.
func UnsyncedCount(items []model.Todo) int {
	n := 0
	for _, t := range items {
		if !t.Synced {
			n++
		}
	}
	return n
}

// RemainingCount counts todos not yet completed.
func RemainingCount(items []model.Todo) int {
	n := 0
	for _, t := range items {
		if !t.Completed {
			n++
		}
	}
	return n
}
