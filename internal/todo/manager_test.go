package todo

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/notice"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/sqlitestore"
	"github.com/idilsaglam/tada/internal/syncer"
)

type fixture struct {
	st      store.Store
	mon     *connectivity.Monitor
	mgr     *Manager
	notices *notice.Recorder
	sent    []int64
}

// clock hands out strictly increasing millisecond timestamps.
func clock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func backends() map[string]func(t *testing.T) store.Store {
	return map[string]func(t *testing.T) store.Store{
		"json": func(t *testing.T) store.Store {
			s, err := jsonstore.Open(t.TempDir())
			if err != nil {
				t.Fatalf("open json store: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) store.Store {
			s, err := sqlitestore.Open(context.Background(), t.TempDir())
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func newFixture(t *testing.T, st store.Store, initial connectivity.State) *fixture {
	t.Helper()
	f := &fixture{st: st, mon: connectivity.NewMonitor(initial), notices: &notice.Recorder{}}
	logger := log.New(io.Discard)
	hook := func(_ context.Context, td model.Todo) error {
		f.sent = append(f.sent, td.ID)
		return nil
	}
	sw := syncer.New(st, hook, f.notices, logger)
	f.mgr = NewManager(st, f.mon, sw, Options{Notices: f.notices, Logger: logger, Now: clock()})
	f.mgr.Attach(context.Background(), f.mon)
	return f
}

func eachBackend(t *testing.T, initial connectivity.State, fn func(t *testing.T, f *fixture)) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, newFixture(t, open(t), initial))
		})
	}
}

func count(t *testing.T, f *fixture) int {
	t.Helper()
	items, err := f.mgr.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return len(items)
}

func TestCreate_AddsOneWithFreshID(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		first, err := f.mgr.Create(ctx, "buy milk")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		before := count(t, f)
		second, err := f.mgr.Create(ctx, "  walk dog  ")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if got := count(t, f); got != before+1 {
			t.Fatalf("expected count %d, got %d", before+1, got)
		}
		if second.ID == first.ID {
			t.Fatalf("id reused: %d", second.ID)
		}
		if second.Text != "walk dog" || second.Completed {
			t.Fatalf("unexpected todo: %+v", second)
		}
		stored, err := f.st.Get(ctx, second.ID)
		if err != nil || stored != second {
			t.Fatalf("stored %+v (err %v), returned %+v", stored, err, second)
		}
	})
}

func TestCreate_RejectsBlankText(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		for _, text := range []string{"", "   ", "\t\n"} {
			_, err := f.mgr.Create(context.Background(), text)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("create %q: expected ValidationError, got %v", text, err)
			}
		}
		if got := count(t, f); got != 0 {
			t.Fatalf("expected no items, got %d", got)
		}
	})
}

func TestCreate_SyncedFollowsConnectivity(t *testing.T) {
	tests := []struct {
		state      connectivity.State
		wantSynced bool
		wantSent   int
		wantNotice bool
	}{
		{connectivity.Online, true, 1, false},
		{connectivity.Offline, false, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.state.String(), func(t *testing.T) {
			eachBackend(t, tc.state, func(t *testing.T, f *fixture) {
				td, err := f.mgr.Create(context.Background(), "buy milk")
				if err != nil {
					t.Fatalf("create: %v", err)
				}
				if td.Synced != tc.wantSynced {
					t.Fatalf("synced=%v, want %v", td.Synced, tc.wantSynced)
				}
				if len(f.sent) != tc.wantSent {
					t.Fatalf("sent %d, want %d", len(f.sent), tc.wantSent)
				}
				for _, id := range f.sent {
					if id == 0 || id != td.ID {
						t.Fatalf("hook saw id %d, want stored id %d", id, td.ID)
					}
				}
				stored, err := f.st.Get(context.Background(), td.ID)
				if err != nil {
					t.Fatalf("get: %v", err)
				}
				if stored.Synced != tc.wantSynced {
					t.Fatalf("stored synced=%v, want %v", stored.Synced, tc.wantSynced)
				}
				if got := len(f.notices.Notices) > 0; got != tc.wantNotice {
					t.Fatalf("pending notice=%v, want %v (%+v)", got, tc.wantNotice, f.notices.Notices)
				}
			})
		})
	}
}

func TestCreate_FailedSendStaysPending(t *testing.T) {
	st, _ := jsonstore.Open(t.TempDir())
	mon := connectivity.NewMonitor(connectivity.Online)
	logger := log.New(io.Discard)
	sw := syncer.New(st, func(context.Context, model.Todo) error { return errors.New("nope") }, nil, logger)
	mgr := NewManager(st, mon, sw, Options{Logger: logger})

	td, err := mgr.Create(context.Background(), "x")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if td.Synced {
		t.Fatalf("todo marked synced although the send failed")
	}
	stored, err := st.Get(context.Background(), td.ID)
	if err != nil {
		t.Fatalf("a failed send must still keep the todo: %v", err)
	}
	if stored.Synced {
		t.Fatalf("stored todo marked synced although the send failed")
	}
}

func TestToggle_FlipsOnlyCompleted(t *testing.T) {
	eachBackend(t, connectivity.Offline, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		td, _ := f.mgr.Create(ctx, "buy milk")

		if err := f.mgr.Toggle(ctx, td.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}
		got, _ := f.st.Get(ctx, td.ID)
		want := td
		want.Completed = true
		if got != want {
			t.Fatalf("after toggle: got %+v want %+v", got, want)
		}

		if err := f.mgr.Toggle(ctx, td.ID); err != nil {
			t.Fatalf("toggle back: %v", err)
		}
		got, _ = f.st.Get(ctx, td.ID)
		if got != td {
			t.Fatalf("after second toggle: got %+v want %+v", got, td)
		}
	})
}

func TestToggle_UnknownIDIsNoop(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		td, _ := f.mgr.Create(ctx, "keep")
		if err := f.mgr.Toggle(ctx, td.ID+100); err != nil {
			t.Fatalf("toggle unknown: %v", err)
		}
		got, _ := f.st.Get(ctx, td.ID)
		if got != td {
			t.Fatalf("existing item changed: %+v", got)
		}
	})
}

func TestDelete_RemovesExactlyThatRecord(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a, _ := f.mgr.Create(ctx, "one")
		b, _ := f.mgr.Create(ctx, "two")
		c, _ := f.mgr.Create(ctx, "three")

		if err := f.mgr.Delete(ctx, b.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		items, _ := f.mgr.List(ctx)
		if len(items) != 2 || items[0].ID != c.ID || items[1].ID != a.ID {
			t.Fatalf("expected [three one], got %+v", items)
		}

		if err := f.mgr.Delete(ctx, b.ID); err != nil {
			t.Fatalf("delete again: %v", err)
		}
		if got := count(t, f); got != 2 {
			t.Fatalf("second delete changed count to %d", got)
		}
	})
}

func TestClearAll_NeedsConfirmation(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, _ = f.mgr.Create(ctx, "a")
		_, _ = f.mgr.Create(ctx, "b")

		if err := f.mgr.ClearAll(ctx, false); !errors.Is(err, ErrNotConfirmed) {
			t.Fatalf("expected ErrNotConfirmed, got %v", err)
		}
		if got := count(t, f); got != 2 {
			t.Fatalf("unconfirmed clear removed items: %d left", got)
		}
		if err := f.mgr.ClearAll(ctx, true); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if got := count(t, f); got != 0 {
			t.Fatalf("expected empty list, got %d", got)
		}
	})
}

func TestReconnect_SweepsPendingAutomatically(t *testing.T) {
	eachBackend(t, connectivity.Offline, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		td, err := f.mgr.Create(ctx, "buy milk")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if td.Synced {
			t.Fatalf("offline create must be pending")
		}

		f.mon.Set(connectivity.Online)

		got, _ := f.st.Get(ctx, td.ID)
		if !got.Synced {
			t.Fatalf("item not synced after reconnect")
		}
		if len(f.sent) != 1 || f.sent[0] != td.ID {
			t.Fatalf("expected exactly one send for %d, got %v", td.ID, f.sent)
		}

		// a repeated online signal is not a transition
		f.mon.Set(connectivity.Online)
		if len(f.sent) != 1 {
			t.Fatalf("repeat signal re-sent: %v", f.sent)
		}
	})
}

func TestSync_RefusedOffline(t *testing.T) {
	eachBackend(t, connectivity.Offline, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, _ = f.mgr.Create(ctx, "a")
		if _, err := f.mgr.Sync(ctx); !errors.Is(err, ErrOffline) {
			t.Fatalf("expected ErrOffline, got %v", err)
		}
		items, _ := f.mgr.List(ctx)
		if UnsyncedCount(items) != 1 {
			t.Fatalf("offline sync changed state")
		}
	})
}

func TestSync_ManualWhileOnline(t *testing.T) {
	eachBackend(t, connectivity.Online, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		// simulate items left over from an offline session
		if _, err := f.st.Add(ctx, model.Todo{Text: "left over", CreatedAt: 1}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		res, err := f.mgr.Sync(ctx)
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
		if res.Synced != 1 {
			t.Fatalf("unexpected result %+v", res)
		}
		res, _ = f.mgr.Sync(ctx)
		if res.Pending != 0 {
			t.Fatalf("second sync not a no-op: %+v", res)
		}
	})
}

func TestCounts(t *testing.T) {
	items := []model.Todo{
		{ID: 1, Completed: true, Synced: true},
		{ID: 2, Completed: false, Synced: false},
		{ID: 3, Completed: false, Synced: true},
	}
	if got := UnsyncedCount(items); got != 1 {
		t.Fatalf("UnsyncedCount=%d", got)
	}
	if got := RemainingCount(items); got != 2 {
		t.Fatalf("RemainingCount=%d", got)
	}
	if UnsyncedCount(nil) != 0 || RemainingCount(nil) != 0 {
		t.Fatalf("nil snapshot should count zero")
	}
}

type brokenStore struct{ store.Store }

func (brokenStore) Add(context.Context, model.Todo) (int64, error) {
	return 0, &store.StorageError{Op: "add", Err: errors.New("quota exceeded")}
}

func TestCreate_StorageErrorIsNoticedNotFatal(t *testing.T) {
	rec := &notice.Recorder{}
	logger := log.New(io.Discard)
	st := brokenStore{}
	mon := connectivity.NewMonitor(connectivity.Offline)
	mgr := NewManager(st, mon, syncer.New(st, nil, rec, logger), Options{Notices: rec, Logger: logger})

	_, err := mgr.Create(context.Background(), "x")
	if !store.IsStorage(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(rec.Notices) != 1 || rec.Notices[0].Level != notice.LevelError {
		t.Fatalf("expected one error notice, got %+v", rec.Notices)
	}
}
