package tui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/syncer"
	"github.com/idilsaglam/tada/internal/todo"
)

type harness struct {
	st   store.Store
	mon  *connectivity.Monitor
	m    Model
	sent int
}

func newHarness(t *testing.T, initial connectivity.State) *harness {
	t.Helper()
	st, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	h := &harness{st: st, mon: connectivity.NewMonitor(initial)}
	logger := log.New(io.Discard)
	notices := NewNotices()
	hook := func(context.Context, model.Todo) error { h.sent++; return nil }
	sw := syncer.New(st, hook, notices, logger)
	mgr := todo.NewManager(st, h.mon, sw, todo.Options{Notices: notices, Logger: logger})
	mgr.Attach(context.Background(), h.mon)

	h.m = New(context.Background(), Deps{Store: st, Manager: mgr, Monitor: h.mon, Notices: notices})
	t.Cleanup(h.m.Close)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) keys(keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			h.send(tea.KeyMsg{Type: tea.KeyEnter})
		case "space":
			h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		default:
			h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

// drain applies the snapshot pushed by the last store write, if any.
func (h *harness) drain() {
	select {
	case items := <-h.m.snapshots:
		h.send(snapshotMsg(items))
	default:
	}
}

func (h *harness) list(t *testing.T) []model.Todo {
	t.Helper()
	items, err := h.st.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return items
}

func TestView_AddOfflineShowsPending(t *testing.T) {
	h := newHarness(t, connectivity.Offline)

	h.keys("a", "buy milk", "enter")
	h.drain()

	items := h.list(t)
	if len(items) != 1 || items[0].Text != "buy milk" || items[0].Synced {
		t.Fatalf("unexpected store contents: %+v", items)
	}
	if len(h.m.items) != 1 {
		t.Fatalf("view did not pick up the snapshot: %+v", h.m.items)
	}
	out := h.m.View()
	for _, want := range []string{"buy milk", "pending", "offline", "1 left"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestView_BlankInputIgnored(t *testing.T) {
	h := newHarness(t, connectivity.Online)
	h.keys("a", "   ", "enter")
	if !h.m.adding {
		t.Fatalf("blank submit should keep the input open")
	}
	if got := h.list(t); len(got) != 0 {
		t.Fatalf("blank input created %+v", got)
	}
}

func TestView_ReconnectSignalSyncs(t *testing.T) {
	h := newHarness(t, connectivity.Offline)
	h.keys("a", "buy milk", "enter")
	h.drain()

	// sync-now is disabled while offline
	h.keys("s")
	if h.sent != 0 {
		t.Fatalf("sync ran while offline")
	}

	h.send(signalMsg(connectivity.Online))
	h.drain()

	if items := h.list(t); !items[0].Synced {
		t.Fatalf("item not synced after reconnect: %+v", items)
	}
	if h.sent != 1 {
		t.Fatalf("expected one send, got %d", h.sent)
	}
	if strings.Contains(h.m.View(), "⟳ pending") {
		t.Fatalf("pending badge still shown:\n%s", h.m.View())
	}
}

func TestView_ToggleAndDelete(t *testing.T) {
	h := newHarness(t, connectivity.Online)
	h.keys("a", "first", "enter")
	h.keys("a", "second", "enter")
	h.drain()

	// cursor starts on the newest item
	h.keys("space")
	h.drain()
	items := h.list(t)
	if !items[0].Completed || items[1].Completed {
		t.Fatalf("toggle hit the wrong item: %+v", items)
	}

	h.keys("d")
	h.drain()
	items = h.list(t)
	if len(items) != 1 || items[0].Text != "first" {
		t.Fatalf("delete hit the wrong item: %+v", items)
	}
}

func TestView_ClearAllNeedsConfirmation(t *testing.T) {
	h := newHarness(t, connectivity.Online)
	h.keys("a", "one", "enter", "a", "two", "enter")
	h.drain()

	h.keys("X")
	if !h.m.confirming || !strings.Contains(h.m.View(), "Delete all 2 todos?") {
		t.Fatalf("expected confirmation prompt:\n%s", h.m.View())
	}
	h.keys("n")
	if got := h.list(t); len(got) != 2 {
		t.Fatalf("cancelled clear removed items: %+v", got)
	}

	h.keys("X", "y")
	h.drain()
	if got := h.list(t); len(got) != 0 {
		t.Fatalf("confirmed clear left %+v", got)
	}
	if len(h.m.items) != 0 {
		t.Fatalf("view still shows %+v", h.m.items)
	}
}

func TestView_StatusExpires(t *testing.T) {
	h := newHarness(t, connectivity.Online)
	h.send(noticeMsg{Text: "hello"})
	seq := h.m.statusSeq
	if h.m.status != "hello" {
		t.Fatalf("status not shown")
	}
	h.send(noticeMsg{Text: "newer"})
	h.send(expireMsg{seq: seq})
	if h.m.status != "newer" {
		t.Fatalf("stale expiry cleared a newer status")
	}
	h.send(expireMsg{seq: h.m.statusSeq})
	if h.m.status != "" {
		t.Fatalf("status did not expire")
	}
}

func TestView_CloseUnsubscribes(t *testing.T) {
	h := newHarness(t, connectivity.Online)
	h.m.Close()
	if _, err := h.st.Add(context.Background(), model.Todo{Text: "x", CreatedAt: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	select {
	case <-h.m.snapshots:
		t.Fatalf("snapshot delivered after Close")
	default:
	}
}

func TestView_StartsFromStoreAndFollowsSubscription(t *testing.T) {
	ctx := context.Background()
	st, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := st.Add(ctx, model.Todo{Text: "already there", CreatedAt: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	mon := connectivity.NewMonitor(connectivity.Offline)
	logger := log.New(io.Discard)
	sw := syncer.New(st, func(context.Context, model.Todo) error { return nil }, nil, logger)
	mgr := todo.NewManager(st, mon, sw, todo.Options{Logger: logger})

	m := New(ctx, Deps{Store: st, Manager: mgr, Monitor: mon})
	defer m.Close()
	if len(m.items) != 1 || m.items[0].Text != "already there" {
		t.Fatalf("view should start from the store contents, got %+v", m.items)
	}

	if _, err := mgr.Create(ctx, "later"); err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case items := <-m.snapshots:
		next, cmd := m.Update(snapshotMsg(items))
		m = next.(Model)
		if cmd == nil {
			t.Fatalf("snapshot handler should wait for the next snapshot")
		}
	default:
		t.Fatalf("write after start did not reach the view")
	}
	if len(m.items) != 2 || m.items[0].Text != "later" {
		t.Fatalf("expected newest snapshot, got %+v", m.items)
	}
}

func TestSignals_KeepNewest(t *testing.T) {
	s := NewSignals()
	for i := 0; i < 10; i++ {
		s.Emit(connectivity.Offline)
	}
	s.Emit(connectivity.Online)
	var last connectivity.State
	for len(s) > 0 {
		last = <-s
	}
	if last != connectivity.Online {
		t.Fatalf("newest signal lost")
	}
}
