// Package storetest holds the behavior every store.Store backend must show.
// Backend tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// Run exercises the store contract against stores built by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AddAssignsUniqueIDs", testAddAssignsUniqueIDs},
		{"ListNewestFirst", testListNewestFirst},
		{"UpdateMergesFields", testUpdateMergesFields},
		{"UpdateUnknownID", testUpdateUnknownID},
		{"UpdateRejectsUnsync", testUpdateRejectsUnsync},
		{"RemoveExactlyOne", testRemoveExactlyOne},
		{"RemoveUnknownIsNoop", testRemoveUnknownIsNoop},
		{"ClearEmpties", testClearEmpties},
		{"IDsNotReusedAfterRemove", testIDsNotReusedAfterRemove},
		{"SubscribeReceivesFreshSnapshot", testSubscribeReceivesFreshSnapshot},
		{"UnsubscribeStopsDelivery", testUnsubscribeStopsDelivery},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			tc.fn(t, s)
		})
	}
}

func mustAdd(t *testing.T, s store.Store, text string, createdAt int64) int64 {
	t.Helper()
	id, err := s.Add(context.Background(), model.Todo{Text: text, CreatedAt: createdAt})
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return id
}

func mustList(t *testing.T, s store.Store) []model.Todo {
	t.Helper()
	items, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return items
}

func testAddAssignsUniqueIDs(t *testing.T, s store.Store) {
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		id := mustAdd(t, s, "item", int64(1000+i))
		if id <= 0 {
			t.Fatalf("expected positive id, got %d", id)
		}
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if got := len(mustList(t, s)); got != 5 {
		t.Fatalf("expected 5 items, got %d", got)
	}
}

func testListNewestFirst(t *testing.T, s store.Store) {
	a := mustAdd(t, s, "a", 100)
	b := mustAdd(t, s, "b", 300)
	c := mustAdd(t, s, "c", 200)
	d := mustAdd(t, s, "d", 300) // same millisecond as b, added later

	items := mustList(t, s)
	want := []int64{d, b, c, a}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d (%+v)", i, id, items[i].ID, items)
		}
	}
}

func testUpdateMergesFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	id, err := s.Add(ctx, model.Todo{Text: "buy milk", CreatedAt: 42})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Update(ctx, id, model.Patch{Completed: model.Bool(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := model.Todo{ID: id, Text: "buy milk", Completed: true, CreatedAt: 42}
	if got != want {
		t.Fatalf("after completed patch: got %+v want %+v", got, want)
	}

	if err := s.Update(ctx, id, model.Patch{Synced: model.Bool(true)}); err != nil {
		t.Fatalf("update synced: %v", err)
	}
	got, _ = s.Get(ctx, id)
	want.Synced = true
	if got != want {
		t.Fatalf("after synced patch: got %+v want %+v", got, want)
	}
}

func testUpdateUnknownID(t *testing.T, s store.Store) {
	err := s.Update(context.Background(), 999, model.Patch{Completed: model.Bool(true)})
	if !store.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := s.Get(context.Background(), 999); !store.IsNotFound(err) {
		t.Fatalf("expected NotFoundError from get, got %v", err)
	}
}

func testUpdateRejectsUnsync(t *testing.T, s store.Store) {
	ctx := context.Background()
	id, _ := s.Add(ctx, model.Todo{Text: "x", CreatedAt: 1, Synced: true})
	err := s.Update(ctx, id, model.Patch{Synced: model.Bool(false)})
	if !errors.Is(err, store.ErrSyncedReversal) {
		t.Fatalf("expected ErrSyncedReversal, got %v", err)
	}
	got, _ := s.Get(ctx, id)
	if !got.Synced {
		t.Fatalf("synced flag reversed")
	}
}

func testRemoveExactlyOne(t *testing.T, s store.Store) {
	first := mustAdd(t, s, "first", 1)
	second := mustAdd(t, s, "second", 2)
	third := mustAdd(t, s, "third", 3)

	if err := s.Remove(context.Background(), second); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items := mustList(t, s)
	if len(items) != 2 || items[0].ID != third || items[1].ID != first {
		t.Fatalf("unexpected items after remove: %+v", items)
	}
}

func testRemoveUnknownIsNoop(t *testing.T, s store.Store) {
	mustAdd(t, s, "keep", 1)
	if err := s.Remove(context.Background(), 12345); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if got := len(mustList(t, s)); got != 1 {
		t.Fatalf("expected 1 item, got %d", got)
	}
}

func testClearEmpties(t *testing.T, s store.Store) {
	mustAdd(t, s, "a", 1)
	mustAdd(t, s, "b", 2)
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := mustList(t, s); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func testIDsNotReusedAfterRemove(t *testing.T, s store.Store) {
	a := mustAdd(t, s, "a", 1)
	b := mustAdd(t, s, "b", 2)
	if err := s.Remove(context.Background(), b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c := mustAdd(t, s, "c", 3)
	if c == a || c == b {
		t.Fatalf("id %d reused (a=%d b=%d)", c, a, b)
	}
}

func testSubscribeReceivesFreshSnapshot(t *testing.T, s store.Store) {
	var snaps [][]model.Todo
	unsub := s.Subscribe(func(items []model.Todo) { snaps = append(snaps, items) })
	defer unsub()

	ctx := context.Background()
	id := mustAdd(t, s, "a", 1)
	if err := s.Update(ctx, id, model.Patch{Completed: model.Bool(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Remove(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if len(snaps[0]) != 1 || snaps[0][0].Completed {
		t.Fatalf("snapshot after add: %+v", snaps[0])
	}
	if len(snaps[1]) != 1 || !snaps[1][0].Completed {
		t.Fatalf("snapshot after update: %+v", snaps[1])
	}
	if len(snaps[2]) != 0 {
		t.Fatalf("snapshot after remove: %+v", snaps[2])
	}
}

func testUnsubscribeStopsDelivery(t *testing.T, s store.Store) {
	calls := 0
	unsub := s.Subscribe(func([]model.Todo) { calls++ })
	mustAdd(t, s, "a", 1)
	unsub()
	unsub() // second call is harmless
	mustAdd(t, s, "b", 2)
	if calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", calls)
	}
}
