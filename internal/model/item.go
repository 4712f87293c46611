package model

import "time"

// Todo is the domain model for a todo entry.
// ID and CreatedAt are fixed once the store has accepted the item.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"` // unix millis
	Synced    bool   `json:"synced"`
}

// Created returns CreatedAt as a time.Time.
func (t Todo) Created() time.Time { return time.UnixMilli(t.CreatedAt) }

// Patch holds the fields Update may change. Nil means "leave as is".
type Patch struct {
	Completed *bool
	Synced    *bool
}

// Apply merges p into t.
func (p Patch) Apply(t *Todo) {
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Synced != nil {
		t.Synced = *p.Synced
	}
}

// Bool returns a pointer to b, for building a Patch.
func Bool(b bool) *bool { return &b }

// Newer reports whether a sorts before b in list order: newest first,
// higher id first when two items share a millisecond.
func Newer(a, b Todo) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID > b.ID
}
