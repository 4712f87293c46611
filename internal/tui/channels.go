package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/notice"
)

// Notices is a notice.Sink feeding the view. Posting never blocks: when
// the buffer is full the notice is dropped, since a newer one replaces it
// on screen anyway.
type Notices struct {
	ch chan notice.Notice
}

func NewNotices() *Notices {
	return &Notices{ch: make(chan notice.Notice, 16)}
}

func (n *Notices) Post(x notice.Notice) {
	select {
	case n.ch <- x:
	default:
	}
}

// Signals carries platform connectivity signals into the update loop.
type Signals chan connectivity.State

func NewSignals() Signals { return make(Signals, 4) }

// Emit is shaped to be passed to connectivity.Watcher.Run. If the view
// has fallen behind, the oldest queued signal gives way to the newest.
func (s Signals) Emit(st connectivity.State) {
	for {
		select {
		case s <- st:
			return
		default:
		}
		select {
		case <-s:
		default:
		}
	}
}

type (
	snapshotMsg []model.Todo
	noticeMsg   notice.Notice
	signalMsg   connectivity.State
	expireMsg   struct{ seq int }
)

// latest keeps only the newest snapshot: a slow view skips intermediate
// states instead of blocking the store.
func latest(ch chan []model.Todo) func([]model.Todo) {
	return func(items []model.Todo) {
		for {
			select {
			case ch <- items:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func waitSnapshot(ch <-chan []model.Todo) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(<-ch) }
}

func waitNotice(ch <-chan notice.Notice) tea.Cmd {
	return func() tea.Msg { return noticeMsg(<-ch) }
}

func waitSignal(ch <-chan connectivity.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg { return signalMsg(<-ch) }
}
