// Package tui is the interactive todo view: it renders the store's live
// contents and the connectivity state, and turns key presses into
// todo.Manager calls.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/notice"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/ui"
)

// Deps are the collaborators the view is built on. The store is only used
// for its subscription; every change goes through the manager.
type Deps struct {
	Store     store.Store
	Manager   *todo.Manager
	Monitor   *connectivity.Monitor
	Notices   *Notices
	Signals   Signals       // optional; nil when nothing watches the network
	StatusTTL time.Duration // how long a status message stays up
}

type Model struct {
	ctx  context.Context
	deps Deps
	keys keyMap

	list  list.Model
	items []model.Todo

	// Inline add
	adding bool
	ti     textinput.Model

	confirming bool // clear-all prompt is up

	status      string
	statusLevel notice.Level
	statusSeq   int

	snapshots   chan []model.Todo
	unsubscribe func()
}

// New builds the view and subscribes it to the store. Call Close when the
// program is done to drop the subscription.
func New(ctx context.Context, d Deps) Model {
	if d.StatusTTL <= 0 {
		d.StatusTTL = 3 * time.Second
	}
	if d.Notices == nil {
		d.Notices = NewNotices()
	}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.SetStatusBarItemName("todo", "todos")

	keys := newKeyMap()
	l.AdditionalShortHelpKeys = keys.extra
	l.AdditionalFullHelpKeys = keys.extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 200

	m := Model{
		ctx:       ctx,
		deps:      d,
		keys:      keys,
		list:      l,
		ti:        ti,
		snapshots: make(chan []model.Todo, 1),
	}
	// Subscribe before the first read so no write falls between them.
	// A failed read is already a notice; the view starts empty.
	m.unsubscribe = d.Store.Subscribe(latest(m.snapshots))
	if items, err := d.Manager.List(ctx); err == nil {
		m.setItems(items)
	} else {
		m.refreshTitle()
	}
	return m
}

// Close drops the store subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the Bubble Tea program on the alt screen and blocks until the
// user quits.
func Run(ctx context.Context, d Deps) error {
	m := New(ctx, d)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshot(m.snapshots),
		waitNotice(m.deps.Notices.ch),
		waitSignal(m.deps.Signals),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, max(msg.Height-8, 3))
		m.ti.Width = msg.Width - 8
		return m, nil

	case snapshotMsg:
		m.setItems(msg)
		return m, waitSnapshot(m.snapshots)

	case noticeMsg:
		cmd := m.setStatus(notice.Notice(msg))
		return m, tea.Batch(cmd, waitNotice(m.deps.Notices.ch))

	case signalMsg:
		// Runs the reconnect sweep, if any, right here on the update loop.
		m.deps.Monitor.Set(connectivity.State(msg))
		m.refreshTitle()
		return m, waitSignal(m.deps.Signals)

	case expireMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.confirming {
			return m.updateConfirming(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		_, err := m.deps.Manager.Create(m.ctx, m.ti.Value())
		var ve todo.ValidationError
		if errors.As(err, &ve) {
			// blank input is ignored; keep the box open
			return m, nil
		}
		m.ti.SetValue("")
		m.ti.Blur()
		m.adding = false
		return m, nil
	case "esc":
		m.adding = false
		m.ti.SetValue("")
		m.ti.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateConfirming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirming = false
	if msg.String() != "y" && msg.String() != "Y" {
		return m, m.setStatus(notice.Notice{Level: notice.LevelInfo, Text: "Clear cancelled"})
	}
	if err := m.deps.Manager.ClearAll(m.ctx, true); err != nil {
		return m, nil
	}
	return m, m.setStatus(notice.Notice{Level: notice.LevelInfo, Text: "All todos cleared"})
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.ti.SetValue("")
		return m, m.ti.Focus()

	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(); ok {
			_ = m.deps.Manager.Toggle(m.ctx, it.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			_ = m.deps.Manager.Delete(m.ctx, it.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Sync):
		if !m.canSync() {
			return m, nil
		}
		_, _ = m.deps.Manager.Sync(m.ctx)
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if len(m.items) == 0 {
			return m, nil
		}
		m.confirming = true
		return m, nil

	case key.Matches(msg, m.keys.Network):
		// Same path as a platform signal, for trying offline behavior by hand.
		next := connectivity.Online
		if m.deps.Monitor.Online() {
			next = connectivity.Offline
		}
		m.deps.Monitor.Set(next)
		m.refreshTitle()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) setItems(items []model.Todo) {
	m.items = items
	m.list.SetItems(toListItems(items))
	m.refreshTitle()
}

func (m *Model) setStatus(n notice.Notice) tea.Cmd {
	m.statusSeq++
	m.status = n.Text
	m.statusLevel = n.Level
	seq := m.statusSeq
	return tea.Tick(m.deps.StatusTTL, func(time.Time) tea.Msg { return expireMsg{seq: seq} })
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// canSync mirrors the sync-now control: enabled only online with
// something pending.
func (m Model) canSync() bool {
	return m.deps.Monitor.Online() && todo.UnsyncedCount(m.items) > 0
}

func (m *Model) refreshTitle() {
	t := ui.Current()
	title := t.Title.Render("Todos") + "   " + ui.Connectivity(m.deps.Monitor.Online())
	if n := todo.UnsyncedCount(m.items); n > 0 {
		title += "   " + t.Pending.Render(fmt.Sprintf("%d pending", n))
	}
	m.list.Title = title
}

func (m Model) View() string {
	t := ui.Current()
	var b strings.Builder

	if len(m.items) == 0 {
		b.WriteString(m.list.Title + "\n\n")
		b.WriteString(t.Muted.Render("Nothing to do! Press a to add a todo.") + "\n")
	} else {
		b.WriteString(m.list.View() + "\n")
	}

	b.WriteString("\n" + m.footer())

	if m.adding {
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		b.WriteString("\n" + bar.Render("Add todo\n"+m.ti.View()))
	}
	if m.confirming {
		b.WriteString("\n" + t.Error.Render(fmt.Sprintf("Delete all %d todos? This cannot be undone. [y/N]", len(m.items))))
	}
	if m.status != "" {
		style := t.Accent
		switch m.statusLevel {
		case notice.LevelWarn:
			style = t.Pending
		case notice.LevelError:
			style = t.Error
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	return ui.PanelString(b.String())
}

func (m Model) footer() string {
	t := ui.Current()
	out := t.Muted.Render(fmt.Sprintf("%d left", todo.RemainingCount(m.items)))

	switch {
	case !m.deps.Monitor.Online():
		out += "   " + t.Muted.Render("s sync now (offline)")
	case !m.canSync():
		out += "   " + t.Muted.Render("s sync now (nothing pending)")
	default:
		out += "   " + t.Accent.Render("s sync now")
	}
	if len(m.items) > 0 {
		out += "   " + t.Muted.Render("X clear all")
	}
	return out
}
