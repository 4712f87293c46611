package cli

import (
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/ui"
)

func listLines(items []model.Todo, online, group bool) []string {
	t := ui.Current()
	remaining := todo.RemainingCount(items)
	done := len(items) - remaining

	// Header + progress
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d   %s",
		t.Title.Render("Todos"),
		t.Success.Render("✔"), done,
		t.Pending.Render("•"), remaining,
		t.Accent.Render("Total"), len(items),
		ui.Connectivity(online),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(done, len(items), 28)))
	lines = append(lines, "")

	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	footer := fmt.Sprintf("%d left", remaining)
	if n := todo.UnsyncedCount(items); n > 0 {
		footer += fmt.Sprintf(" · %d pending sync", n)
	}
	lines = append(lines, t.Muted.Render(footer))
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

func flatLines(items []model.Todo) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		text := ui.Truncate(it.Text, 80)
		if it.Completed {
			text = t.Done.Render(text)
		}
		line := fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("%3d.", it.ID)), ui.Checkbox(it.Completed), text)
		if !it.Synced {
			line += "  " + ui.PendingBadge()
		}
		out = append(out, line)
	}
	return out
}

func groupLines(items []model.Todo) []string {
	t := ui.Current()
	var pend, done []model.Todo
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
