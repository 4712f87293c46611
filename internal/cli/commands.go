package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/ui"
)

func newLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Open the interactive list",
		Args:  noArgs("todo ls"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, app)
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print all todos, newest first",
		Args:  noArgs("todo list [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd, false); err != nil {
				return err
			}
			items, err := app.manager.List(cmd.Context())
			if err != nil {
				return err
			}
			ui.Panel(cmd.OutOrStdout(), listLines(items, app.monitor.Online(), group))
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a new todo (text can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: todo add <text...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd, false); err != nil {
				return err
			}
			t, err := app.manager.Create(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, todo.ErrEmptyText) {
				return usagef("add: empty text")
			}
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("added #%d", t.ID)
			if !t.Synced {
				msg += " (pending sync)"
			}
			ui.OK(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for the todo with this id",
		Args:  oneID("todo done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			if err := app.open(cmd, false); err != nil {
				return err
			}
			ctx := cmd.Context()
			// the manager treats unknown ids as a no-op; tell the user anyway
			if _, err := app.store.Get(ctx, id); store.IsNotFound(err) {
				ui.Warn(cmd.ErrOrStderr(), fmt.Sprintf("no todo #%d (run `todo list` to see ids)", id))
				return nil
			}
			if err := app.manager.Toggle(ctx, id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "toggled")
			return nil
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the todo with this id",
		Args:  oneID("todo rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			if err := app.open(cmd, false); err != nil {
				return err
			}
			if err := app.manager.Delete(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every todo (asks for confirmation)",
		Args:  noArgs("todo clear [--yes]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd, false); err != nil {
				return err
			}
			confirmed := yes
			if !confirmed {
				fmt.Fprint(cmd.OutOrStdout(), "Delete all todos? This cannot be undone. [y/N] ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				confirmed = answer == "y" || answer == "yes"
			}
			err := app.manager.ClearAll(cmd.Context(), confirmed)
			if errors.Is(err, todo.ErrNotConfirmed) {
				ui.Warn(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mark pending todos as synced now",
		Args:  noArgs("todo sync"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd, false); err != nil {
				return err
			}
			res, err := app.manager.Sync(cmd.Context())
			if errors.Is(err, todo.ErrOffline) {
				return fmt.Errorf("sync: %w; pending todos stay queued", err)
			}
			if err != nil {
				return err
			}
			if res.Pending == 0 {
				ui.OK(cmd.OutOrStdout(), "nothing to sync")
			}
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and counts",
		Args:  noArgs("todo status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd, false); err != nil {
				return err
			}
			items, err := app.manager.List(cmd.Context())
			if err != nil {
				return err
			}
			t := ui.Current()
			src := app.cfg.Source
			if src == "" {
				src = "(defaults)"
			}
			lines := []string{
				t.Title.Render("Todos") + "   " + ui.Connectivity(app.monitor.Online()),
				fmt.Sprintf("total:     %d", len(items)),
				fmt.Sprintf("remaining: %d", todo.RemainingCount(items)),
				fmt.Sprintf("pending:   %d", todo.UnsyncedCount(items)),
				"",
				t.Muted.Render("store:  " + app.cfg.Backend + " in " + app.cfg.DataDir),
				t.Muted.Render("config: " + src),
			}
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
}

func noArgs(usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func oneID(usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usagef("usage: %s", usage)
		}
		if _, err := parseID(args[0]); err != nil {
			return usagef("%s: not an id: %s", cmd.Name(), args[0])
		}
		return nil
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
