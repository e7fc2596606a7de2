package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/todolist"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <content...>",
		Short: "Add a todo (content can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: todo add <content...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := a.actions()
			if err != nil {
				return err
			}
			if _, err := acts.Create(cmd.Context(), strings.Join(args, " ")); err != nil {
				if errors.Is(err, todolist.ErrEmptyContent) {
					return usagef("add: empty content")
				}
				return err
			}
			ui.OK(cmd.OutOrStdout(), "added")
			return nil
		},
	}
}

func (a *app) newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle done for the todo at a 1-based index",
		Args:  exactArgs(1, "todo done <index>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, t, err := a.resolve(cmd, "done", args[0])
			if err != nil {
				return err
			}
			if _, err := acts.Toggle(cmd.Context(), t.ID, t.IsDone); err != nil {
				return err
			}
			if t.IsDone {
				ui.OK(cmd.OutOrStdout(), "marked pending: "+t.Content)
			} else {
				ui.OK(cmd.OutOrStdout(), "marked done: "+t.Content)
			}
			return nil
		},
	}
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove the todo at a 1-based index",
		Args:    exactArgs(1, "todo rm <index>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, t, err := a.resolve(cmd, "rm", args[0])
			if err != nil {
				return err
			}
			if err := acts.Delete(cmd.Context(), t.ID); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "removed: "+t.Content)
			return nil
		},
	}
}

// resolve maps a 1-based index argument to the todo at that position in
// the current snapshot.
func (a *app) resolve(cmd *cobra.Command, name, arg string) (*todolist.Actions, model.Todo, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, model.Todo{}, usagef("%s: not a number: %s", name, arg)
	}
	acts, err := a.actions()
	if err != nil {
		return nil, model.Todo{}, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), snapshotWait)
	defer cancel()
	snap, err := todolist.FirstSnapshot(ctx, a.client)
	if err != nil {
		return nil, model.Todo{}, err
	}
	t, err := todolist.Resolve(snap, n)
	if err != nil {
		return nil, model.Todo{}, err
	}
	return acts, t, nil
}
