package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/todolist"
	"github.com/idilsaglam/tada-sync/internal/tui"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

func (a *app) runInteractive(cmd *cobra.Command) error {
	acts, err := a.actions()
	if err != nil {
		return err
	}
	signedOut, err := tui.Run(cmd.Context(), a.client, tui.Options{
		Actions: acts,
		LoginID: a.loginID(),
		SignOut: a.session.SignOut,
	})
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if signedOut {
		ui.OK(cmd.OutOrStdout(), "signed out")
	}
	return nil
}

func (a *app) newListCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the list (interactive unless --plain)",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !plain {
				return a.runInteractive(cmd)
			}
			c, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), snapshotWait)
			defer cancel()
			snap, err := todolist.FirstSnapshot(ctx, c)
			if err != nil {
				return err
			}
			a.printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the list once instead of opening the interactive view")
	return cmd
}

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the list every time it changes, until interrupted",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.backend()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ch := make(chan model.Snapshot, 1)
			sub, err := c.Subscribe(ctx, func(s model.Snapshot) {
				select {
				case ch <- s:
				case <-ctx.Done():
				}
			})
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			defer sub.Unsubscribe()

			for {
				select {
				case s := <-ch:
					a.printSnapshot(cmd.OutOrStdout(), s)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
}

// printSnapshot draws one snapshot as a framed panel.
func (a *app) printSnapshot(w io.Writer, s model.Snapshot) {
	t := ui.Current()
	lines := []string{
		t.Title.Render(ui.HeaderTitle(a.loginID())),
		ui.Counts(s),
		ui.ProgressBar(s.Completed(), s.Len(), 20),
		"",
	}
	if a.cfg.Group {
		lines = append(lines, ui.GroupLines(s.Items)...)
	} else {
		lines = append(lines, ui.ListLines(s.Items)...)
	}
	footer := todolist.Summary(s)
	if !s.Synced {
		footer += " (syncing…)"
	}
	lines = append(lines, "", t.Muted.Render(footer))
	ui.Panel(w, lines)
}
