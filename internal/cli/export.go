package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/todolist"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

func (a *app) newExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current list as JSON or YAML",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return usagef("export: unknown format %q (want json or yaml)", format)
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

			if out == "" || out == "-" {
				return encodeSnapshot(cmd.OutOrStdout(), format, snap)
			}
			if err := writeExport(out, format, snap); err != nil {
				return err
			}
			ui.OK(cmd.ErrOrStderr(), fmt.Sprintf("exported %d todos to %s", snap.Len(), out))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func encodeSnapshot(w io.Writer, format string, s model.Snapshot) error {
	items := s.Items
	if items == nil {
		items = []model.Todo{}
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// writeExport writes to a temp file next to path and renames it into place.
func writeExport(path, format string, s model.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := encodeSnapshot(f, format, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return os.Rename(tmp, path)
}
