package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/service/export"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <entity> <file>",
		Short: "Check an import file without sending it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := editor.Lookup(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			n, err := f.Parse(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s ok\n", filepath.Base(args[1]), n, f.Entity.Title)
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Import templates from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			wf, ctx, err := opts.workflow(cmd, args[0])
			if err != nil {
				return err
			}

			res, err := wf.Import(ctx, data)
			for _, msg := range res.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d %s\n", res.Created, res.Total, wf.Entity().Title)
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var slug, out string

	cmd := &cobra.Command{
		Use:   "export <entity>",
		Short: "Download templates as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, ctx, err := opts.workflow(cmd, args[0])
			if err != nil {
				return err
			}
			if err := wf.Refresh(ctx); err != nil {
				return err
			}

			var file editor.File
			if slug != "" {
				file, err = wf.ExportOne(slug)
			} else {
				file, err = wf.ExportAll()
			}
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(file.Data)
				return err
			}
			path := out
			if path == "" {
				path = file.Name
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, file.Name)
			}
			if err := os.WriteFile(path, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "export a single template")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory, - for stdout")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var sortField string

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "Print templates of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, ctx, err := opts.workflow(cmd, args[0])
			if err != nil {
				return err
			}
			if err := wf.Refresh(ctx); err != nil {
				return err
			}
			if sortField != "" {
				if err := wf.SetSort(sortField); err != nil {
					return err
				}
			}

			rows, err := wf.Rows()
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s\n", wf.Entity().Title)
				return nil
			}

			columns := listColumns(export.Columns(rows))
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
			for _, row := range rows {
				cells := make([]string, len(columns))
				for i, col := range columns {
					cells[i] = cell(row[col])
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&sortField, "sort", "", "sort field (artifacts: baseChance, rarity)")
	return cmd
}

// listColumns — ключевые столбцы, остальное смотрится через export.
func listColumns(all []string) []string {
	const limit = 5
	if len(all) > limit {
		return all[:limit]
	}
	return all
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case map[string]any:
		if en, ok := t["en"]; ok {
			return fmt.Sprint(en)
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
