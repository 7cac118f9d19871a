package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List, export and import columns",
	}
	cmd.AddCommand(newColumnsListCommand(rootOpts))
	cmd.AddCommand(newColumnsExportCommand(rootOpts))
	cmd.AddCommand(newColumnsImportCommand(rootOpts))
	return cmd
}

func newColumnsListCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List columns, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cols, err := a.Columns.ListColumns(opts.context(cmd), limit, "")
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), cols, func(w io.Writer) {
				for _, c := range cols {
					fmt.Fprintf(w, "%-26s  %-24s  %3d link(s)  %s\n", c.DocumentID, c.Slug, len(c.Links), c.Title)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "maximum number of columns")
	return cmd
}

func newColumnsExportCommand(opts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export columns with their links as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cols, err := a.Columns.ListColumns(opts.context(cmd), 100, "")
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(cols); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d columns to %s\n", len(cols), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "file to write (defaults to stdout)")
	return cmd
}

func newColumnsImportCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create columns from an export file; existing slugs are skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var cols []domain.Column
			if err := json.Unmarshal(raw, &cols); err != nil {
				return fmt.Errorf("invalid export file: %w", err)
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			created, skipped := 0, 0
			for _, c := range cols {
				_, err := a.Columns.CreateColumn(opts.context(cmd), domain.ColumnForm{
					Title:       c.Title,
					Slug:        c.Slug,
					Description: c.Description,
					CoverID:     c.CoverID,
					AuthorID:    c.AuthorID,
					Links:       c.Links,
				})
				var ce *domain.ConflictError
				switch {
				case errors.As(err, &ce):
					skipped++
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", c.Slug, err)
				case err != nil:
					return fmt.Errorf("import %s: %w", c.Slug, err)
				default:
					created++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d columns, skipped %d\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
