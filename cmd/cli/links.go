package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List or append links of a column",
	}
	cmd.AddCommand(newLinksListCommand(rootOpts))
	cmd.AddCommand(newLinksAddCommand(rootOpts))
	return cmd
}

func newLinksListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <column-id>",
		Short: "List the links of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			col, err := a.Columns.GetColumn(opts.context(cmd), args[0])
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), col.Links, func(w io.Writer) {
				printLinks(w, col.Links)
			})
		},
	}
}

type linksAddOptions struct {
	Label       string
	URL         string
	Description string
	PublishDate string
	File        string
}

func newLinksAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &linksAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <column-id>",
		Short: "Append links to a column",
		Long: `Append links to a column without touching the existing ones.

Either pass a single link with flags or a JSON array with --file.

Example:
  editor links add doc-123 --label "Go 1.24" --url https://go.dev/blog/go1.24 --publish-date 2025-02-11`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := opts.batch()
			if err != nil {
				return err
			}

			a, err := rootOpts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Columns.AddLinks(rootOpts.context(cmd), args[0], batch)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "Added %d link(s) to %s (%d total)\n", len(res.Added), res.Ref.Canonical(), len(res.Column.Links))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Label, "label", "", "link label")
	cmd.Flags().StringVar(&opts.URL, "url", "", "link url")
	cmd.Flags().StringVar(&opts.Description, "description", "", "link description")
	cmd.Flags().StringVar(&opts.PublishDate, "publish-date", "", "publish date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&opts.File, "file", "", "JSON file holding an array of links")

	return cmd
}

func (o *linksAddOptions) batch() ([]domain.LinkRecord, error) {
	if o.File != "" {
		raw, err := os.ReadFile(o.File)
		if err != nil {
			return nil, err
		}
		var links []domain.LinkRecord
		if err := json.Unmarshal(raw, &links); err != nil {
			return nil, fmt.Errorf("invalid links file: %w", err)
		}
		return links, nil
	}

	if o.URL == "" && o.Label == "" {
		return nil, nil
	}
	l := domain.LinkRecord{Label: o.Label, URL: o.URL}
	if o.Description != "" {
		l.Description = &o.Description
	}
	at, err := domain.ParseTime(o.PublishDate)
	if err != nil {
		return nil, fmt.Errorf("invalid --publish-date: %w", err)
	}
	l.PublishDate = at
	return []domain.LinkRecord{l}, nil
}

func printLinks(w io.Writer, links []domain.LinkRecord) {
	for i, l := range links {
		date := "-"
		if l.PublishDate != nil {
			date = l.PublishDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%3d  %-10s  %s  %s\n", i+1, date, l.Label, l.URL)
	}
}
