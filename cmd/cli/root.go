package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/strapi"
	"github.com/wadjakorntonsri/editor-cms/pkg/app"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	Token  string // CMS user token; the API token is used when empty

	// newApp builds the application; tests swap it for a fake CMS.
	newApp func() (*app.App, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the editor CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{newApp: defaultApp})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "editor",
		Short:         "Editor CMS command line",
		Long:          "Manage columns, links, the publication calendar and onboarding flags of the editorial CMS.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "CMS user token (defaults to STRAPI_API_TOKEN)")

	cmd.AddCommand(NewLinksCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))
	cmd.AddCommand(NewCalendarCommand(opts))
	cmd.AddCommand(NewTutorialCommand(opts))

	return cmd
}

func defaultApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}

func (o *RootOptions) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Token != "" {
		ctx = strapi.WithToken(ctx, o.Token)
	}
	return ctx
}

// emit writes v as JSON, or calls text for the human format.
func (o *RootOptions) emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
