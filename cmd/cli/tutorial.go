package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewTutorialCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Inspect or reset onboarding tour flags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List completed tours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			states, err := a.Services.Tutorials.List(opts.context(cmd))
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), states, func(w io.Writer) {
				for _, s := range states {
					at := "-"
					if s.CompletedAt != nil {
						at = s.CompletedAt.Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "%-20s  %s\n", s.Feature, at)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete <feature>",
		Short: "Mark a tour as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Services.Tutorials.Complete(opts.context(cmd), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <feature>",
		Short: "Show a tour again next time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Services.Tutorials.Reset(opts.context(cmd), args[0])
		},
	})

	return cmd
}
