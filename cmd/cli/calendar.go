package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func NewCalendarCommand(opts *RootOptions) *cobra.Command {
	now := time.Now()
	var year, month int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show scheduled articles and links for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			days, err := a.Services.Calendar.Month(opts.context(cmd), year, time.Month(month))
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), days, func(w io.Writer) {
				if len(days) == 0 {
					fmt.Fprintln(w, "Nothing scheduled.")
				}
				for _, d := range days {
					fmt.Fprintln(w, d.Date)
					for _, it := range d.Items {
						fmt.Fprintf(w, "  %-7s  %s", it.Type, it.Title)
						if it.ColumnTitle != "" {
							fmt.Fprintf(w, "  (%s)", it.ColumnTitle)
						}
						fmt.Fprintln(w)
					}
				}
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", now.Year(), "year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month (1-12)")
	return cmd
}
