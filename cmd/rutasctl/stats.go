package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"buscontrol/internal/handler"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-route statistics as JSON, in the API response shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.reportService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := svc.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(handler.NewStatisticsResponse(summary))
		},
	}
}
