package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"buscontrol/internal/report"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "1.0.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), report.SystemLabel)
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", runtime.Version())
		},
	}
}
