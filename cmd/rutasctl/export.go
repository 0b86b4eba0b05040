package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buscontrol/internal/report"
	"buscontrol/internal/service"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var method, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active records as XML or XLSX",
		Long: `Write the active trip records, newest departure first.

Methods:
  declarative  generic mapping rendered to XML (no attributes)
  structural   explicitly built XML with namespace, attributes and numbering
  xlsx         spreadsheet with the same field formatting`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if method != string(report.MethodSpreadsheet) {
				if _, err := report.ParseMethod(method); err != nil {
					return err
				}
			}

			svc, closeFn, err := opts.reportService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var doc *service.Document
			if method == string(report.MethodSpreadsheet) {
				doc, err = svc.ExportSpreadsheet(cmd.Context())
			} else {
				doc, err = svc.ExportXML(cmd.Context(), method)
			}
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(doc.Body)
				return err
			}
			if err := os.WriteFile(out, doc.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", doc.Records, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", string(report.MethodStructural), "Export method: declarative, structural or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	return cmd
}
