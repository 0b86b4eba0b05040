package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"buscontrol/internal/app"
	"buscontrol/internal/config"
	"buscontrol/internal/repository/postgres"
	"buscontrol/internal/service"
)

// connectTimeout bounds opening the database.
const connectTimeout = 10 * time.Second

// sourceOpener opens the record source for a command. Tests replace it.
type sourceOpener func(ctx context.Context, cfg *config.Config) (service.RecordSource, func(), error)

// openPostgres reads active records directly from PostgreSQL.
func openPostgres(ctx context.Context, cfg *config.Config) (service.RecordSource, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewTripRecordRepository(db), func() { db.Close() }, nil
}

type rootOptions struct {
	cfgFile string
	open    sourceOpener
}

// reportService loads configuration, opens the source and returns a report
// service over it together with its cleanup.
func (o *rootOptions) reportService(ctx context.Context) (*service.ReportService, func(), error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	source, closeFn, err := o.open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewReportService(source, nil, nil), closeFn, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openPostgres)
}

func newRootCmdWith(open sourceOpener) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "rutasctl",
		Short: "Statistics and exports for bus route trip records",
		Long: `rutasctl reads the active trip records from PostgreSQL and prints the
per-route statistics or writes one of the exports.

Example Usage:
  rutasctl stats
  rutasctl export --method structural --out rutas.xml
  rutasctl export --method xlsx --out rutas.xlsx --config ./config.yml`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.SetupLogging(cmd.ErrOrStderr(), "[rutasctl]")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Path to a YAML configuration file")

	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
