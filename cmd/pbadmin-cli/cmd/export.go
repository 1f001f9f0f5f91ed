package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
	"github.com/vcslav-v/pb-admin/lib/exportstore"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
	"github.com/vcslav-v/pb-admin/lib/telemetry"
)

var (
	exportConfig       exportstore.Config
	exportPerfInterval time.Duration
)

func init() {
	exportCmd.Flags().StringVar(&exportConfig.File, "db", "pbadmin-export.db", "sqlite file to export into")
	exportCmd.Flags().StringVar(&exportConfig.URL, "url", "", "libsql database url, takes precedence over --db")
	exportCmd.Flags().StringVar(&exportConfig.AuthToken, "token", "", "libsql auth token")
	exportCmd.Flags().DurationVar(&exportPerfInterval, "perf-interval", 0, "record process stats at this interval, 0 disables")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [resource]...",
	Short: "Snapshots resources into a sqlite or libsql database. Exports everything without arguments.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		names := args
		if len(names) == 0 {
			names = resourceNames()
		}
		selected := make([]resourceCommands, len(names))
		for i, name := range names {
			r, err := lookupResource(name)
			if err != nil {
				return err
			}
			selected[i] = r
		}

		if exportPerfInterval > 0 {
			telemetry.InstrumentPerfStats(ctx, exportPerfInterval)
		}

		store, err := exportstore.Open(ctx, exportConfig)
		if err != nil {
			return err
		}
		defer store.Close()

		client := globals.Get(ctx).Client
		t := utils.NewTable()
		t.AppendHeader(table.Row{"Resource", "Previous", "Exported", "Skipped", "Took"})
		for i, r := range selected {
			previous := "-"
			last, ok, err := store.LastRun(ctx, names[i])
			if err != nil {
				return err
			}
			if ok {
				previous = fmt.Sprintf("%d on %s", last.Count, last.FinishedAt.Format(time.DateTime))
			}

			startedAt := time.Now()
			res, err := r.list(ctx, client, pbadmin.ListOptions{Policy: nova.SkipAndRecord})
			if err != nil {
				slog.ErrorContext(ctx, "failed to list resource", "resource", names[i], "err", err)
				return err
			}
			run, err := res.export(ctx, store, startedAt)
			if err != nil {
				return err
			}
			t.AppendRow(table.Row{names[i], previous, run.Count, run.Skipped, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)})
		}
		t.Render()
		return nil
	},
}
