package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
)

var (
	listSearch  string
	listLimit   int
	listSkipBad bool
)

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "server side search term")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "stop after this many rows, 0 lists everything")
	listCmd.Flags().BoolVar(&listSkipBad, "skip-bad", false, "skip rows that fail to decode instead of aborting")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "Lists the records of a resource.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := lookupResource(args[0])
		if err != nil {
			return err
		}
		opts := pbadmin.ListOptions{
			Search: listSearch,
			Limit:  listLimit,
		}
		if listSkipBad {
			opts.Policy = nova.SkipAndRecord
		}

		res, err := r.list(cmd.Context(), globals.Get(cmd.Context()).Client, opts)
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(r.header)
		t.AppendRows(res.rows)
		t.Render()

		for _, skipped := range res.skipped {
			slog.Warn("skipped row", "resource", skipped.Resource, "id", skipped.RowID, "err", skipped.Err)
		}
		if len(res.skipped) > 0 {
			fmt.Printf("%d rows skipped\n", len(res.skipped))
		}
		return nil
	},
}
