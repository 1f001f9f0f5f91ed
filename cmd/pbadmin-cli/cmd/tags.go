package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
)

var resolveThreshold float64

func init() {
	resolveCmd.Flags().Float64Var(&resolveThreshold, "threshold", pbadmin.DefaultMatchThreshold, "minimum name similarity")
	tagsCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Tag utilities.",
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Matches free-text names against the existing tags.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client
		resolved, unresolved, err := client.Tags.Resolve(cmd.Context(), args, resolveThreshold)
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Name", "Tag ID", "Tag", "Similarity"})
		for _, name := range args {
			match, ok := resolved[name]
			if !ok {
				continue
			}
			t.AppendRow(table.Row{name, match.Tag.ID, match.Tag.Name, fmt.Sprintf("%.3f", match.Similarity)})
		}
		for _, name := range unresolved {
			t.AppendRow(table.Row{name, "-", "-", "-"})
		}
		t.Render()
		return nil
	},
}
