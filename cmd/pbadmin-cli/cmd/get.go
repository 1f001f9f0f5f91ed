package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <resource> <id>",
	Short: "Prints one record of a resource as json.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := lookupResource(args[0])
		if err != nil {
			return err
		}
		if r.get == nil {
			return fmt.Errorf("%s can only be listed", args[0])
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}

		record, err := r.get(cmd.Context(), globals.Get(cmd.Context()).Client, id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}
