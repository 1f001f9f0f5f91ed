package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
)

var pushType string

func init() {
	pushCmd.Flags().StringVarP(&pushType, "type", "t", string(pbadmin.ProductFreebie), "product type: freebie, premium or plus")
	rootCmd.AddCommand(pushCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push <product id>...",
	Short: "Sends a push notification for the given products. Needs --edit.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := utils.ParseIDs(args)
		if err != nil {
			return err
		}
		client := globals.Get(cmd.Context()).Client
		err = client.Tools.MakePush(cmd.Context(), ids, pbadmin.ProductType(pushType))
		if err != nil {
			return err
		}
		fmt.Printf("push sent for %d products\n", len(ids))
		return nil
	},
}
