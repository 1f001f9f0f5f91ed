package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
)

func init() {
	groupsCmd.AddCommand(membersCmd)
	groupsCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "User group membership.",
}

var membersCmd = &cobra.Command{
	Use:   "members <group id>",
	Short: "Lists the user ids in a group.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id %q", args[0])
		}
		members, err := globals.Get(cmd.Context()).Client.UserGroups.Members(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, member := range members {
			fmt.Println(member)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <group id> <user id>...",
	Short: "Makes the group contain exactly the given users. Needs --edit.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id %q", args[0])
		}
		users, err := utils.ParseIDs(args[1:])
		if err != nil {
			return err
		}
		diff, err := globals.Get(cmd.Context()).Client.UserGroups.SetMembers(cmd.Context(), id, users)
		if err != nil {
			return err
		}
		fmt.Printf("added %d, removed %d\n", len(diff.Added), len(diff.Removed))
		return nil
	},
}
