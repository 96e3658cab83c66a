package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id>",
	Aliases: []string{"j"},
	Short:   "Join an existing room",
	Long: `Join a room created by another player. The room id is the one the
host shared with you.

Examples:
  nocturna join dusk-owl-tower
  nocturna join dusk-owl-tower --name nyx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one room id")
		}
		return joinRoom(args[0])
	},
}

func joinRoom(roomID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, err := connect(cfg)
	if err != nil {
		return err
	}

	return runSession(manager, roomID, localPlayerID())
}

func init() {
	rootCmd.AddCommand(joinCmd)
	registerSessionFlags(joinCmd)
}
