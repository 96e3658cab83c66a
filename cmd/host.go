package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbaldassi/nocturna-sub000/internal/ui"
)

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"h"},
	Short:   "Create a room and wait for other players",
	Long: `Create a new room on the signaling server, join it, and wait for
other players to connect.

Examples:
  nocturna host
  nocturna host --name luna
  nocturna host --domain play.example.com --insecure`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostRoom()
	},
}

func hostRoom() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, err := connect(cfg)
	if err != nil {
		return err
	}

	manager.CreateRoom()
	roomID, err := waitForRoomCreated(manager)
	if err != nil {
		manager.Close()
		return err
	}

	ui.RenderRoomInfo(roomID)
	fmt.Println()

	return runSession(manager, roomID, localPlayerID())
}

func init() {
	rootCmd.AddCommand(hostCmd)
	registerSessionFlags(hostCmd)
}
