package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbaldassi/nocturna-sub000/internal/config"
	"github.com/dbaldassi/nocturna-sub000/internal/netplay"
	"github.com/dbaldassi/nocturna-sub000/internal/ui"
)

var (
	flagName     string
	flagDomain   string
	flagInsecure bool
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

// signalingTimeout bounds how long we wait for any single server reply.
const signalingTimeout = 30 * time.Second

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		Domain:     flagDomain,
		Insecure:   flagInsecure,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
}

// localPlayerID returns the --name flag, or a generated id when the
// player didn't pick one.
func localPlayerID() string {
	if flagName != "" {
		return flagName
	}
	return "player-" + uuid.New().String()[:8]
}

func connect(cfg *config.Config) (*netplay.Manager, error) {
	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()

	manager, err := netplay.Dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to server: %w", err)
	}
	return manager, nil
}

func waitForRoomCreated(m *netplay.Manager) (string, error) {
	for {
		select {
		case e, ok := <-m.Events():
			if !ok {
				return "", fmt.Errorf("connection to server lost")
			}
			switch e := e.(type) {
			case netplay.RoomCreated:
				return e.RoomID, nil
			case netplay.CreateFailed:
				return "", fmt.Errorf("create room: %s", e.Reason)
			}
		case <-time.After(signalingTimeout):
			return "", fmt.Errorf("timed out waiting for the server")
		}
	}
}

func waitForRoomJoined(m *netplay.Manager) (netplay.RoomJoined, error) {
	for {
		select {
		case e, ok := <-m.Events():
			if !ok {
				return netplay.RoomJoined{}, fmt.Errorf("connection to server lost")
			}
			switch e := e.(type) {
			case netplay.RoomJoined:
				return e, nil
			case netplay.JoinFailed:
				return netplay.RoomJoined{}, fmt.Errorf("join room: %s", e.Reason)
			}
		case <-time.After(signalingTimeout):
			return netplay.RoomJoined{}, fmt.Errorf("timed out waiting for the server")
		}
	}
}

// runSession joins roomID and hands the session to the lobby until the
// player leaves.
func runSession(m *netplay.Manager, roomID, playerID string) error {
	defer m.Close()

	m.JoinRoom(roomID, playerID)
	joined, err := waitForRoomJoined(m)
	if err != nil {
		return err
	}

	summary, err := ui.RunLobby(m, joined.RoomID, joined.PlayerID, joined.Participants)
	if err != nil {
		return err
	}

	fmt.Println()
	ui.RenderSessionSummary(summary)
	return nil
}

func registerSessionFlags(c *cobra.Command) {
	c.Flags().StringVarP(&flagName, "name", "n", "", "Player name shown to other players")
	c.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom server domain")
	c.Flags().BoolVar(&flagInsecure, "insecure", false, "Use ws:// instead of wss://")
	c.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	c.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	c.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	c.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
}
