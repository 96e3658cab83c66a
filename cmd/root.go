package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dbaldassi/nocturna-sub000/internal/ui"
	"github.com/dbaldassi/nocturna-sub000/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "nocturna",
	Short:   "Peer-to-peer multiplayer client for Nocturna, using WebRTC data channels",
	Long:    `Nocturna is a command-line multiplayer client. It creates or joins a room on the signaling server, negotiates a direct WebRTC data channel with every other player, and exchanges game-state updates peer to peer without routing gameplay traffic through the server.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
