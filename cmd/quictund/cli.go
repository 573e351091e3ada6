package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quictun/quictund/pkg/shared"
)

var rootCmd = &cobra.Command{
	Use:   "quictund",
	Short: "QUIC tunnel server",
	Long: `quictund is the server half of a QUIC-based TCP tunneling service.

Clients authenticate over a QUIC connection and either ask the server to
dial a downstream TCP address on their behalf (Out mode) or ask the server
to expose a public TCP listener and forward accepted sockets back to the
client (In mode).`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the quictund version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("quictund v1.0.0")
	},
}

func init() {
	shared.InitLogger(&shared.LogConfig{
		Level:     shared.ParseLevel("info"),
		Format:    "text",
		AddSource: false,
	})

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}
