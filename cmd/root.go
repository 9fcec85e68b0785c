package cmd

import (
	"fmt"
	"os"

	"github.com/akeylesspro/nx-data-socket/cmd/client"
	"github.com/akeylesspro/nx-data-socket/cmd/serve"
	"github.com/akeylesspro/nx-data-socket/cmd/util"
	"github.com/spf13/cobra"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "nxds",
		Short: "real-time data socket relay",
		Long: fmt.Sprintf(`nxds (v%s)

A real-time relay between a shared Redis store and websocket clients.
Clients subscribe to collections, receive a snapshot and every later
change, and read or write records directly.`, util.Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of nxds",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nxds v%s\n", util.Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, cbor)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "ws", util.WrapString("transport to use (ws, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
