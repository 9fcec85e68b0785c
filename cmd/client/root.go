package client

import (
	"context"

	"github.com/akeylesspro/nx-data-socket/cmd/util"
	"github.com/akeylesspro/nx-data-socket/rpc/client"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLogger("client")

var (
	rpcClient *client.Client

	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:                "client",
		Short:              "Interact with a running relay server",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: closeClient,
	}
)

func init() {
	// Add connection flags to the client command
	util.SetupClientFlags(ClientCommands)

	key := "log-level"
	ClientCommands.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add subcommands
	ClientCommands.AddCommand(getCmd)
	ClientCommands.AddCommand(setCmd)
	ClientCommands.AddCommand(enqueueCmd)
	ClientCommands.AddCommand(subscribeCmd)
	ClientCommands.AddCommand(perfTestCmd)
}

// setupClient connects the relay client used by the subcommands
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()
	if err := common.InitLoggers(cmd.Flag("log-level").Value.String()); err != nil {
		return err
	}

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()

	rpcClient, err = client.Dial(ctx, *config, t, s)
	return err
}

func closeClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
