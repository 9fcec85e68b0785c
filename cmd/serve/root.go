package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cmdUtil "github.com/akeylesspro/nx-data-socket/cmd/util"
	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/akeylesspro/nx-data-socket/lib/store/mstore"
	"github.com/akeylesspro/nx-data-socket/lib/store/rstore"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/serializer"
	"github.com/akeylesspro/nx-data-socket/rpc/server"
	"github.com/akeylesspro/nx-data-socket/rpc/transport/ws"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectTimeout bounds the initial connection to the store
const connectTimeout = 10 * time.Second

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the relay server",
		Long:    `Start the relay server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is NXDS_<flag> (e.g. NXDS_REDIS_ADDR=redis:6379)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the HTTP api (and the websocket endpoint) will listen"))

	key = "mode"
	ServeCmd.PersistentFlags().String(key, "qa", cmdUtil.WrapString("Deployment mode reported by the HTTP api (qa, prod)"))

	key = "socket-path"
	ServeCmd.PersistentFlags().String(key, ws.DefaultSocketPath, cmdUtil.WrapString("HTTP path of the websocket endpoint (only for the ws transport)"))

	key = "allowed-origins"
	ServeCmd.PersistentFlags().String(key, "*", cmdUtil.WrapString("Comma-separated list of origins allowed to open a websocket, * allows any origin"))

	key = "transport-endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8081", cmdUtil.WrapString("The address (tcp) or socket path (unix) the framed socket transports listen on"))

	key = "max-message-size"
	ServeCmd.PersistentFlags().Int64(key, 1024, cmdUtil.WrapString("Maximum size of an inbound message (in KB)"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Duration(key, 10*time.Second, cmdUtil.WrapString("Maximum time to write a single message to a client"))

	key = "ping-interval"
	ServeCmd.PersistentFlags().Duration(key, 25*time.Second, cmdUtil.WrapString("Websocket keepalive interval, a client is dropped after two intervals without traffic (0 disables pings)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for the tcp transport)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("TCP keepalive interval in seconds (only for the tcp transport, 0 disables it)"))

	key = "store"
	ServeCmd.PersistentFlags().String(key, "redis", cmdUtil.WrapString("Backing store (redis, memory). The memory store only serves a single relay"))

	key = "redis-addr"
	ServeCmd.PersistentFlags().String(key, "localhost:6379", cmdUtil.WrapString("Address of the Redis server"))

	key = "redis-password"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Password of the Redis server"))

	key = "redis-db"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Redis database index"))

	key = "snapshot-scan"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("List snapshot keys with SCAN and this COUNT hint instead of KEYS (0 uses KEYS)"))

	key = "data-update-prefix"
	ServeCmd.PersistentFlags().String(key, "data_update", cmdUtil.WrapString("Channel prefix of change notifications (<prefix>:<collection>:<documentId>)"))

	key = "write-request-prefix"
	ServeCmd.PersistentFlags().String(key, "firebase_write_request", cmdUtil.WrapString("Channel prefix of durable write requests (<prefix>:<collection>)"))

	key = "send-buffer"
	ServeCmd.PersistentFlags().Int(key, 256, cmdUtil.WrapString("Number of outbound messages queued per connection, broadcasts to a full queue are dropped"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 32, cmdUtil.WrapString("Maximum number of requests handled concurrently per connection"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Mode = strings.ToLower(viper.GetString("mode"))
	serveCmdConfig.Version = cmdUtil.Version
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.DataUpdatePrefix = viper.GetString("data-update-prefix")
	serveCmdConfig.WriteRequestPrefix = viper.GetString("write-request-prefix")
	serveCmdConfig.SendBuffer = viper.GetInt("send-buffer")
	serveCmdConfig.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	serveCmdConfig.Transport = common.ServerTransportConfig{
		Type:            viper.GetString("transport"),
		Endpoint:        viper.GetString("transport-endpoint"),
		SocketPath:      viper.GetString("socket-path"),
		AllowedOrigins:  splitList(viper.GetString("allowed-origins")),
		MaxMessageSize:  viper.GetInt64("max-message-size") * 1024,
		WriteTimeout:    viper.GetDuration("write-timeout"),
		PingInterval:    viper.GetDuration("ping-interval"),
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
	}

	serveCmdConfig.Store = common.StoreConfig{
		Type:              viper.GetString("store"),
		RedisAddr:         viper.GetString("redis-addr"),
		RedisPassword:     viper.GetString("redis-password"),
		RedisDB:           viper.GetInt("redis-db"),
		SnapshotScanCount: viper.GetInt64("snapshot-scan"),
	}

	// validate
	if serveCmdConfig.Mode != "qa" && serveCmdConfig.Mode != "prod" {
		return fmt.Errorf("invalid mode %s (expected qa or prod)", serveCmdConfig.Mode)
	}
	if serveCmdConfig.Store.Type != "redis" && serveCmdConfig.Store.Type != "memory" {
		return fmt.Errorf("invalid store %s (expected redis or memory)", serveCmdConfig.Store.Type)
	}
	if serveCmdConfig.SendBuffer < 1 {
		return fmt.Errorf("send-buffer must be at least 1")
	}
	if serveCmdConfig.DataUpdatePrefix == "" || serveCmdConfig.WriteRequestPrefix == "" {
		return fmt.Errorf("channel prefixes must not be empty")
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the relay server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := serializer.New(serveCmdConfig.Serializer)
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport(serveCmdConfig.Transport.Type)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, serveCmdConfig.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close store: %v\n", err)
		}
	}()

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
		st,
	)

	return serv.Serve(ctx)
}

// openStore creates the configured backing store
func openStore(ctx context.Context, config common.StoreConfig) (store.IStore, error) {
	switch config.Type {
	case "memory":
		return mstore.NewMemoryStore(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		st, err := rstore.NewRedisStore(ctx, rstore.Options{
			Addr:      config.RedisAddr,
			Password:  config.RedisPassword,
			DB:        config.RedisDB,
			ScanCount: config.SnapshotScanCount,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("invalid store %s", config.Type)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
