package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig configures how clients connect to the server.
type ServerTransportConfig struct {
	// Type is one of "ws", "tcp" or "unix"
	Type string
	// Endpoint is the listen address of the tcp and unix transports
	// (the websocket transport is served on ServerConfig.Endpoint)
	Endpoint string
	// SocketPath is the HTTP path of the websocket endpoint
	SocketPath string
	// AllowedOrigins restricts websocket upgrades, empty or "*" accepts any origin
	AllowedOrigins []string
	// MaxMessageSize limits inbound messages in bytes
	MaxMessageSize int64
	// WriteTimeout bounds a single write to the connection
	WriteTimeout time.Duration
	// PingInterval is the websocket keepalive interval, zero disables pings
	PingInterval time.Duration
	// TCPNoDelay disables Nagle's algorithm on tcp connections
	TCPNoDelay bool
	// TCPKeepAliveSec enables tcp keepalive with this period, zero disables it
	TCPKeepAliveSec int
}

// StoreConfig selects and configures the backing store.
type StoreConfig struct {
	// Type is one of "redis" or "memory"
	Type string
	// Redis connection
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// SnapshotScanCount switches snapshot key listing from KEYS to SCAN, zero keeps KEYS
	SnapshotScanCount int64
}

// ServerConfig holds all configuration parameters of the relay server.
type ServerConfig struct {
	// HTTP api settings
	Endpoint string
	Mode     string
	Version  string

	Transport  ServerTransportConfig
	Serializer string
	Store      StoreConfig

	// Channel naming
	DataUpdatePrefix   string
	WriteRequestPrefix string

	// SendBuffer is the number of outbound events queued per connection
	SendBuffer int
	// WorkersPerConn limits the requests handled concurrently per connection
	WorkersPerConn int

	// Logging configuration
	LogLevel string
}

// IsProd reports whether the server runs in production mode
func (c *ServerConfig) IsProd() bool {
	return strings.EqualFold(c.Mode, "prod")
}

// ModeLabel returns the upper case mode name shown by the HTTP api
func (c *ServerConfig) ModeLabel() string {
	if c.IsProd() {
		return "PROD"
	}
	return "QA"
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// HTTP settings
	addSection("HTTP Server")
	addField("Endpoint", c.Endpoint)
	addField("Mode", c.ModeLabel())
	addField("Version", c.Version)

	// Transport settings
	addSection("Transport")
	addField("Type", c.Transport.Type)
	if c.Transport.Type == "ws" {
		addField("Socket Path", c.Transport.SocketPath)
		addField("Allowed Origins", originsString(c.Transport.AllowedOrigins))
		addField("Ping Interval", c.Transport.PingInterval.String())
	} else {
		addField("Endpoint", c.Transport.Endpoint)
	}
	addField("Serializer", c.Serializer)
	addField("Max Message Size", fmt.Sprintf("%d bytes", c.Transport.MaxMessageSize))
	addField("Write Timeout", c.Transport.WriteTimeout.String())
	addField("Send Buffer", strconv.Itoa(c.SendBuffer))
	addField("Workers Per Conn", strconv.Itoa(c.WorkersPerConn))

	// Store settings
	addSection("Store")
	addField("Type", c.Store.Type)
	if c.Store.Type == "redis" {
		addField("Address", c.Store.RedisAddr)
		addField("Database", strconv.Itoa(c.Store.RedisDB))
		addField("Password", maskSecret(c.Store.RedisPassword))
		if c.Store.SnapshotScanCount > 0 {
			addField("Snapshot Listing", fmt.Sprintf("SCAN (count %d)", c.Store.SnapshotScanCount))
		} else {
			addField("Snapshot Listing", "KEYS")
		}
	}

	// Channels
	addSection("Channels")
	addField("Data Updates", c.DataUpdatePrefix+":<collection>:<documentId>")
	addField("Write Requests", c.WriteRequestPrefix+":<collection>")

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of the Go client.
type ClientConfig struct {
	// Endpoint is a websocket URL (ws://host:port/path) or a tcp/unix address
	Endpoint string
	// Transport is one of "ws", "tcp" or "unix"
	Transport string
	// Serializer must match the server
	Serializer string
	// TimeoutSecond bounds connecting and waiting for an acknowledgement
	TimeoutSecond int
	// TCPNoDelay disables Nagle's algorithm on tcp connections
	TCPNoDelay bool
}

// Timeout returns the client timeout as duration, zero means no timeout
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("Serializer", c.Serializer)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func originsString(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}

func maskSecret(s string) string {
	if s == "" {
		return "(none)"
	}
	return "********"
}
