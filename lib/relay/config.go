package relay

const (
	// DefaultDataUpdatePrefix is the first channel segment of change notifications
	DefaultDataUpdatePrefix = "data_update"
	// DefaultWriteRequestPrefix is the first channel segment of durable write requests
	DefaultWriteRequestPrefix = "firebase_write_request"
)

// Config holds the channel naming of the relay.
type Config struct {
	// DataUpdatePrefix: notifications arrive on "<prefix>:<collection>:<documentId>"
	DataUpdatePrefix string
	// WriteRequestPrefix: write requests are published to "<prefix>:<collection>"
	WriteRequestPrefix string
}

// DefaultConfig returns the channel naming used by the data sync services.
func DefaultConfig() Config {
	return Config{
		DataUpdatePrefix:   DefaultDataUpdatePrefix,
		WriteRequestPrefix: DefaultWriteRequestPrefix,
	}
}

// withDefaults fills empty fields with their default values
func (c Config) withDefaults() Config {
	if c.DataUpdatePrefix == "" {
		c.DataUpdatePrefix = DefaultDataUpdatePrefix
	}
	if c.WriteRequestPrefix == "" {
		c.WriteRequestPrefix = DefaultWriteRequestPrefix
	}
	return c
}

// NotificationPattern returns the pattern the listener subscribes to
func (c Config) NotificationPattern() string {
	return c.DataUpdatePrefix + ":*"
}

// WriteRequestChannel returns the channel write requests for a collection are published to
func (c Config) WriteRequestChannel(collection string) string {
	return c.WriteRequestPrefix + ":" + collection
}
