package client

import (
	"fmt"

	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// decodeResponse converts the decoded ack payload into a relay.Response
func decodeResponse(payload any) (relay.Response, error) {
	var resp relay.Response
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &resp,
	})
	if err != nil {
		return resp, err
	}
	if err := dec.Decode(payload); err != nil {
		return resp, fmt.Errorf("unexpected ack payload: %v", err)
	}
	return resp, nil
}

// matchEvent reports whether an event name matches a handler pattern.
// A trailing "*" matches any suffix.
func matchEvent(pattern, event string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		return len(event) >= n-1 && event[:n-1] == pattern[:n-1]
	}
	return pattern == event
}
