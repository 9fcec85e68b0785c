package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the envelope of everything exchanged between client and server.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"type"`

	// Event name, used for: request, event
	Event string `json:"event,omitempty"`
	// ID is the reply target of a request and echoed by its ack.
	// A request with ID 0 is not acknowledged.
	ID uint64 `json:"id,omitempty"`
	// Payload is the decoded body of the request, ack or event
	Payload any `json:"payload,omitempty"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a new client request. Pass id 0 if no ack is expected.
func NewRequest(event string, id uint64, payload any) *Message {
	return &Message{
		MsgType: MsgTRequest,
		Event:   event,
		ID:      id,
		Payload: payload,
	}
}

// NewAck creates the acknowledgement of request id
func NewAck(id uint64, payload any) *Message {
	return &Message{
		MsgType: MsgTAck,
		ID:      id,
		Payload: payload,
	}
}

// NewEvent creates a server pushed event
func NewEvent(event string, payload any) *Message {
	return &Message{
		MsgType: MsgTEvent,
		Event:   event,
		Payload: payload,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRequest:
		return "request"
	case MsgTAck:
		return "ack"
	case MsgTEvent:
		return "event"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "request":
		*t = MsgTRequest
	case "ack":
		*t = MsgTAck
	case "event":
		*t = MsgTEvent
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota
	MsgTRequest             // client -> server, optionally acknowledged
	MsgTAck                 // server -> client, result of a request
	MsgTEvent               // server -> client, pushed event
)
