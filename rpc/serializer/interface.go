package serializer

import (
	"fmt"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
)

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
	// Binary reports whether the encoding is binary (as opposed to text)
	Binary() bool
}

// New returns the serializer with the given name ("json" or "cbor")
func New(name string) (IRPCSerializer, error) {
	switch name {
	case "json":
		return NewJSONSerializer(), nil
	case "cbor":
		return NewCBORSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer: %s. must be one of json, cbor", name)
	}
}
