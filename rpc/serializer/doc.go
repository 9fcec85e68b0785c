// Package serializer provides message serialization for the relay's RPC layer.
// It defines a common interface and two implementations for encoding the
// common.Message envelope exchanged between client and server.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - jsonSerializerImpl: JSON encoding. The default, readable by browsers and any
//     websocket client; sent as text frames by the websocket transport.
//
//   - cborSerializerImpl: CBOR encoding (RFC 8949) using fxamacker/cbor. Smaller
//     frames and cheaper to decode; sent as binary frames. Payload maps decode to
//     map[string]any so the relay sees the same shapes as with JSON. Integers keep
//     their CBOR type (uint64/int64) instead of becoming float64.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s, err := serializer.New("json")
//	data, err := s.Serialize(*common.NewEvent("collection_update", payload))
//	// ... send data ...
//	var msg common.Message
//	err = s.Deserialize(received, &msg)
package serializer
