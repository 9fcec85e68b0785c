package serializer

import (
	"strconv"
	"testing"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	snapshot := make([]any, 100)
	for i := range snapshot {
		snapshot[i] = map[string]any{
			"id":     strconv.Itoa(i),
			"name":   "unit " + strconv.Itoa(i),
			"active": i%2 == 0,
			"speed":  float64(i) * 1.5,
		}
	}

	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTAck,
		},
		"GetRequest": {
			MsgType: common.MsgTRequest,
			Event:   "get_data",
			ID:      1,
			Payload: map[string]any{"key": "units:1"},
		},
		"Ack": {
			MsgType: common.MsgTAck,
			ID:      1,
			Payload: map[string]any{"success": true, "found": true, "data": snapshot[0]},
		},
		"CollectionUpdate": {
			MsgType: common.MsgTEvent,
			Event:   "collection_update",
			Payload: map[string]any{"id": "1", "type": "update", "data": snapshot[1]},
		},
		"Snapshot100": {
			MsgType: common.MsgTEvent,
			Event:   "initial_data:units",
			Payload: snapshot,
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				b.ReportMetric(float64(len(data)), "bytes")

				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
