package serializer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON": NewJSONSerializer,
	"CBOR": NewCBORSerializer,
}

// testMessages creates a set of test messages with different fields filled.
// Payloads only use strings, bools, maps and lists, which decode to the same
// Go types with every serializer.
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTEvent},

		// Subscribe request
		{
			MsgType: common.MsgTRequest,
			Event:   "subscribe_collections",
			ID:      7,
			Payload: []any{"units", "drivers"},
		},

		// Fire and forget request
		{
			MsgType: common.MsgTRequest,
			Event:   "set_data",
			Payload: map[string]any{
				"key":  "units:1",
				"data": map[string]any{"name": "truck", "active": true},
			},
		},

		// Ack
		{
			MsgType: common.MsgTAck,
			ID:      7,
			Payload: map[string]any{"success": true, "message": "Subscribed to units, drivers"},
		},

		// Pushed event
		{
			MsgType: common.MsgTEvent,
			Event:   "initial_data:units",
			Payload: []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}},
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTRequest; msgType <= common.MsgTEvent; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestJSONWireFormat checks the encoding that browser clients depend on
func TestJSONWireFormat(t *testing.T) {
	data, err := NewJSONSerializer().Serialize(*common.NewAck(3, map[string]any{"success": true}))
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	want := `{"type":"ack","id":3,"payload":{"success":true}}`
	if string(data) != want {
		t.Errorf("Unexpected encoding:\nwant: %s\ngot:  %s", want, data)
	}

	// a request without id is not acknowledged
	var msg common.Message
	if err := NewJSONSerializer().Deserialize([]byte(`{"type":"request","event":"get_data","payload":{"key":"k"}}`), &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if msg.ID != 0 || msg.Event != "get_data" || msg.MsgType != common.MsgTRequest {
		t.Errorf("Unexpected message: %+v", msg)
	}
}

func TestJSONKeepsHTML(t *testing.T) {
	data, err := NewJSONSerializer().Serialize(*common.NewEvent("collection_update", map[string]any{"note": "<b>a&b</b>"}))
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	want := `{"type":"event","event":"collection_update","payload":{"note":"<b>a&b</b>"}}`
	if string(data) != want {
		t.Errorf("Unexpected encoding:\nwant: %s\ngot:  %s", want, data)
	}
	if bytes.HasSuffix(data, []byte{'\n'}) {
		t.Error("Serialized message ends with a newline")
	}
}

// TestCBORNumbers checks that integers keep an integer type and maps use string keys
func TestCBORNumbers(t *testing.T) {
	s := NewCBORSerializer()
	data, err := s.Serialize(common.Message{MsgType: common.MsgTEvent, Payload: map[string]any{"n": 5, "f": 1.5}})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	var msg common.Message
	if err := s.Deserialize(data, &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Expected map[string]any payload, got %T", msg.Payload)
	}
	if payload["n"] != uint64(5) {
		t.Errorf("Expected uint64(5), got %T(%v)", payload["n"], payload["n"])
	}
	if payload["f"] != 1.5 {
		t.Errorf("Expected 1.5, got %T(%v)", payload["f"], payload["f"])
	}
}

// TestInvalidData tests how the serializers handle corrupt input
func TestInvalidData(t *testing.T) {
	testCases := []struct {
		name       string
		serializer IRPCSerializer
		data       []byte
	}{
		{"JSON empty", NewJSONSerializer(), []byte{}},
		{"JSON truncated", NewJSONSerializer(), []byte(`{"type":"request"`)},
		{"JSON unknown type", NewJSONSerializer(), []byte(`{"type":"publish"}`)},
		{"CBOR empty", NewCBORSerializer(), []byte{}},
		{"CBOR truncated", NewCBORSerializer(), []byte{0xa2, 0x64}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			if err := tc.serializer.Deserialize(tc.data, &msg); err == nil {
				t.Errorf("Expected error but got none")
			}
		})
	}
}

// TestNew tests the serializer lookup by name
func TestNew(t *testing.T) {
	for _, name := range []string{"json", "cbor"} {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if s.Binary() != (name == "cbor") {
			t.Errorf("New(%q).Binary() = %v", name, s.Binary())
		}
	}
	if _, err := New("gob"); err == nil {
		t.Error("Expected error for unknown serializer")
	}
}

// TestCBORSmaller checks that cbor frames are smaller than json frames for typical events
func TestCBORSmaller(t *testing.T) {
	msg := testMessages()[4]
	j, _ := NewJSONSerializer().Serialize(msg)
	c, _ := NewCBORSerializer().Serialize(msg)
	if len(c) >= len(j) || bytes.Equal(c, j) {
		t.Errorf("Expected cbor (%d bytes) to be smaller than json (%d bytes)", len(c), len(j))
	}
}
