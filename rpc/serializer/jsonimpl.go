package serializer

import (
	"bytes"
	"encoding/json"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Messages are sent as websocket text frames. HTML characters in record
// data are not escaped.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j *jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	// Encode terminates every value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (j *jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	return json.Unmarshal(b, msg)
}

// Binary is false, json messages are valid UTF-8 text
func (j *jsonSerializerImpl) Binary() bool {
	return false
}
