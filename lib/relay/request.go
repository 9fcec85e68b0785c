package relay

import (
	"github.com/go-viper/mapstructure/v2"
)

// Firebase operations accepted by set_data
const (
	OperationSet    = "set"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// SetDataRequest is the payload of a set_data request.
type SetDataRequest struct {
	Key               string `json:"key"`
	CollectionName    string `json:"collectionName"`
	DocumentID        string `json:"documentId"`
	Data              any    `json:"data"`
	PersistToFirebase bool   `json:"persistToFirebase"`
	FirebaseOperation string `json:"firebaseOperation"`
	FirebaseMerge     *bool  `json:"firebaseMerge"`
}

// Validate checks the required fields and fills in the default operation.
func (r *SetDataRequest) Validate() error {
	if r.Data == nil {
		return validationError("data is required.")
	}
	if !r.PersistToFirebase {
		if r.Key == "" {
			return validationError("A 'key' is required for a direct store write.")
		}
		return nil
	}
	if r.CollectionName == "" || r.DocumentID == "" {
		return validationError("collectionName and documentId are required for Firebase persistence.")
	}
	switch r.FirebaseOperation {
	case "":
		r.FirebaseOperation = OperationSet
	case OperationSet, OperationUpdate, OperationDelete:
	default:
		return validationError("firebaseOperation must be one of set, update, delete.")
	}
	return nil
}

// GetDataRequest is the payload of a get_data request.
type GetDataRequest struct {
	Key            string `json:"key"`
	CollectionName string `json:"collectionName"`
	DocumentID     string `json:"documentId"`
}

// EffectiveKey resolves the store key of the request. An explicit key wins over
// "<collectionName>:<documentId>"; the second result is false if neither is given.
func (r GetDataRequest) EffectiveKey() (string, bool) {
	if r.Key != "" {
		return r.Key, true
	}
	if r.CollectionName != "" && r.DocumentID != "" {
		return r.CollectionName + ":" + r.DocumentID, true
	}
	return "", false
}

// Validate checks that a key can be resolved.
func (r GetDataRequest) Validate() error {
	if _, ok := r.EffectiveKey(); !ok {
		return validationError("Key or collectionName/documentId required.")
	}
	return nil
}

// WriteRequest is published to the write request channel of a collection and
// consumed by the external persistence worker.
type WriteRequest struct {
	DocumentID string `json:"documentId"`
	Data       any    `json:"data"`
	Operation  string `json:"operation"`
	Merge      *bool  `json:"merge,omitempty"`
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeSetData converts a raw event payload into a validated SetDataRequest.
func DecodeSetData(payload any) (SetDataRequest, error) {
	var req SetDataRequest
	if payload == nil {
		return req, validationError("data is required.")
	}
	if err := decodePayload(payload, &req); err != nil {
		return req, err
	}
	return req, req.Validate()
}

// DecodeGetData converts a raw event payload into a validated GetDataRequest.
func DecodeGetData(payload any) (GetDataRequest, error) {
	var req GetDataRequest
	if payload == nil {
		return req, req.Validate()
	}
	if err := decodePayload(payload, &req); err != nil {
		return req, err
	}
	return req, req.Validate()
}

// DecodeCollections converts the payload of a (un)subscribe request, a single
// name or a list of names, into a list of collection names.
func DecodeCollections(payload any) ([]string, error) {
	var names []string
	switch v := payload.(type) {
	case string:
		names = []string{v}
	case []string:
		names = v
	case []any:
		names = make([]string, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, validationError("collections must be a string or a list of strings")
			}
			names = append(names, name)
		}
	default:
		return nil, validationError("collections must be a string or a list of strings")
	}

	if len(names) == 0 {
		return nil, validationError("At least one collection is required.")
	}
	for _, name := range names {
		if name == "" {
			return nil, validationError("Collection names must not be empty.")
		}
	}
	return names, nil
}

// decodePayload maps a decoded wire object onto a request struct using its json tags
func decodePayload(payload any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return &Error{Kind: KindValidation, Msg: "Invalid payload.", Err: err}
	}
	if err := dec.Decode(payload); err != nil {
		return &Error{Kind: KindValidation, Msg: "Invalid payload.", Err: err}
	}
	return nil
}
