package relay

import (
	"context"
	"encoding/json"
)

// SetData writes a value. A request with PersistToFirebase publishes a
// WriteRequest for the external persistence worker and returns without waiting
// for it; any other request stores the JSON encoded data under its key.
func (r *Relay) SetData(ctx context.Context, s *Session, req SetDataRequest) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	if req.PersistToFirebase {
		msg, err := json.Marshal(WriteRequest{
			DocumentID: req.DocumentID,
			Data:       req.Data,
			Operation:  req.FirebaseOperation,
			Merge:      req.FirebaseMerge,
		})
		if err != nil {
			return Response{}, storeError("An error occurred", err)
		}
		channel := r.cfg.WriteRequestChannel(req.CollectionName)
		if err := r.store.Publish(ctx, channel, msg); err != nil {
			return Response{}, storeError("An error occurred", err)
		}
		Logger.Debugf("[session %s] queued %s of %s/%s", s.id, req.FirebaseOperation, req.CollectionName, req.DocumentID)
		return Response{Success: true, Message: "Data queued for Firebase persistence.", ID: req.DocumentID}, nil
	}

	value, err := json.Marshal(req.Data)
	if err != nil {
		return Response{}, storeError("An error occurred", err)
	}
	if err := r.store.Set(ctx, req.Key, value); err != nil {
		return Response{}, storeError("An error occurred", err)
	}
	Logger.Debugf("[session %s] stored key %s", s.id, req.Key)
	return Response{Success: true, Message: "Data saved to Redis.", ID: req.Key}, nil
}

// GetData reads and decodes the value stored under the request's effective key.
func (r *Relay) GetData(ctx context.Context, s *Session, req GetDataRequest) (Response, error) {
	key, found := req.EffectiveKey()
	if !found {
		return Response{}, validationError("Key or collectionName/documentId required.")
	}

	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		return Response{}, storeError("Error fetching data", err)
	}
	if !found {
		return Response{Success: true, Found: boolPtr(false), Message: "Data not found."}, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Response{}, decodeError("Error fetching data", err)
	}
	Logger.Debugf("[session %s] read key %s", s.id, key)
	return Response{Success: true, Found: boolPtr(true), Data: data}, nil
}
