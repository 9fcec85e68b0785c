package relay

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	// EventInitialData is followed by ":<collection>" and carries the snapshot array
	EventInitialData = "initial_data"
	// EventSubscriptionError is followed by ":<collection>" if the snapshot failed
	EventSubscriptionError = "subscription_error"
)

// SubscriptionError is the payload of a subscription_error event
type SubscriptionError struct {
	Error string `json:"error"`
}

// Subscribe joins the session to every named collection it is not yet
// subscribed to and sends each new collection's snapshot as an
// "initial_data:<name>" event. A failed snapshot only produces a
// "subscription_error:<name>" event; the response is always successful.
//
// All snapshot events are queued before Subscribe returns, so they reach the
// client ahead of the acknowledgement.
func (r *Relay) Subscribe(ctx context.Context, s *Session, names []string) (Response, error) {
	for _, name := range names {
		if !r.join(s, name) {
			continue
		}

		docs, err := r.snapshot(ctx, name)
		if err != nil {
			Logger.Errorf("[session %s] snapshot of collection %s failed: %v", s.id, name, err)
			r.emit(s, EventSubscriptionError+":"+name, SubscriptionError{Error: "Failed to fetch initial data"})
			continue
		}
		r.emit(s, EventInitialData+":"+name, docs)
		Logger.Debugf("[session %s] subscribed to %s (%d documents)", s.id, name, len(docs))
	}
	return ok("Subscribed to " + strings.Join(names, ", ")), nil
}

// Unsubscribe removes the session from every named collection. Unknown names are ignored.
func (r *Relay) Unsubscribe(_ context.Context, s *Session, names []string) (Response, error) {
	s.mu.Lock()
	for _, name := range names {
		r.rooms.leave(name, s)
		delete(s.collections, name)
	}
	s.mu.Unlock()

	Logger.Debugf("[session %s] unsubscribed from %s", s.id, strings.Join(names, ", "))
	return ok("Unsubscribed from " + strings.Join(names, ", ")), nil
}

// join adds the session to the room and its subscription set. It returns false
// if the session is already subscribed or closed. The check and both updates
// happen under the session lock so the set always equals the joined rooms.
func (r *Relay) join(s *Session, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.collections[name]; ok {
		return false
	}
	r.rooms.join(name, s)
	s.collections[name] = struct{}{}
	return true
}

// leaveAll removes the session from all rooms and marks it closed
func (r *Relay) leaveAll(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for name := range s.collections {
		r.rooms.leave(name, s)
	}
	clear(s.collections)
}

// snapshot loads all decodable documents stored under "<collection>:".
// Missing, undecodable and null values are skipped.
func (r *Relay) snapshot(ctx context.Context, collection string) ([]any, error) {
	keys, err := r.store.Keys(ctx, collection+":")
	if err != nil {
		return nil, storeError("Failed to fetch initial data", err)
	}

	docs := make([]any, 0, len(keys))
	if len(keys) == 0 {
		return docs, nil
	}

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, storeError("Failed to fetch initial data", err)
	}

	for i, raw := range values {
		if raw == nil {
			continue
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			Logger.Debugf("skipping undecodable value of key %s: %v", keys[i], err)
			continue
		}
		if doc == nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// emit sends an event on the request path. Errors only mean the session is gone.
func (r *Relay) emit(s *Session, event string, payload any) {
	if err := s.peer.Emit(event, payload); err != nil {
		Logger.Debugf("[session %s] dropped %s: %v", s.id, event, err)
	}
}
