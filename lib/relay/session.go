package relay

import (
	"errors"
	"sort"
	"sync"
)

// ErrSessionClosed is returned by a Peer once its connection is gone.
var ErrSessionClosed = errors.New("session closed")

// Peer is the outbound side of one client connection.
type Peer interface {
	// Emit queues an event for the connection. It blocks until the event is
	// queued or the connection is gone, in which case ErrSessionClosed is returned.
	Emit(event string, payload any) error
	// TryEmit queues an event without blocking. It returns false if the event was dropped.
	TryEmit(event string, payload any) bool
}

// Session is the server-side state of one connection: its identity and the set
// of collections it is subscribed to. The subscription set is only changed by
// the Relay, which keeps it equal to the set of rooms the session has joined.
type Session struct {
	id   string
	peer Peer

	mu          sync.Mutex
	collections map[string]struct{}
	closed      bool
}

func newSession(id string, peer Peer) *Session {
	return &Session{
		id:          id,
		peer:        peer,
		collections: make(map[string]struct{}),
	}
}

// ID returns the session identity
func (s *Session) ID() string {
	return s.id
}

// Collections returns the sorted names of all subscribed collections
func (s *Session) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSubscribed reports whether the session is subscribed to the collection
func (s *Session) IsSubscribed(collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[collection]
	return ok
}

// Closed reports whether the session was disconnected
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
