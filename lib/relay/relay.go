package relay

import (
	"fmt"
	"sync"

	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("relay")

var gaugeOnce sync.Once

// Relay bridges a store to a set of client sessions. It owns the session
// registry and the collection rooms; the store is injected and owned by the caller.
type Relay struct {
	store    store.IStore
	cfg      Config
	sessions *xsync.MapOf[string, *Session]
	rooms    *rooms
}

// New creates a relay on top of st. Empty config fields fall back to DefaultConfig.
func New(st store.IStore, cfg Config) *Relay {
	r := &Relay{
		store:    st,
		cfg:      cfg.withDefaults(),
		sessions: xsync.NewMapOf[string, *Session](),
		rooms:    newRooms(),
	}
	registerSessionGauge(r)
	return r
}

// Config returns the effective configuration
func (r *Relay) Config() Config {
	return r.cfg
}

// Connect registers a new session for a connection. Session ids must be unique
// among the connected sessions.
func (r *Relay) Connect(id string, peer Peer) (*Session, error) {
	s := newSession(id, peer)
	if _, loaded := r.sessions.LoadOrStore(id, s); loaded {
		return nil, fmt.Errorf("session %s already connected", id)
	}
	Logger.Debugf("[session %s] connected", id)
	return s, nil
}

// Disconnect leaves all rooms of the session and removes it from the registry.
// Requests still in flight complete, but the session will not join any room again.
func (r *Relay) Disconnect(s *Session) {
	r.leaveAll(s)
	r.sessions.Compute(s.id, func(old *Session, loaded bool) (*Session, bool) {
		return old, !loaded || old == s
	})
	Logger.Debugf("[session %s] disconnected", s.id)
}

// Session returns the connected session with the given id
func (r *Relay) Session(id string) (*Session, bool) {
	return r.sessions.Load(id)
}

// SessionCount returns the number of connected sessions
func (r *Relay) SessionCount() int {
	return r.sessions.Size()
}

// RoomSize returns the number of sessions subscribed to a collection
func (r *Relay) RoomSize(collection string) int {
	return r.rooms.size(collection)
}

// RoomCount returns the number of collections with at least one subscriber
func (r *Relay) RoomCount() int {
	return r.rooms.count()
}
