package relay

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// rooms maps a collection name to the sessions currently subscribed to it.
//
// Member sets are copy-on-write: join and leave replace the set inside an
// atomic Compute, readers get an immutable snapshot. A room is removed when
// its last member leaves.
type rooms struct {
	m *xsync.MapOf[string, map[string]*Session]
}

func newRooms() *rooms {
	return &rooms{
		m: xsync.NewMapOf[string, map[string]*Session](),
	}
}

// join adds the session to the room, creating the room if needed
func (r *rooms) join(name string, s *Session) {
	r.m.Compute(name, func(old map[string]*Session, loaded bool) (map[string]*Session, bool) {
		if _, ok := old[s.id]; ok {
			return old, false
		}
		next := make(map[string]*Session, len(old)+1)
		for id, member := range old {
			next[id] = member
		}
		next[s.id] = s
		return next, false
	})
}

// leave removes the session from the room. Leaving a room the session is not in is a no-op.
func (r *rooms) leave(name string, s *Session) {
	r.m.Compute(name, func(old map[string]*Session, loaded bool) (map[string]*Session, bool) {
		if !loaded {
			return nil, true
		}
		if _, ok := old[s.id]; !ok {
			return old, false
		}
		next := make(map[string]*Session, len(old))
		for id, member := range old {
			if id != s.id {
				next[id] = member
			}
		}
		return next, len(next) == 0
	})
}

// members returns a snapshot of the sessions in the room
func (r *rooms) members(name string) []*Session {
	set, ok := r.m.Load(name)
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// size returns the number of sessions in the room
func (r *rooms) size(name string) int {
	set, _ := r.m.Load(name)
	return len(set)
}

// count returns the number of non-empty rooms
func (r *rooms) count() int {
	return r.m.Size()
}
