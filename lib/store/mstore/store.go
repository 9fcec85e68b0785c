package mstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("store")

const (
	// DefaultSubscriptionBuffer is the number of notifications buffered per subscription
	DefaultSubscriptionBuffer = 1024
)

type storeImpl struct {
	data       *xsync.MapOf[string, []byte]
	subs       *xsync.MapOf[uint64, *subscriptionImpl]
	nextSubID  atomic.Uint64
	closed     atomic.Bool
	bufferSize int
}

// NewMemoryStore creates a new memory store instance.
// This store implementation is not shared between processes and only works on a single node.
// Published messages are delivered to the subscriptions of the same store instance.
func NewMemoryStore() store.IStore {
	return NewMemoryStoreWithBuffer(DefaultSubscriptionBuffer)
}

// NewMemoryStoreWithBuffer creates a new memory store whose subscriptions buffer
// up to bufferSize notifications before dropping new ones.
func NewMemoryStoreWithBuffer(bufferSize int) store.IStore {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &storeImpl{
		data:       xsync.NewMapOf[string, []byte](),
		subs:       xsync.NewMapOf[uint64, *subscriptionImpl](),
		bufferSize: bufferSize,
	}
}

// check returns an error if the store is closed or the context is done.
func (s *storeImpl) check(ctx context.Context) error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, "memory store is closed")
	}
	if err := ctx.Err(); err != nil {
		return store.WrapError(store.RetCUnavailable, "context done", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(ctx); err != nil {
		return nil, false, err
	}
	val, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	return clone(val), true, nil
}

func (s *storeImpl) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.data.Store(key, clone(value))
	return nil
}

func (s *storeImpl) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	values := make([][]byte, len(keys))
	for i, key := range keys {
		if val, ok := s.data.Load(key); ok {
			values[i] = clone(val)
		}
	}
	return values, nil
}

func (s *storeImpl) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	s.data.Range(func(key string, _ []byte) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

func (s *storeImpl) Publish(ctx context.Context, channel string, message []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.subs.Range(func(_ uint64, sub *subscriptionImpl) bool {
		if !matchPattern(sub.pattern, channel) {
			return true
		}
		n := store.Notification{
			Pattern: sub.pattern,
			Channel: channel,
			Payload: clone(message),
		}
		if !sub.deliver(n) {
			Logger.Warningf("memory store dropped message on channel %s for pattern %s", channel, sub.pattern)
		}
		return true
	})
	return nil
}

func (s *storeImpl) PSubscribe(ctx context.Context, pattern string) (store.ISubscription, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	sub := &subscriptionImpl{
		id:      s.nextSubID.Add(1),
		pattern: pattern,
		ch:      make(chan store.Notification, s.bufferSize),
		parent:  s,
	}
	s.subs.Store(sub.id, sub)
	Logger.Debugf("memory store subscribed to pattern %s", pattern)
	return sub, nil
}

func (s *storeImpl) Ping(ctx context.Context) error {
	return s.check(ctx)
}

func (s *storeImpl) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.subs.Range(func(_ uint64, sub *subscriptionImpl) bool {
		_ = sub.Close()
		return true
	})
	s.data.Clear()
	return nil
}

// --------------------------------------------------------------------------
// Subscription
// --------------------------------------------------------------------------

type subscriptionImpl struct {
	id      uint64
	pattern string
	ch      chan store.Notification
	mu      sync.RWMutex
	closed  bool
	parent  *storeImpl
}

// deliver queues a notification without blocking the publisher.
// It returns false if the subscription is closed or its buffer is full.
func (s *subscriptionImpl) deliver(n store.Notification) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

func (s *subscriptionImpl) Notifications() <-chan store.Notification {
	return s.ch
}

func (s *subscriptionImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.parent.subs.Delete(s.id)
	close(s.ch)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
