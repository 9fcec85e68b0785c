package rstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
)

var Logger = logger.GetLogger("store")

// Options configures the Redis store.
type Options struct {
	// Addr is the host:port of the Redis server
	Addr string
	// Password is used for AUTH, empty disables it
	Password string
	// DB is the logical database index
	DB int
	// ScanCount switches key listing from KEYS to incremental SCAN with this COUNT hint.
	// Zero keeps the blocking KEYS command.
	ScanCount int64
}

type storeImpl struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisStore creates a new store connected to a Redis server.
// The connection is verified with a PING before the store is returned;
// the caller owns the store and must Close it.
func NewRedisStore(ctx context.Context, opts Options) (store.IStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	s := &storeImpl{
		client:    client,
		scanCount: opts.ScanCount,
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	Logger.Infof("connected to redis at %s (db %d)", opts.Addr, opts.DB)
	return s, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("get", err)
	}
	return val, true, nil
}

func (s *storeImpl) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return wrap("set", err)
	}
	return nil
}

func (s *storeImpl) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap("mget", err)
	}

	values := make([][]byte, len(raw))
	for i, v := range raw {
		switch val := v.(type) {
		case string:
			values[i] = []byte(val)
		case nil:
			values[i] = nil
		default:
			return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("mget: unexpected value type %T", v))
		}
	}
	return values, nil
}

func (s *storeImpl) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(prefix) + "*"

	var keys []string
	if s.scanCount > 0 {
		iter := s.client.Scan(ctx, 0, match, s.scanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, wrap("scan", err)
		}
	} else {
		var err error
		keys, err = s.client.Keys(ctx, match).Result()
		if err != nil {
			return nil, wrap("keys", err)
		}
	}

	// SCAN may return a key more than once
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (s *storeImpl) Publish(ctx context.Context, channel string, message []byte) error {
	if err := s.client.Publish(ctx, channel, message).Err(); err != nil {
		return wrap("publish", err)
	}
	return nil
}

func (s *storeImpl) PSubscribe(ctx context.Context, pattern string) (store.ISubscription, error) {
	ps := s.client.PSubscribe(ctx, pattern)

	// Wait for the subscription confirmation so that no message published
	// after PSubscribe returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, wrap("psubscribe", err)
	}

	sub := &subscriptionImpl{
		pubsub: ps,
		ch:     make(chan store.Notification),
		done:   make(chan struct{}),
	}
	go sub.forward()

	Logger.Infof("subscribed to redis pattern: %s", pattern)
	return sub, nil
}

func (s *storeImpl) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *storeImpl) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return wrap("close", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Subscription
// --------------------------------------------------------------------------

type subscriptionImpl struct {
	pubsub    *redis.PubSub
	ch        chan store.Notification
	done      chan struct{}
	closeOnce sync.Once
}

// forward converts go-redis messages to store notifications until the
// subscription is closed.
func (s *subscriptionImpl) forward() {
	defer close(s.ch)
	for msg := range s.pubsub.Channel() {
		n := store.Notification{
			Pattern: msg.Pattern,
			Channel: msg.Channel,
			Payload: []byte(msg.Payload),
		}
		select {
		case s.ch <- n:
		case <-s.done:
			return
		}
	}
}

func (s *subscriptionImpl) Notifications() <-chan store.Notification {
	return s.ch
}

func (s *subscriptionImpl) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if cerr := s.pubsub.Close(); cerr != nil && !errors.Is(cerr, redis.ErrClosed) {
			err = wrap("punsubscribe", cerr)
		}
	})
	return err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// wrap converts a go-redis error into a store error with a matching return code.
func wrap(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, redis.ErrClosed):
		return store.WrapError(store.RetCClosed, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return store.WrapError(store.RetCUnavailable, op, err)
	default:
		return store.WrapError(store.RetCInternalError, op, err)
	}
}

// escapeGlob escapes the glob meta characters of a Redis pattern so that
// the prefix is matched literally.
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
