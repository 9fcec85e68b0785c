package testing

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akeylesspro/nx-data-socket/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func(t *testing.T) store.IStore

// notificationTimeout bounds how long the suite waits for a published message
const notificationTimeout = 2 * time.Second

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("MGet", func(t *testing.T) {
			testMGet(t, factory(t))
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory(t))
		})

		t.Run("PublishSubscribe", func(t *testing.T) {
			testPublishSubscribe(t, factory(t))
		})

		t.Run("SubscriptionClose", func(t *testing.T) {
			testSubscriptionClose(t, factory(t))
		})

		t.Run("ConcurrentPublish", func(t *testing.T) {
			testConcurrentPublish(t, factory(t))
		})

		t.Run("Ping&Close", func(t *testing.T) {
			testPingClose(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// receive waits for the next notification or fails the test after notificationTimeout
func receive(t *testing.T, sub store.ISubscription) store.Notification {
	t.Helper()
	select {
	case n, ok := <-sub.Notifications():
		if !ok {
			t.Fatalf("subscription closed while waiting for a notification")
		}
		return n
	case <-time.After(notificationTimeout):
		t.Fatalf("timed out waiting for a notification")
	}
	return store.Notification{}
}

// expectNone asserts that no notification arrives within a short window
func expectNone(t *testing.T, sub store.ISubscription) {
	t.Helper()
	select {
	case n := <-sub.Notifications():
		t.Errorf("unexpected notification on channel %s: %s", n.Channel, n.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	testKey := "units:1"
	testValue1 := []byte(`{"id":"1","v":1}`)
	testValue2 := []byte(`{"id":"1","v":2}`)

	if err := s.Set(ctx, testKey, testValue1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(ctx, testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	if err := s.Set(ctx, testKey, testValue2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err = s.Get(ctx, testKey)
	if err != nil || !exists {
		t.Fatalf("Expected key %s to exist after update (err=%v)", testKey, err)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected updated value %s, got %s", testValue2, result)
	}

	_, exists, err = s.Get(ctx, "nonexistent-key")
	if err != nil {
		t.Fatalf("Get of a missing key must not fail: %v", err)
	}
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	result[0] = 'X'
	original, _, _ := s.Get(ctx, testKey)
	if bytes.Equal(result, original) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testMGet(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	values, err := s.MGet(ctx, []string{})
	if err != nil {
		t.Fatalf("MGet without keys failed: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("Expected no values for no keys, got %d", len(values))
	}

	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "c", []byte("3"))

	values, err = s.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(values))
	}
	if string(values[0]) != "1" {
		t.Errorf("Expected values[0]=1, got %s", values[0])
	}
	if values[1] != nil {
		t.Errorf("Expected values[1] to be nil for a missing key, got %s", values[1])
	}
	if string(values[2]) != "3" {
		t.Errorf("Expected values[2]=3, got %s", values[2])
	}
}

func testKeys(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	for _, k := range []string{"units:1", "units:2", "unitsX:1", "other:1", "we*ird:1", "weXird:1"} {
		if err := s.Set(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Set %s failed: %v", k, err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"units:", []string{"units:1", "units:2"}},
		{"other:", []string{"other:1"}},
		{"missing:", []string{}},
		{"we*ird:", []string{"we*ird:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			keys, err := s.Keys(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("Keys(%q) failed: %v", tt.prefix, err)
			}
			if fmt.Sprint(keys) != fmt.Sprint(tt.want) {
				t.Errorf("Keys(%q) = %v, want %v", tt.prefix, keys, tt.want)
			}
		})
	}
}

func testPublishSubscribe(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	sub, err := s.PSubscribe(ctx, "data_update:*")
	if err != nil {
		t.Fatalf("PSubscribe failed: %v", err)
	}
	defer sub.Close()

	if err := s.Publish(ctx, "firebase_write_request:units", []byte("ignored")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := s.Publish(ctx, "data_update:units:1", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	n := receive(t, sub)
	if n.Channel != "data_update:units:1" {
		t.Errorf("Expected channel data_update:units:1, got %s", n.Channel)
	}
	if n.Pattern != "data_update:*" {
		t.Errorf("Expected pattern data_update:*, got %s", n.Pattern)
	}
	if string(n.Payload) != `{"id":"1"}` {
		t.Errorf("Unexpected payload %s", n.Payload)
	}

	expectNone(t, sub)
}

func testSubscriptionClose(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	sub, err := s.PSubscribe(ctx, "data_update:*")
	if err != nil {
		t.Fatalf("PSubscribe failed: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// a second close is a no-op
	if err := sub.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Notifications():
		if ok {
			t.Errorf("Expected the notification channel to be closed")
		}
	case <-time.After(notificationTimeout):
		t.Errorf("Notification channel was not closed")
	}

	if err := s.Publish(ctx, "data_update:units:1", []byte("{}")); err != nil {
		t.Errorf("Publish without subscribers failed: %v", err)
	}
}

func testConcurrentPublish(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	sub, err := s.PSubscribe(ctx, "data_update:*")
	if err != nil {
		t.Fatalf("PSubscribe failed: %v", err)
	}
	defer sub.Close()

	const publishers = 5
	const perPublisher = 20

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				channel := fmt.Sprintf("data_update:c%d:%d", p, i)
				if err := s.Publish(ctx, channel, []byte("{}")); err != nil {
					t.Errorf("Publish failed: %v", err)
				}
			}
		}(p)
	}

	seen := make(map[string]bool)
	for i := 0; i < publishers*perPublisher; i++ {
		n := receive(t, sub)
		seen[n.Channel] = true
	}
	wg.Wait()

	if len(seen) != publishers*perPublisher {
		t.Errorf("Expected %d distinct channels, got %d", publishers*perPublisher, len(seen))
	}
}

func testPingClose(t *testing.T, s store.IStore) {
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Ping(ctx); err == nil {
		t.Errorf("Expected Ping to fail after Close")
	}
	if _, _, err := s.Get(ctx, "key"); err == nil {
		t.Errorf("Expected Get to fail after Close")
	}
}
