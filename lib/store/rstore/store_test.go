package rstore

import (
	"context"
	"testing"

	"github.com/akeylesspro/nx-data-socket/lib/store"
	storetesting "github.com/akeylesspro/nx-data-socket/lib/store/testing"
	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T, scanCount int64) store.IStore {
	srv := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), Options{Addr: srv.Addr(), ScanCount: scanCount})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	return s
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "RedisStore(KEYS)", func(t *testing.T) store.IStore {
		return newTestStore(t, 0)
	})
	storetesting.RunStoreTests(t, "RedisStore(SCAN)", func(t *testing.T) store.IStore {
		return newTestStore(t, 2)
	})
}

// TestUnreachable tests that connecting to a closed server fails with RetCUnavailable
func TestUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewRedisStore(context.Background(), Options{Addr: addr})
	if err == nil {
		t.Fatal("Expected NewRedisStore to fail for a stopped server")
	}
	if !store.IsCode(err, store.RetCUnavailable) {
		t.Errorf("Expected RetCUnavailable, got %v", err)
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"units:", "units:"},
		{"we*ird:", `we\*ird:`},
		{"a?b[c]", `a\?b\[c\]`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
