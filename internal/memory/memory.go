// Package memory provides the shared key-value store activities use for
// deduplication and cross-activity handoff. Values are JSON-encoded and may
// carry a TTL; a TTL of zero means no expiry.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beinghq/being/internal/config"
)

// Store is the interface activities program against.
type Store interface {
	// Get unmarshals the value at key into dest. The boolean reports
	// whether the key exists (and has not expired).
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. ttl of 0 means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys returns all live keys with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open creates a Store from config: "sqlite" (default) or "redis".
func Open(cfg config.MemoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return OpenSQL(cfg.Path, cfg.SweepInterval.Duration())
	case "redis":
		return OpenRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

// keyLocks serializes read-modify-write sequences on a single key within
// this process. Two processes sharing a redis backend can still race; that
// is a documented limitation of the store, not something it hides.
var keyLocks = struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}{m: make(map[string]*sync.Mutex)}

func lockKey(key string) func() {
	keyLocks.mu.Lock()
	l, ok := keyLocks.m[key]
	if !ok {
		l = &sync.Mutex{}
		keyLocks.m[key] = l
	}
	keyLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// PopHead removes and returns the first element of the list stored at key.
// The remainder is re-stored with the given ttl; when the list becomes
// empty the key is deleted rather than stored as an empty list.
func PopHead(ctx context.Context, st Store, key string, ttl time.Duration) (map[string]any, bool, error) {
	defer lockKey(key)()

	var items []map[string]any
	ok, err := st.Get(ctx, key, &items)
	if err != nil {
		return nil, false, fmt.Errorf("pop %s: %w", key, err)
	}
	if !ok || len(items) == 0 {
		return nil, false, nil
	}

	head := items[0]
	rest := items[1:]

	if len(rest) == 0 {
		if err := st.Delete(ctx, key); err != nil {
			return nil, false, fmt.Errorf("pop %s: delete emptied key: %w", key, err)
		}
	} else {
		if err := st.Set(ctx, key, rest, ttl); err != nil {
			return nil, false, fmt.Errorf("pop %s: re-store remainder: %w", key, err)
		}
	}
	return head, true, nil
}

// PushHead inserts a record at the front of the list stored at key. It is
// the undo of PopHead for consumers that could not process the element.
func PushHead(ctx context.Context, st Store, key string, record map[string]any, ttl time.Duration) error {
	defer lockKey(key)()

	var items []map[string]any
	if _, err := st.Get(ctx, key, &items); err != nil {
		return fmt.Errorf("push %s: %w", key, err)
	}

	items = append([]map[string]any{record}, items...)
	return st.Set(ctx, key, items, ttl)
}

// Append adds a record to the end of the list stored at key, creating the
// list if needed. max > 0 trims the oldest records beyond max.
func Append(ctx context.Context, st Store, key string, record map[string]any, max int, ttl time.Duration) error {
	defer lockKey(key)()

	var items []map[string]any
	if _, err := st.Get(ctx, key, &items); err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}

	items = append(items, record)
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	return st.Set(ctx, key, items, ttl)
}

// GetList returns the list stored at key, or nil when absent.
func GetList(ctx context.Context, st Store, key string) ([]map[string]any, error) {
	var items []map[string]any
	ok, err := st.Get(ctx, key, &items)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return items, nil
}
