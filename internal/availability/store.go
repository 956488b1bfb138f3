// Package availability persists the formatted slot selection of a candidate
// (the availability record) and reads it back for update queries.
//
// A record is an ordered list of lines stored under a key. Save always
// replaces the whole record; there is no history and no append across saves.
package availability

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// DefaultKey is the key used when a deployment keeps a single record.
const DefaultKey = "default"

// ErrInvalidKey is returned for keys that cannot be used as a file or object name.
var ErrInvalidKey = errors.New("availability: invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store is implemented by every availability backend.
type Store interface {
	// Save replaces the record stored under key.
	Save(ctx context.Context, key string, lines []string) error
	// Load returns the record stored under key in its original order.
	// A missing or empty record yields an empty slice and no error.
	Load(ctx context.Context, key string) ([]string, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// ValidateKey checks that key is safe to use as a file or object name.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Encode joins lines into the persisted representation (no trailing newline).
func Encode(lines []string) string {
	return strings.Join(lines, "\n")
}

// Decode splits persisted content back into lines.
// Empty content decodes to an empty, non-nil slice.
func Decode(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Locked serializes Save and Load per key in front of another Store.
// Concurrent saves for the same key run one after another (last writer wins
// without interleaving); different keys never wait on each other.
type Locked struct {
	next  Store
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.RWMutex
	refs int
}

// NewLocked wraps next with per-key locking.
func NewLocked(next Store) *Locked {
	return &Locked{
		next:  next,
		locks: make(map[string]*keyLock),
	}
}

// acquire returns the lock for key, creating it on first use.
// Every acquire must be paired with release.
func (l *Locked) acquire(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *Locked) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// Save implements Store.
func (l *Locked) Save(ctx context.Context, key string, lines []string) error {
	kl := l.acquire(key)
	defer l.release(key, kl)

	kl.Lock()
	defer kl.Unlock()
	return l.next.Save(ctx, key, lines)
}

// Load implements Store.
func (l *Locked) Load(ctx context.Context, key string) ([]string, error) {
	kl := l.acquire(key)
	defer l.release(key, kl)

	kl.RLock()
	defer kl.RUnlock()
	return l.next.Load(ctx, key)
}

// Ping implements Store.
func (l *Locked) Ping(ctx context.Context) error {
	return l.next.Ping(ctx)
}

// activeKeys reports how many keys currently hold a lock entry.
func (l *Locked) activeKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
