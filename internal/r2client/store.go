package r2client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/availability"
)

const (
	// DefaultPrefix is the object prefix used when none is configured.
	DefaultPrefix = "availability/"

	lockPollInterval = 250 * time.Millisecond
)

// Store keeps one availability record per object at {prefix}{key}.txt.
type Store struct {
	client  *Client
	prefix  string
	lockTTL time.Duration
}

// NewStore creates an availability store on client.
func NewStore(client *Client, prefix string, lockTTL time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Store{client: client, prefix: prefix, lockTTL: lockTTL}
}

// ObjectKey returns the object that holds the record for key.
func (s *Store) ObjectKey(key string) string {
	return s.prefix + key + ".txt"
}

// LockKey returns the lock object that guards writes to key.
func (s *Store) LockKey(key string) string {
	return s.prefix + "locks/" + key + ".json"
}

// Save replaces the record for key while holding the key's distributed lock.
// Waiting for the lock is bounded by the lock TTL.
func (s *Store) Save(ctx context.Context, key string, lines []string) (err error) {
	if err := availability.ValidateKey(key); err != nil {
		return err
	}

	lock := NewDistributedLock(s.client, s.LockKey(key), s.lockTTL)
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()
	if err := lock.Acquire(lockCtx, lockPollInterval); err != nil {
		return fmt.Errorf("r2client: save %s: %w", key, err)
	}
	defer func() {
		// Release on a detached context so a canceled request still frees the lease.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := lock.Release(releaseCtx); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()

	if _, err := s.client.Put(ctx, s.ObjectKey(key), strings.NewReader(availability.Encode(lines)), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("r2client: save %s: %w", key, err)
	}
	return nil
}

// Load returns the record for key; a missing object yields an empty slice.
func (s *Store) Load(ctx context.Context, key string) ([]string, error) {
	if err := availability.ValidateKey(key); err != nil {
		return nil, err
	}

	body, _, err := s.client.Get(ctx, s.ObjectKey(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("r2client: load %s: %w", key, err)
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("r2client: load %s: read: %w", key, err)
	}
	return availability.Decode(string(data)), nil
}

// Ping checks bucket reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
