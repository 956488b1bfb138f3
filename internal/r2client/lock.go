package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned when a lock could not be acquired before the deadline.
var ErrLockHeld = errors.New("r2client: lock held by another owner")

// LockInfo is the JSON body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DistributedLock is a lease stored as an object. Acquire uses If-None-Match
// to create it; an expired lease is taken over with If-Match on its ETag.
type DistributedLock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
	now     func() time.Time
}

// NewDistributedLock creates a lock handle for key. Nothing is written until Acquire.
func NewDistributedLock(client *Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.NewString(),
		now:     time.Now,
	}
}

// OwnerID returns the unique identifier of this lock handle.
func (l *DistributedLock) OwnerID() string {
	return l.ownerID
}

// TryAcquire makes one attempt. It returns false without error when another
// owner holds an unexpired lease.
func (l *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	data, err := l.leaseBody()
	if err != nil {
		return false, err
	}

	created, etag, err := l.client.PutIfAbsent(ctx, l.key, bytes.NewReader(data), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	expired, oldETag, err := l.checkExpired(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock: check expired: %w", err)
	}
	if !expired {
		return false, nil
	}

	if oldETag == "" {
		// Deleted between our PUT and GET: race for a fresh create.
		created, etag, err = l.client.PutIfAbsent(ctx, l.key, bytes.NewReader(data), "application/json")
	} else {
		created, etag, err = l.client.PutIfMatch(ctx, l.key, bytes.NewReader(data), oldETag, "application/json")
	}
	if err != nil {
		return false, fmt.Errorf("acquire lock: take over: %w", err)
	}
	if created {
		l.etag = etag
	}
	return created, nil
}

// Acquire retries TryAcquire every interval until it succeeds or ctx is done.
func (l *DistributedLock) Acquire(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := l.TryAcquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrLockHeld, l.key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release deletes the lock object if this handle still owns it.
func (l *DistributedLock) Release(ctx context.Context) error {
	if l.etag == "" {
		return nil
	}

	body, _, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.etag = ""
			return nil
		}
		return fmt.Errorf("release lock: verify: %w", err)
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return fmt.Errorf("release lock: read: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err == nil && info.Owner != l.ownerID {
		// Lease expired and was taken over.
		l.etag = ""
		return nil
	}

	l.etag = ""
	return l.client.Delete(ctx, l.key)
}

func (l *DistributedLock) leaseBody() ([]byte, error) {
	data, err := json.Marshal(LockInfo{Owner: l.ownerID, ExpiresAt: l.now().Add(l.ttl)})
	if err != nil {
		return nil, fmt.Errorf("lock: marshal: %w", err)
	}
	return data, nil
}

// checkExpired reports whether the current lease can be taken over, plus its ETag.
// A missing lock counts as expired with an empty ETag.
func (l *DistributedLock) checkExpired(ctx context.Context) (bool, string, error) {
	body, etag, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, "", nil
		}
		return false, "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return true, etag, nil // unreadable lease
	}
	return l.now().After(info.ExpiresAt), etag, nil
}
