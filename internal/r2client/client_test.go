package r2client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAllFields(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Endpoint: "https://x.r2.cloudflarestorage.com"})
	assert.Error(t, err)
}

func TestEndpointForAccount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", EndpointForAccount("abc123"))
}

func TestClient_PutGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestClient(newFakeS3())

	etag, err := c.Put(ctx, "a.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
	assert.NotContains(t, etag, `"`)

	body, gotETag, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, etag, gotETag)

	_, _, err = c.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ConditionalPuts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestClient(newFakeS3())

	ok, etag, err := c.PutIfAbsent(ctx, "k", strings.NewReader("1"), "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = c.PutIfAbsent(ctx, "k", strings.NewReader("2"), "")
	require.NoError(t, err)
	assert.False(t, ok, "second create must fail")

	ok, _, err = c.PutIfMatch(ctx, "k", strings.NewReader("3"), "stale", "")
	require.NoError(t, err)
	assert.False(t, ok, "stale etag must fail")

	ok, newETag, err := c.PutIfMatch(ctx, "k", strings.NewReader("4"), etag, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, etag, newETag)
}

func TestClient_DeleteAndPing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := newFakeS3()
	c := newTestClient(fake)

	fake.put("k", []byte("x"))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok := fake.get("k")
	assert.False(t, ok)

	assert.NoError(t, c.Ping(ctx))
	fake.headErr = errors.New("forbidden")
	assert.Error(t, c.Ping(ctx))
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(errors.New("boom")))

	assert.True(t, isPreconditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}))
	assert.False(t, isPreconditionFailed(&smithy.GenericAPIError{Code: "AccessDenied"}))
}
