package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()}, testLogger())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "generations/a.json", strings.NewReader(`{"a":1}`), PutOptions{}))

	exists, err := s.Exists(ctx, "generations/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	body, info, err := s.Get(ctx, "generations/a.json")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, ContentTypeJSON, info.ContentType)

	require.NoError(t, s.Delete(ctx, "generations/a.json"))
	require.NoError(t, s.Delete(ctx, "generations/a.json"), "delete is idempotent")

	exists, err = s.Exists(ctx, "generations/a.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s := newTestLocal(t)
	_, _, err := s.Get(context.Background(), "generations/missing.json")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_Overwrite(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k.json", strings.NewReader("1"), PutOptions{}))
	err := s.Put(ctx, "k.json", strings.NewReader("2"), PutOptions{})
	assert.True(t, IsKeyExists(err))

	require.NoError(t, s.Put(ctx, "k.json", strings.NewReader("3"), PutOptions{Overwrite: true}))
	body, _, err := s.Get(ctx, "k.json")
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, "3", string(data))
}

func TestLocalStorage_TooLarge(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.json", strings.NewReader("0123456789"), PutOptions{MaxSize: 4})
	assert.ErrorIs(t, err, ErrTooLarge)

	exists, err := s.Exists(ctx, "big.json")
	require.NoError(t, err)
	assert.False(t, exists, "oversized object is not left behind")
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "  ", "../escape.json", "generations/../../escape.json", `..\escape.json`} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	s := newTestLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "k.json", strings.NewReader("x"), PutOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
