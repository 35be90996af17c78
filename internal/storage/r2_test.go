package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a minimal path-style S3 endpoint backed by a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	deny    bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deny {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
		return
	}

	// Path is /{bucket}/{key...}
	key := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[1]

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestR2(t *testing.T) (*R2Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewR2Storage(R2Config{
		AccountID:       "test",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "rams",
		Endpoint:        srv.URL,
	}, testLogger())
	require.NoError(t, err)
	return s, fake
}

func TestR2Storage_RoundTrip(t *testing.T) {
	s, fake := newTestR2(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "generations/a.json", strings.NewReader(`{"a":1}`), PutOptions{}))
	assert.Equal(t, `{"a":1}`, string(fake.objects["generations/a.json"]))

	exists, err := s.Exists(ctx, "generations/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	body, info, err := s.Get(ctx, "generations/a.json")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, ContentTypeJSON, info.ContentType)

	require.NoError(t, s.Delete(ctx, "generations/a.json"))
	exists, err = s.Exists(ctx, "generations/a.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestR2Storage_GetMissing(t *testing.T) {
	s, _ := newTestR2(t)
	_, _, err := s.Get(context.Background(), "generations/missing.json")
	assert.True(t, IsNotFound(err))
}

func TestR2Storage_KeyExists(t *testing.T) {
	s, _ := newTestR2(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k.json", strings.NewReader("1"), PutOptions{}))
	err := s.Put(ctx, "k.json", strings.NewReader("2"), PutOptions{})
	assert.True(t, IsKeyExists(err))
}

func TestR2Storage_TooLarge(t *testing.T) {
	s, fake := newTestR2(t)

	err := s.Put(context.Background(), "big.json", strings.NewReader("0123456789"), PutOptions{MaxSize: 4, Overwrite: true})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, fake.objects)
}

func TestR2Storage_AccessDenied(t *testing.T) {
	s, fake := newTestR2(t)
	fake.deny = true

	_, _, err := s.Get(context.Background(), "generations/a.json")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestR2Storage_InvalidKey(t *testing.T) {
	s, _ := newTestR2(t)
	err := s.Put(context.Background(), "../x.json", strings.NewReader("x"), PutOptions{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}
