package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub_backend/pkg/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	ctx := context.Background()

	key := ListingImageKey("Sunny Villa", "Front.JPG")
	assert.True(t, strings.HasPrefix(key, "listings/sunny-villa/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	require.NoError(t, store.Put(ctx, key, strings.NewReader("img"), "image/jpeg"))
	assert.Equal(t, "/media/"+key, store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	assert.Equal(t, "", store.URL(key), "missing files resolve to empty")
	assert.NoError(t, store.Delete(ctx, key), "deleting twice is fine")
}

func TestLocalStoreEmptyKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	assert.Equal(t, "", store.URL(""))
}

func TestLocalStoreKeepsWritesInsideRoot(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain"))
	assert.NotEmpty(t, store.URL("escape.txt"))
}

func TestAvatarKey(t *testing.T) {
	key := AvatarKey("Jane Doe", "me.png")
	assert.True(t, strings.HasPrefix(key, "avatars/jane-doe/"))
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestS3StoreURL(t *testing.T) {
	s := &S3Store{bucket: "b", baseURL: "https://cdn.example.com/"}
	assert.Equal(t, "https://cdn.example.com/listings/a.jpg", s.URL("listings/a.jpg"))
	assert.Equal(t, "", s.URL(""))
}
