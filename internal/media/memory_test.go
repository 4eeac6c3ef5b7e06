package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("upload assigns scoped keys", func(t *testing.T) {
		obj, err := store.Upload(ctx, "templates/1", strings.NewReader("data"), UploadOptions{ContentType: "image/png"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(obj.Key, "templates/1/"))
		assert.Equal(t, "memory://"+obj.Key, obj.URL)
		assert.True(t, store.Has(obj.Key))
	})

	t.Run("destroy removes the asset", func(t *testing.T) {
		obj, err := store.Upload(ctx, "trainings/2", strings.NewReader("data"), UploadOptions{})
		require.NoError(t, err)

		require.NoError(t, store.Destroy(ctx, obj.Key))
		assert.False(t, store.Has(obj.Key))
	})

	t.Run("destroying a missing key fails", func(t *testing.T) {
		err := store.Destroy(ctx, "nope")
		require.Error(t, err)
	})
}
