package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allie-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	ctx := context.Background()

	obj, err := store.Save(ctx, "family-1", "lab results.txt", strings.NewReader("cholesterol 180"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("cholesterol 180")), obj.SizeBytes)
	assert.True(t, strings.HasSuffix(obj.Key, "_lab results.txt"))
	assert.Contains(t, obj.ContentType, "text/plain")

	rc, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "cholesterol 180", string(body))

	stat, err := store.Stat(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, obj.SizeBytes, stat.SizeBytes)

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, err = store.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, object.ErrNotFound)
	require.NoError(t, store.Delete(ctx, obj.Key))
}

func TestOwnersDoNotShareNamespace(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	a, err := store.Save(context.Background(), "family-a", "card.png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "family-b", "card.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, strings.Split(a.Key, "/")[0], strings.Split(b.Key, "/")[0])
}

func TestRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
	_, err = store.Save(context.Background(), "family", "../x.pdf", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestSaveWithKey(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	n, err := store.SaveWithKey(context.Background(), "uploads/abc/report.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	stat, err := store.Stat(context.Background(), "uploads/abc/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stat.ContentType)
}
