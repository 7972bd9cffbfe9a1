package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	body := "report body bytes"
	info, err := store.Put(ctx, "reports/p1/a.pdf", strings.NewReader(body), PutOptions{ContentType: "application/pdf"})
	require.NoError(t, err)
	require.Equal(t, int64(len(body)), info.Size)
	require.NotEmpty(t, info.ETag)

	got, rc, err := store.Get(ctx, "reports/p1/a.pdf")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, body, string(data))
	require.Equal(t, info.ETag, got.ETag)
}

func TestMemoryStore_PutExisting(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Put(ctx, "reports/p1/a.pdf", strings.NewReader("one"), PutOptions{})
	require.NoError(t, err)

	_, err = store.Put(ctx, "reports/p1/a.pdf", strings.NewReader("two"), PutOptions{})
	require.ErrorIs(t, err, ErrExists)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Put(ctx, "reports/p1/a.pdf", strings.NewReader("content"), PutOptions{})
	require.NoError(t, err)

	err = store.Delete(ctx, "reports/p1/a.pdf")
	require.NoError(t, err)

	_, err = store.Head(ctx, "reports/p1/a.pdf")
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, "reports/p1/a.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"reports/p1/b.pdf", "reports/p1/a.pdf", "reports/p2/c.pdf"} {
		_, err := store.Put(ctx, key, strings.NewReader("content"), PutOptions{})
		require.NoError(t, err)
	}

	infos, err := store.List(ctx, "reports/p1/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "reports/p1/a.pdf", infos[0].Key)
	require.Equal(t, "reports/p1/b.pdf", infos[1].Key)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	require.Equal(t, DriverMemory, store.Driver())

	store, err = Open(ctx, Config{Driver: DriverFS, Root: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, DriverFS, store.Driver())

	// Empty driver defaults to fs
	store, err = Open(ctx, Config{Root: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, DriverFS, store.Driver())

	_, err = Open(ctx, Config{Driver: "tape"})
	require.Error(t, err)
}
