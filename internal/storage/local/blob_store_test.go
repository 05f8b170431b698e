package local

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseDir: "  "})
	require.Error(t, err)
}

func TestBlobStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "pages/abc.html", "text/html", bytes.NewReader([]byte("body")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"))

	data, err := store.GetObject(context.Background(), "pages/abc.html")
	require.NoError(t, err)
	require.Equal(t, []byte("body"), data)
}

func TestBlobStoreRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "../escape.html", "text/html", bytes.NewReader([]byte("x")))
	require.Error(t, err)
}
