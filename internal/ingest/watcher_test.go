package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWatcher_EmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Root: root, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	p := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	select {
	case got := <-events:
		assert.Equal(t, p, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event received")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_IgnoresExcludedFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	own := filepath.Join(root, "processing_log.csv")
	events, _, err := StartWatcher(ctx, WatchConfig{Root: root, Exclude: NewExcludeSet(own)})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(own, []byte("file,readable\n"), 0o644))
	p := filepath.Join(root, "invoice.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	select {
	case got := <-events:
		assert.Equal(t, p, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event received")
	}

	cancel()
	for got := range events {
		assert.NotEqual(t, own, got)
	}
}

func TestStartWatcher_RequiresRoot(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
