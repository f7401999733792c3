package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, root string, ingest *fakeIngestor) *dirWatcher {
	t.Helper()

	w, err := newDirWatcher(root, ingest, "", 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestDirWatcher_ScheduleCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))

	ingest := &fakeIngestor{}
	w := newTestWatcher(t, dir, ingest)

	ctx := context.Background()
	w.schedule(ctx, path)
	w.schedule(ctx, path)
	w.schedule(ctx, path)

	select {
	case res := <-w.results:
		require.NoError(t, res.err)
		assert.Equal(t, watchDocumentID(path), res.id)
		assert.Equal(t, "v1", ingest.lastText)
		assert.Equal(t, path, ingest.lastLabel)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled ingestion never ran")
	}

	// Coalesced: three schedules, one ingestion
	select {
	case res := <-w.results:
		t.Fatalf("unexpected extra ingestion: %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDirWatcher_LabelOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))

	ingest := &fakeIngestor{}
	w := newTestWatcher(t, dir, ingest)
	w.label = "handbook"

	id, err := w.ingestFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, watchDocumentID(path), id)
	assert.Equal(t, "handbook", ingest.lastLabel)
}

func TestDirWatcher_RewriteSupersedesSameDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))

	ingest := &fakeIngestor{}
	w := newTestWatcher(t, dir, ingest)
	ctx := context.Background()

	first, err := w.ingestFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0600))
	second, err := w.ingestFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "v2", ingest.lastText)
	require.Len(t, ingest.docIDs, 2)
	assert.Equal(t, ingest.docIDs[0], ingest.docIDs[1])
}

func TestWatchDocumentID(t *testing.T) {
	a := watchDocumentID("/data/notes/a.txt")
	b := watchDocumentID("/data/notes/b.txt")

	assert.Equal(t, a, watchDocumentID("/data/notes/a.txt"))
	assert.NotEqual(t, a, b)
	assert.NoError(t, uuid.Validate(a))
}

func TestDirWatcher_IngestExistingSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen.txt"), []byte("visible"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("secret"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0600))

	ingest := &fakeIngestor{}
	w := newTestWatcher(t, dir, ingest)

	cmd := rootCmd
	require.NoError(t, w.ingestExisting(context.Background(), cmd))

	assert.Equal(t, "visible", ingest.lastText)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.True(t, isHidden(".env"))
	assert.False(t, isHidden("notes.txt"))
}
