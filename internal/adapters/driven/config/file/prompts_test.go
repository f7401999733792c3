package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/core/ports/driven"
)

func TestNewPromptStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewPromptStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, tmpDir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(home, ".quern", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIOInConstructor(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	// Directory is created lazily on first Load, not here
	_, err = os.Stat(tmpDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaults(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystemInstruction)
	require.NoError(t, err)
	assert.Contains(t, prompt, "ONLY the context passages")

	// First Load materialises the directory with one file per default
	for _, name := range []string{driven.PromptSystemInstruction, driven.PromptUngroundedNotice} {
		_, err := os.Stat(filepath.Join(tmpDir, name+".txt"))
		assert.NoError(t, err, "expected default file for %s", name)
	}

	_, err = os.Stat(filepath.Join(tmpDir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_Load_UserEditedFile(t *testing.T) {
	tmpDir := t.TempDir()
	custom := "Answer as tersely as possible."
	err := os.WriteFile(filepath.Join(tmpDir, driven.PromptSystemInstruction+".txt"), []byte(custom+"\n"), 0600)
	require.NoError(t, err)

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystemInstruction)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_PreservesExistingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	custom := "Custom ungrounded text."
	path := filepath.Join(tmpDir, driven.PromptUngroundedNotice+".txt")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0600))

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	// Lazy init must not overwrite user files with defaults
	_, err = store.Load(driven.PromptSystemInstruction)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_UnknownName(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Load_CachesResult(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptUngroundedNotice)
	require.NoError(t, err)

	// Edits after the first load are not visible until Reload
	path := filepath.Join(tmpDir, driven.PromptUngroundedNotice+".txt")
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0600))

	cached, err := store.Load(driven.PromptUngroundedNotice)
	require.NoError(t, err)
	assert.Equal(t, first, cached)
}

func TestPromptStore_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptUngroundedNotice)
	require.NoError(t, err)

	path := filepath.Join(tmpDir, driven.PromptUngroundedNotice+".txt")
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0600))

	store.Reload()

	prompt, err := store.Load(driven.PromptUngroundedNotice)
	require.NoError(t, err)
	assert.Equal(t, "changed", prompt)
}

func TestPromptStore_Load_FallsBackWhenInitFails(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail
	tmpDir := t.TempDir()
	blocked := filepath.Join(tmpDir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0600))

	store, err := NewPromptStore(blocked)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystemInstruction)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptSystemInstruction], prompt)

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Load_Concurrent(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	done := make(chan string, 20)
	for i := 0; i < 20; i++ {
		go func() {
			prompt, err := store.Load(driven.PromptSystemInstruction)
			if err != nil {
				done <- "error: " + err.Error()
				return
			}
			done <- prompt
		}()
	}

	first := <-done
	for i := 1; i < 20; i++ {
		assert.Equal(t, first, <-done)
	}
}
