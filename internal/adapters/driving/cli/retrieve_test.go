package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/core/domain"
)

func TestRetrieveCmd_PrintsRankedChunks(t *testing.T) {
	_, _, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "retrieve", "uptime")

	require.NoError(t, err)
	assert.Contains(t, out, "chunk-aa")
	assert.Contains(t, out, "0.9100")
	assert.Contains(t, out, "sla.md")
	assert.Contains(t, out, "original")
}

func TestRetrieveCmd_EmptyResult(t *testing.T) {
	_, retriever, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	retriever.result = domain.RetrievalResult{}

	out, err := execute(t, "retrieve", "nothing indexed")

	require.NoError(t, err)
	assert.Contains(t, out, "No relevant chunks found.")
}

func TestRetrieveCmd_JSON(t *testing.T) {
	_, _, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "retrieve", "uptime", "--json")

	require.NoError(t, err)

	var chunks []domain.ScoredChunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 1)
	assert.Equal(t, "chunk-aaaa1111", chunks[0].Chunk.ID)
}

func TestRetrieveCmd_SurfacesErrors(t *testing.T) {
	_, retriever, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	retriever.err = errors.New("index unavailable")

	_, err := execute(t, "retrieve", "uptime")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
}

func TestSnippet_FlattensAndTruncates(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t\tc", 80))

	long := snippet("word word word word word", 9)
	assert.Equal(t, "word word...", long)
}
