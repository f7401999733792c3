// Command quern is a local retrieval-augmented knowledge base.
// It ingests documents, answers questions grounded in their content
// and learns from validated answers.
package main

import (
	"fmt"
	"os"

	"github.com/quern-dev/quern/internal/adapters/driven/ai"
	"github.com/quern-dev/quern/internal/adapters/driven/config/file"
	"github.com/quern-dev/quern/internal/adapters/driven/storage/memory"
	"github.com/quern-dev/quern/internal/adapters/driven/storage/sqlite"
	"github.com/quern-dev/quern/internal/adapters/driving/cli"
	"github.com/quern-dev/quern/internal/chunker"
	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/core/services"
	"github.com/quern-dev/quern/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	docStore, index, closeStore, err := openStorage(ephemeralRequested(os.Args[1:]))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeStore()

	svcs := cli.Services{
		Settings: settingsService,
		Document: services.NewDocumentService(docStore, index),
	}

	// The pipeline services come up only with a configured provider.
	// Commands that need a missing service report it and point at
	// the settings wizard.
	if err := wirePipeline(&svcs, docStore, index, settings); err != nil {
		logger.Debug("Pipeline not available: %v", err)
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)

	return cli.Execute()
}

// ephemeralRequested pre-scans the arguments for the --ephemeral flag;
// storage must be chosen before the command tree parses flags.
func ephemeralRequested(args []string) bool {
	for _, arg := range args {
		if arg == "--ephemeral" {
			return true
		}
		if arg == "--" {
			break
		}
	}
	return false
}

// openStorage returns the document store and vector index, either
// SQLite-backed or in-memory for --ephemeral runs.
func openStorage(ephemeral bool) (driven.DocumentStore, driven.VectorIndex, func(), error) {
	if ephemeral {
		index := memory.NewVectorIndex()
		return memory.NewDocumentStore(), index, func() { _ = index.Close() }, nil
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return nil, nil, nil, err
	}
	return store.DocumentStore(), store.VectorIndex(), func() { _ = store.Close() }, nil
}

// wirePipeline builds the ingestion, retrieval and answer services on
// top of the configured AI providers.
func wirePipeline(
	svcs *cli.Services,
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	settings *domain.AppSettings,
) error {
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider not configured")
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding, settings.Pipeline)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}

	splitter, err := chunker.New(settings.Pipeline.ChunkWindow, settings.Pipeline.ChunkOverlapFraction)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	ingest := services.NewIngestService(splitter, embedder, index, docStore, settings.Pipeline)
	retrieve := services.NewRetrievalService(embedder, index, docStore, settings.Pipeline)

	svcs.Ingest = ingest
	svcs.Retrieve = retrieve
	svcs.Feedback = services.NewFeedbackService(ingest)

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("llm provider not configured")
	}

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		return fmt.Errorf("creating llm service: %w", err)
	}

	answer := services.NewAnswerService(llm, retrieve, settings.LLM, settings.Pipeline)
	if prompts, err := file.NewPromptStore(""); err == nil {
		answer.SetPromptStore(prompts)
	}
	svcs.Answer = answer

	return nil
}
