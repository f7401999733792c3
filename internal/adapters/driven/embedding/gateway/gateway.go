// Package gateway decorates an embedding service with the pipeline's
// operational policy: sub-batching, dimension verification, per-call
// timeouts, client-side rate limiting and error translation. The services
// layer always talks to the provider through this decorator, so provider
// adapters stay thin transport code.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/logger"
)

// Ensure Gateway implements the interface it decorates.
var _ driven.EmbeddingService = (*Gateway)(nil)

// Default configuration values.
const (
	DefaultBatchSize = 32
	DefaultTimeout   = 30 * time.Second

	// DefaultRequestsPerSecond is generous for local providers and safe
	// for cloud free tiers.
	DefaultRequestsPerSecond = 10
)

// Config holds gateway configuration.
type Config struct {
	// BatchSize is the maximum number of texts per upstream call
	// (default: 32).
	BatchSize int

	// Timeout bounds a single upstream call (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles upstream calls; zero disables
	// throttling.
	RequestsPerSecond float64
}

// Gateway wraps a driven.EmbeddingService.
type Gateway struct {
	upstream  driven.EmbeddingService
	batchSize int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// New creates a gateway around the given embedding service.
func New(upstream driven.EmbeddingService, cfg Config) *Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Gateway{
		upstream:  upstream,
		batchSize: cfg.BatchSize,
		timeout:   cfg.Timeout,
		limiter:   limiter,
	}
}

// Embed generates a single embedding through the gateway policy.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in order-preserving sub-batches of at most
// batchSize items. The result always has exactly one vector per input
// text; batching never alters per-item values. Any upstream failure
// surfaces as a wrapped domain.ErrEmbeddingUnavailable, a vector of the
// wrong size as domain.ErrEmbeddingDimensionMismatch.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := g.embedOne(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	logger.Debug("Embedded %d texts in %d batches", len(texts), (len(texts)+g.batchSize-1)/g.batchSize)
	return vectors, nil
}

// embedOne performs a single upstream call under the rate limit and
// timeout, then verifies the response shape.
func (g *Gateway) embedOne(ctx context.Context, texts []string) ([][]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrEmbeddingUnavailable, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	batch, err := g.upstream.EmbedBatch(callCtx, texts)
	if err != nil {
		// Dimension failures reported by the upstream keep their identity.
		if errors.Is(err, domain.ErrEmbeddingDimensionMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if len(batch) != len(texts) {
		return nil, fmt.Errorf("%w: upstream returned %d vectors for %d texts",
			domain.ErrEmbeddingUnavailable, len(batch), len(texts))
	}

	want := g.upstream.Dimensions()
	for i, vec := range batch {
		if len(vec) != want {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbeddingDimensionMismatch, i, len(vec), want)
		}
	}

	return batch, nil
}

// Dimensions returns the upstream's fixed vector size.
func (g *Gateway) Dimensions() int {
	return g.upstream.Dimensions()
}

// ModelName returns the upstream's model name.
func (g *Gateway) ModelName() string {
	return g.upstream.ModelName()
}

// Ping checks upstream reachability.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.upstream.Ping(ctx)
}

// Close releases the upstream's resources.
func (g *Gateway) Close() error {
	return g.upstream.Close()
}
