// Package aggregate fetches a contract's preview markup and its normalized
// metadata concurrently and combines them into a single Result.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/Sternrassler/seal-preview/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Join keys used by FetchAll. A *async.JoinError returned by FetchAll is
// keyed by these names.
const (
	KeyHTML     = "html"
	KeyMetadata = "metadata"
)

// Source provides the two requests the aggregate is built from.
type Source interface {
	// Preview returns the rendered markup of a contract.
	Preview(ctx context.Context, id string) (string, error)
	// MetadataPage returns one page of a contract's metadata groups.
	MetadataPage(ctx context.Context, id string, offset, limit int) (*metadata.PageEnvelope, error)
}

// Result is the combined preview and metadata of a contract.
type Result struct {
	HTML     string         `json:"html"`
	Metadata metadata.Index `json:"metadata"`
}

// Config holds aggregate fetch configuration.
type Config struct {
	Pagination      pagination.Config
	CollisionPolicy metadata.CollisionPolicy
}

// DefaultConfig returns default pagination and the overwrite collision policy.
func DefaultConfig() Config {
	return Config{
		Pagination:      pagination.DefaultConfig(),
		CollisionPolicy: metadata.CollisionOverwrite,
	}
}

// Fetcher builds Results from a Source.
type Fetcher struct {
	source     Source
	pager      *pagination.Fetcher[metadata.Group]
	normalizer metadata.Normalizer
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher. Invalid pagination settings are reported
// as *pagination.ConfigError.
func NewFetcher(source Source, cfg Config) (*Fetcher, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}

	pager, err := pagination.NewFetcher[metadata.Group](
		pagination.PageFetcherFunc[metadata.Group](source.MetadataPage),
		cfg.Pagination,
	)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		source:     source,
		pager:      pager,
		normalizer: metadata.Normalizer{Policy: cfg.CollisionPolicy},
		logger:     log.With().Str("component", "aggregate").Logger(),
	}, nil
}

// PreviewOp returns the preview request for id as an Op.
func (f *Fetcher) PreviewOp(id string) async.Op[string] {
	return func(ctx context.Context) (string, error) {
		return f.source.Preview(ctx, id)
	}
}

// MetadataOp returns the paged metadata fetch for id followed by normalization.
func (f *Fetcher) MetadataOp(id string) async.Op[metadata.Index] {
	return async.Then(f.pager.Op(id), f.normalizer.Normalize)
}

// Metadata fetches every metadata page of id and normalizes it.
func (f *Fetcher) Metadata(ctx context.Context, id string) (metadata.Index, error) {
	return f.MetadataOp(id)(ctx)
}

// FetchAll fetches the preview and the metadata of id concurrently. If
// either fails the *async.JoinError is returned unchanged, keyed by KeyHTML
// and/or KeyMetadata.
func (f *Fetcher) FetchAll(ctx context.Context, id string) (*Result, error) {
	start := time.Now()

	preview := f.PreviewOp(id)
	meta := f.MetadataOp(id)

	res, err := async.Join(map[string]async.Op[any]{
		KeyHTML: func(ctx context.Context) (any, error) {
			return preview(ctx)
		},
		KeyMetadata: func(ctx context.Context) (any, error) {
			return meta(ctx)
		},
	})(ctx)
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("contract_id", id).
			Dur("duration", time.Since(start)).
			Msg("Aggregate fetch failed")
		return nil, err
	}

	result := &Result{
		HTML:     res[KeyHTML].(string),
		Metadata: res[KeyMetadata].(metadata.Index),
	}

	f.logger.Info().
		Str("contract_id", id).
		Int("html_bytes", len(result.HTML)).
		Int("annotations", len(result.Metadata)).
		Dur("duration", time.Since(start)).
		Msg("Aggregate fetch complete")

	return result, nil
}

// Groups fetches every metadata page of id without normalizing it.
func (f *Fetcher) Groups(ctx context.Context, id string) ([]metadata.Group, error) {
	return f.pager.FetchAll(ctx, id)
}
