package pagination

import (
	"context"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLimit is the page size used by DefaultConfig.
const DefaultLimit = 25

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seal_pages_fetched_total",
		Help: "Total number of list pages fetched",
	})

	paginationItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seal_pagination_items_total",
		Help: "Total number of items collected across all paginated fetches",
	})

	paginationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seal_pagination_duration_seconds",
		Help:    "Duration of complete paginated fetches",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Meta carries collection-level information about a list response.
type Meta struct {
	TotalCount int `json:"totalCount"`
}

// Envelope is one page of list results.
type Envelope[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Config holds pagination parameters.
type Config struct {
	// Offset of the first item requested
	Offset int
	// Limit is the page size; must be positive
	Limit int
}

// DefaultConfig returns offset 0 and a page size of DefaultLimit.
func DefaultConfig() Config {
	return Config{
		Offset: 0,
		Limit:  DefaultLimit,
	}
}

// Validate rejects a negative offset or a non-positive limit.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return &ConfigError{Field: "limit", Value: c.Limit, Rule: "must be > 0"}
	}
	if c.Offset < 0 {
		return &ConfigError{Field: "offset", Value: c.Offset, Rule: "must be >= 0"}
	}
	return nil
}

// PageFetcher fetches a single page of a list resource.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, id string, offset, limit int) (*Envelope[T], error)
}

// PageFetcherFunc adapts a function to the PageFetcher interface.
type PageFetcherFunc[T any] func(ctx context.Context, id string, offset, limit int) (*Envelope[T], error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, id string, offset, limit int) (*Envelope[T], error) {
	return f(ctx, id, offset, limit)
}

// Fetcher collects all pages of a list resource.
type Fetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewFetcher creates a Fetcher. It returns a *ConfigError for invalid config.
func NewFetcher[T any](fetcher PageFetcher[T], config Config) (*Fetcher[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Fetcher[T]{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}, nil
}

// Config returns the fetcher's configuration.
func (f *Fetcher[T]) Config() Config {
	return f.config
}

// FetchAll fetches every page of id using the configured offset and limit.
func (f *Fetcher[T]) FetchAll(ctx context.Context, id string) ([]T, error) {
	return f.FetchFrom(ctx, id, f.config.Offset, f.config.Limit)
}

// Op returns FetchAll for id as an async.Op.
func (f *Fetcher[T]) Op(id string) async.Op[[]T] {
	return func(ctx context.Context) ([]T, error) {
		return f.FetchAll(ctx, id)
	}
}

// FetchFrom fetches pages of id starting at offset with the given page size
// until totalCount <= offset+limit. The first failing page aborts the fetch
// and its error is returned unchanged.
func (f *Fetcher[T]) FetchFrom(ctx context.Context, id string, offset, limit int) ([]T, error) {
	if err := (Config{Offset: offset, Limit: limit}).Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	items := []T{}
	pages := 0

	for {
		env, err := f.fetcher.FetchPage(ctx, id, offset, limit)
		if err != nil {
			f.logger.Warn().
				Err(err).
				Str("contract_id", id).
				Int("offset", offset).
				Int("limit", limit).
				Int("pages_fetched", pages).
				Msg("Page fetch failed")
			return nil, err
		}
		if env == nil {
			return nil, ErrNilEnvelope
		}

		pages++
		pagesFetchedTotal.Inc()
		items = append(items, env.Items...)

		f.logger.Debug().
			Str("contract_id", id).
			Int("offset", offset).
			Int("limit", limit).
			Int("items", len(env.Items)).
			Int("total_count", env.Meta.TotalCount).
			Msg("Fetched page")

		// offset+limit may overflow for huge limits
		if env.Meta.TotalCount-offset <= limit {
			break
		}
		offset += limit
	}

	paginationItemsTotal.Add(float64(len(items)))
	paginationDuration.Observe(time.Since(start).Seconds())

	f.logger.Info().
		Str("contract_id", id).
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}
