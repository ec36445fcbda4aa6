package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/aggregate"
	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/Sternrassler/seal-preview/pkg/client"
	"github.com/Sternrassler/seal-preview/pkg/logging"
	"github.com/Sternrassler/seal-preview/pkg/metrics"
	"github.com/Sternrassler/seal-preview/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const fetchTimeout = 30 * time.Second

var (
	serveAddr string
	serveSave bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve contract previews over HTTP",
	Long: `Start an HTTP server exposing:

  GET /health           liveness
  GET /ready            readiness (pings Redis when --save is set)
  GET /metrics          Prometheus metrics
  GET /contracts/{id}   preview and normalized metadata as JSON

With --save every successful fetch is also written to the snapshot store.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default listen_addr from config)")
	serveCmd.Flags().BoolVar(&serveSave, "save", false, "write fetched results to the snapshot store")
	rootCmd.AddCommand(serveCmd)
}

// contractFetcher is satisfied by *client.Client.
type contractFetcher interface {
	FetchAll(ctx context.Context, id string) (*aggregate.Result, error)
}

// snapshotSaver is satisfied by *store.Store.
type snapshotSaver interface {
	Save(ctx context.Context, id string, result *aggregate.Result) error
}

// pinger is satisfied by *redis.Client.
type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.NewLogger("seal-serve")

	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		saver snapshotSaver
		ready pinger
	)
	if serveSave {
		rdb, err := newRedis(ctx)
		if err != nil {
			return err
		}
		defer rdb.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		saver = store.New(rdb, cfg.Redis.TTL)
		ready = rdb
	}

	addr := firstNonEmpty(serveAddr, cfg.ListenAddr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServeMux(c, saver, ready),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", addr).
		Str("seal_url", cfg.URL).
		Str("user_agent", cfg.UserAgent).
		Bool("save", serveSave).
		Msg("Starting preview server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}

// newServeMux wires the HTTP routes. saver and ready may be nil.
func newServeMux(fetcher contractFetcher, saver snapshotSaver, ready pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /contracts/{id}", contractHandler(fetcher, saver))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(ready pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// errorResponse is the JSON body of a failed contract request.
type errorResponse struct {
	Error    string            `json:"error"`
	Failures map[string]string `json:"failures,omitempty"`
}

func contractHandler(fetcher contractFetcher, saver snapshotSaver) http.HandlerFunc {
	logger := logging.NewLogger("seal-serve")

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
		defer cancel()

		res, err := fetcher.FetchAll(ctx, id)
		if err != nil {
			status, body := fetchErrorResponse(err)
			logger.Warn().Err(err).Str("contract_id", id).Int("status", status).Msg("Contract request failed")
			writeJSONStatus(w, status, body)
			return
		}

		if saver != nil {
			if err := saver.Save(ctx, id, res); err != nil {
				// the response is still served
				logger.Error().Err(err).Str("contract_id", id).Msg("Failed to save snapshot")
			}
		}

		writeJSONStatus(w, http.StatusOK, res)
	}
}

// fetchErrorResponse maps a FetchAll error to an HTTP status and body.
// Upstream 404s on every failed part become 404; anything else is 502.
func fetchErrorResponse(err error) (int, errorResponse) {
	var joinErr *async.JoinError
	if !errors.As(err, &joinErr) {
		return http.StatusBadGateway, errorResponse{Error: err.Error()}
	}

	body := errorResponse{
		Error:    "contract fetch failed",
		Failures: make(map[string]string, len(joinErr.Failures)),
	}
	allNotFound := true
	for key, ferr := range joinErr.Failures {
		body.Failures[key] = ferr.Error()

		var apiErr *client.APIError
		if !errors.As(ferr, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			allNotFound = false
		}
	}

	if allNotFound {
		return http.StatusNotFound, body
	}
	return http.StatusBadGateway, body
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.NewLogger("seal-serve")
		logger.Error().Err(err).Msg("Failed to write response")
	}
}
