package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/internal/configcache"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/logging"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP ingest server",
	Long: `Run an HTTP server that accepts log batches and exposes Prometheus metrics.

Endpoints:
  POST /v1/batches   CloudWatch Logs subscription event, {"data": "<base64>"} or bare base64
  GET    /v1/agents/{agentId}/configuration   cached fingerprint and watched paths
  DELETE /v1/agents/{agentId}/configuration   drop the cached trie for an agent
  GET  /metrics      Prometheus metrics about the engine
  GET  /healthz      liveness probe

The server runs in the foreground until interrupted.

Examples:
  agentmon serve                   # listen on the configured address (default :8080)
  agentmon serve --addr :9090      # listen on a custom address`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Address = serveAddr
		}

		reg := metrics.Default()
		eng, err := buildEngine(cmd.Context(), cfg, engineOptions{}, reg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           newServeMux(eng.processor, eng.cache, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		logging.Info("ingest server listening", map[string]any{"addr": cfg.Server.Address})

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("ingest server: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("ingest server shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

type cachedConfiguration struct {
	AgentID     string          `json:"agent_id"`
	Fingerprint model.HashValue `json:"fingerprint"`
	Watched     []string        `json:"watched"`
	BuiltAt     time.Time       `json:"built_at"`
}

func newServeMux(p *processor.Processor, cache *configcache.Cache, reg *metrics.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/batches", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, compression.MaxDecompressedSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		data, err := extractData(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := p.HandleEncoded(r.Context(), data)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
	mux.HandleFunc("GET /v1/agents/{agentId}/configuration", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("agentId")
		e, ok := cache.Entry(id)
		if !ok {
			writeError(w, http.StatusNotFound, errclass.ErrNotFound.WithMessagef("agent %s has no cached configuration", id))
			return
		}
		writeJSON(w, http.StatusOK, cachedConfiguration{
			AgentID:     id,
			Fingerprint: e.Fingerprint,
			Watched:     e.Trie.Paths(),
			BuiltAt:     e.BuiltAt,
		})
	})
	mux.HandleFunc("DELETE /v1/agents/{agentId}/configuration", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("agentId")
		cache.Invalidate(id)
		logging.Info("cached configuration dropped", map[string]any{"agent_id": id})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errclass.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, errclass.ErrConfigurationUnavailable), errors.Is(err, errclass.ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "address to listen on (overrides server.address)")
	rootCmd.AddCommand(serveCmd)
}
