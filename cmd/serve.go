package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/monitoring"
	"github.com/sells-group/rfp-scorer/internal/records"
	"github.com/sells-group/rfp-scorer/internal/scorer"
)

// maxScoreBody caps POST /score request bodies.
const maxScoreBody = 8 << 20

var (
	servePort    int
	serveProfile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring server",
	Long: `Serve the scoring engine over HTTP.

  GET  /health   liveness and active profile version
  GET  /profile  active profile version, source and load time
  POST /score    score one record object or an array of records
  GET  /metrics  Prometheus metrics

Send SIGHUP to reload the profile; a profile that fails to load or validate
is rejected and the running one is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		path := resolveProfilePath(serveProfile)
		engine, err := loadEngine(path)
		if err != nil {
			return eris.Wrap(err, "serve: load profile")
		}

		s := newServer(scorer.NewHolder(engine), path, monitoring.NewMetrics())
		s.metrics.ProfileLoaded(engine.Version(), false)

		if cfg.Monitoring.WebhookURL != "" {
			s.recorder = monitoring.NewRecorder()
			checker := monitoring.NewChecker(s.recorder, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
			go checker.Run(ctx)
		}

		go s.watchReload(ctx)

		return startServer(ctx, buildRouter(s, cfg.Server), resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "scoring profile path (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the state shared by the HTTP handlers.
type server struct {
	holder      *scorer.Holder
	profilePath string
	metrics     *monitoring.Metrics
	recorder    *monitoring.Recorder // nil when digest alerts are disabled
	now         func() time.Time
}

func newServer(holder *scorer.Holder, profilePath string, metrics *monitoring.Metrics) *server {
	return &server{
		holder:      holder,
		profilePath: profilePath,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// reload swaps in a freshly loaded engine, keeping the current one on error.
func (s *server) reload() error {
	e, err := s.holder.Reload(s.profilePath, engineOptions()...)
	if err != nil {
		s.metrics.ProfileReloadFailed()
		return err
	}
	s.metrics.ProfileLoaded(e.Version(), true)
	return nil
}

// watchReload reloads the profile on every SIGHUP until ctx is done.
func (s *server) watchReload(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := s.reload(); err != nil {
				zap.L().Error("profile reload rejected, keeping current profile",
					zap.String("path", s.profilePath),
					zap.Error(err),
				)
			}
		}
	}
}

// buildRouter wires middleware and routes.
func buildRouter(s *server, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if sc.RateLimit > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(sc.RateLimit), sc.RateBurst)))
		}
		r.Get("/profile", s.handleProfile)
		r.Post("/score", s.handleScore)
	})

	return r
}

// instrument records request counts and latencies per route pattern.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(endpoint, r.Method, status, time.Since(start))
	})
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"profile_version": s.holder.Engine().Version(),
	})
}

func (s *server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	p := s.holder.Engine().Profile()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   p.Version,
		"source":    p.Source,
		"loaded_at": p.LoadedAt,
	})
}

// scoreError is the 400 body for a batch with rows missing required fields.
type scoreError struct {
	Error   string            `json:"error"`
	Skipped []records.Skipped `json:"skipped"`
}

func (s *server) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScoreBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	batch, err := records.DecodeRecords(r.Context(), bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(batch.Skipped) > 0 {
		writeJSON(w, http.StatusBadRequest, scoreError{
			Error:   "records missing required fields",
			Skipped: batch.Skipped,
		})
		return
	}
	if len(batch.Records) == 0 {
		writeError(w, http.StatusBadRequest, "no records")
		return
	}

	at := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid at %q, want YYYY-MM-DD", v))
			return
		}
		at = t
	}

	// One engine for the whole request, even if a reload lands mid-batch.
	engine := s.holder.Engine()
	start := time.Now()
	results, err := scorer.ScoreAll(r.Context(), engine, batch.Records, at, scoreConcurrency())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "scoring cancelled")
		return
	}
	s.metrics.ObserveBatch(results, time.Since(start))
	if s.recorder != nil {
		s.recorder.Record(results...)
	}

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		writeJSON(w, http.StatusOK, results[0])
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func scoreConcurrency() int {
	if cfg != nil && cfg.Batch.Concurrency > 0 {
		return cfg.Batch.Concurrency
	}
	return scorer.DefaultConcurrency
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolvePort prefers the --port flag over server.port from config.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- eris.Wrap(err, "server listen")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}
