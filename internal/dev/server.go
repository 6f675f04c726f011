package dev

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/densky-dev/densky/internal/build"
	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/internal/errors"
	"github.com/densky-dev/densky/internal/output"
	"github.com/densky-dev/densky/internal/telemetry"
	"github.com/densky-dev/densky/pkg/routepath"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	Logger *slog.Logger

	// Sink overrides where artifacts are written. Default: derived from Config.
	Sink output.Sink

	// Registry collects metrics served on /metrics. Default: a new registry.
	Registry *prometheus.Registry

	// OnBuildComplete is called after every build.
	OnBuildComplete func(result *build.Result, err error)
}

// snapshot is the state of the most recent build.
type snapshot struct {
	result   *build.Result
	err      *errors.DenskyError
	finished time.Time
}

// Server is the development server. It rebuilds on change and serves an
// inspection API plus reload notifications.
type Server struct {
	options    ServerOptions
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *telemetry.Metrics
	hub        *ReloadHub
	httpServer *http.Server

	buildMu sync.Mutex
	cfg     *config.Config
	builder *build.Builder

	state  atomic.Pointer[snapshot]
	builds atomic.Int64

	mu      sync.Mutex
	running bool
	watcher *Watcher
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := options.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		options:  options,
		logger:   logger.With("component", "dev"),
		registry: registry,
		metrics:  telemetry.NewMetrics(telemetry.WithRegistry(registry)),
		hub:      NewReloadHub(logger),
	}
	s.hub.OnClients = s.metrics.SetReloadClients
	s.setConfig(options.Config)
	return s
}

func (s *Server) setConfig(cfg *config.Config) {
	s.cfg = cfg
	s.builder = build.New(cfg, build.Options{
		Sink:    s.options.Sink,
		Logger:  s.logger,
		Metrics: s.metrics,
	})
}

// Hub returns the reload hub.
func (s *Server) Hub() *ReloadHub {
	return s.hub
}

// Rebuild runs a build with a fresh cache hash and publishes the result.
// Builds are serialized.
func (s *Server) Rebuild(ctx context.Context) (*build.Result, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Server) rebuildLocked(ctx context.Context) (*build.Result, error) {
	result, err := s.builder.Build(ctx)
	s.builds.Add(1)

	snap := &snapshot{finished: time.Now()}
	if err != nil {
		snap.err = errors.Classify(err)
		if prev := s.state.Load(); prev != nil {
			snap.result = prev.result
		}
		s.logger.Error("build failed", "error", err)
		s.hub.NotifyError(snap.err.FormatCompact())
	} else {
		snap.result = result
		if len(result.Errors) > 0 {
			s.hub.NotifyError(result.Errors[0].FormatCompact())
		} else {
			s.hub.ClearError()
		}
		s.hub.NotifyRebuild(result.BuildID, result.CacheHash, result.Manifest.Entry)
	}
	s.state.Store(snap)

	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result, err)
	}
	return result, err
}

// HandleChanges reacts to one batch of file changes. A config change
// reloads the configuration before rebuilding.
func (s *Server) HandleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	reloadConfig := false
	for _, change := range changes {
		s.logger.Debug("changed", "path", change.Path, "type", change.Type.String())
		if change.Type == ChangeConfig {
			reloadConfig = true
		}
	}

	if reloadConfig {
		cfg, err := config.LoadOrDefault(s.cfg.Dir())
		if err != nil {
			de := errors.Classify(err)
			s.logger.Error("config reload failed", "error", err)
			s.hub.NotifyError(de.FormatCompact())
			return
		}
		s.logger.Info("config reloaded", "path", cfg.Path())
		s.setConfig(cfg)
		s.restartWatcher(ctx)
	}

	s.rebuildLocked(ctx)
}

// Handler returns the inspection API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/status", s.handleStatus)
	r.Get("/tree", s.handleTree)
	r.Get("/routes", s.handleRoutes)
	r.Get("/match", s.handleMatch)
	r.Post("/rebuild", s.handleRebuild)
	r.Get("/reload", s.hub.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Start performs the initial build, watches for changes and serves the
// inspection API until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if _, err := s.Rebuild(ctx); err != nil && errors.Classify(err).Code == "E102" {
		s.Stop()
		return err
	}

	s.buildMu.Lock()
	s.restartWatcher(ctx)
	addr := s.cfg.DevAddress()
	s.buildMu.Unlock()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("dev server running", "addr", "http://"+addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// restartWatcher replaces the watcher with one for the current config.
// Caller holds buildMu.
func (s *Server) restartWatcher(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if !s.running {
		return
	}

	dirs, files := CollectWatchPaths(s.cfg)
	w := NewWatcher(WatcherConfig{
		Dirs:      dirs,
		Files:     files,
		Extension: s.cfg.Routes.Extension,
		Ignore:    s.cfg.Dev.Ignore,
		Debounce:  s.cfg.DebounceDuration(),
		Logger:    s.logger,
	})
	w.OnChange(func(changes []Change) {
		// The watcher may be replaced while handling a config change.
		go s.HandleChanges(ctx, changes)
	})
	s.watcher = w
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.hub.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// statusResponse is the body of GET /status.
type statusResponse struct {
	Status    string    `json:"status"`
	BuildID   string    `json:"buildId,omitempty"`
	CacheHash string    `json:"cacheHash,omitempty"`
	Builds    int64     `json:"builds"`
	Routes    int       `json:"routes"`
	Clients   int       `json:"clients"`
	Finished  time.Time `json:"finished,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:  "pending",
		Builds:  s.builds.Load(),
		Clients: s.hub.ClientCount(),
	}

	if snap := s.state.Load(); snap != nil {
		resp.Finished = snap.finished
		if res := snap.result; res != nil {
			resp.Status = res.Status()
			resp.BuildID = res.BuildID
			resp.CacheHash = res.CacheHash
			resp.Routes = len(res.Entries)
			resp.Duration = res.Duration.Round(time.Millisecond).String()
			for _, e := range res.Errors {
				resp.Errors = append(resp.Errors, e.FormatCompact())
			}
			for _, e := range res.Warnings {
				resp.Warnings = append(resp.Warnings, e.FormatCompact())
			}
		}
		if snap.err != nil {
			resp.Status = build.StatusFailure
			resp.Error = snap.err.FormatCompact()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.current(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Tree.Display(w)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	res, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Manifest)
}

// matchResponse is the body of GET /match.
type matchResponse struct {
	Path       string            `json:"path"`
	Node       string            `json:"node"`
	Kind       string            `json:"kind"`
	Params     map[string]string `json:"params,omitempty"`
	Middleware []string          `json:"middleware,omitempty"`
	Fallback   bool              `json:"fallback,omitempty"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	res, ok := s.current(w)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("path")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing path parameter"})
		return
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	path, _, err := routepath.CanonicalizeRequestPath(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m, found := res.Tree.Match(path)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route matches " + path})
		return
	}

	node := res.Tree.Node(m.Node)
	resp := matchResponse{
		Path:     path,
		Node:     node.Path,
		Kind:     node.Kind.String(),
		Params:   m.Params,
		Fallback: m.Fallback,
	}
	for _, id := range m.Middleware {
		resp.Middleware = append(resp.Middleware, res.Tree.Node(id).Path)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := s.Rebuild(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": build.StatusFailure,
			"error":  errors.Classify(err).FormatCompact(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    result.Status(),
		"buildId":   result.BuildID,
		"cacheHash": result.CacheHash,
	})
}

// current returns the latest successful build or writes 503.
func (s *Server) current(w http.ResponseWriter) (*build.Result, bool) {
	snap := s.state.Load()
	if snap == nil || snap.result == nil || snap.result.Tree == nil || snap.result.Manifest == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no successful build yet"})
		return nil, false
	}
	return snap.result, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
