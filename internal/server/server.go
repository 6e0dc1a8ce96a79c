// Package server is the development preview server: it renders each
// template with the data file beside it and reloads the browser when
// templates change.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/validation"
	"github.com/conneroisu/htmlc/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves templates with live reload.
type PreviewServer struct {
	config       *config.Config
	logger       logging.Logger
	pipeline     *build.Pipeline
	watcher      *watcher.FileWatcher
	handler      http.Handler
	httpServer   *http.Server
	serverMutex  sync.RWMutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}
	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message types sent over the live reload socket.
const (
	MessageReload = "reload"
	MessageError  = "build_error"
)

// New creates a new preview server
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	pipeline, err := build.NewPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := watcher.NewFileWatcher(150*time.Millisecond, watcher.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	s := &PreviewServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		pipeline:   pipeline,
		watcher:    fileWatcher,
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	pipeline.AddCallback(s.handleBuildResult)
	s.handler = s.addMiddleware(s.routes())
	return s, nil
}

// Handler returns the server's routes wrapped in its middleware.
func (s *PreviewServer) Handler() http.Handler { return s.handler }

// Pipeline returns the build pipeline holding the served templates.
func (s *PreviewServer) Pipeline() *build.Pipeline { return s.pipeline }

// Start builds every template, starts watching them and serves until
// Shutdown is called.
func (s *PreviewServer) Start(ctx context.Context) error {
	results, err := s.pipeline.BuildAll(ctx)
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	s.logger.Info(ctx, "templates compiled", "count", len(results), "failed", len(s.pipeline.Failures()))

	s.setupFileWatcher(ctx)
	go s.runWebSocketHub(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "preview server listening", "url", "http://"+addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddFilter(watcher.NoVendorFilter)
	s.watcher.AddFilter(watcher.TemplateFilter(s.pipeline.Scanner()))
	s.watcher.AddHandler(s.handleFileChange)

	for _, path := range s.config.Templates.Paths {
		if err := s.watcher.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "failed to watch path", "path", path)
		}
	}
	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "failed to start file watcher")
	}
}

// handleFileChange recompiles changed templates. Build results reach the
// browser through handleBuildResult.
func (s *PreviewServer) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())

		if event.Type.Gone() {
			name := s.pipeline.Remove(event.Path)
			s.broadcastMessage(UpdateMessage{Type: MessageReload, Target: name, Timestamp: time.Now()})
			continue
		}
		if _, err := s.pipeline.BuildFile(ctx, event.Path); err != nil {
			s.logger.Warn(ctx, err, "failed to rebuild", "path", event.Path)
		}
	}
	return nil
}

// handleBuildResult tells browsers about a finished compile. Unchanged files
// send nothing.
func (s *PreviewServer) handleBuildResult(result build.Result) {
	if result.CacheHit {
		return
	}
	msg := UpdateMessage{
		Type:      MessageReload,
		Target:    result.File.Name,
		Timestamp: time.Now(),
	}
	if result.Failed() {
		msg.Type = MessageError
		msg.Content = result.Diagnostic()
	}
	s.broadcastMessage(msg)
}

func (s *PreviewServer) broadcastMessage(msg UpdateMessage) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(context.Background(), err, "failed to marshal message")
		jsonData = []byte(`{"type":"reload"}`)
	}

	select {
	case s.broadcast <- jsonData:
	case <-s.done:
	default:
		s.logger.Warn(context.Background(), nil, "broadcast queue full, dropping message", "type", msg.Type)
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

// isAllowedOrigin reports whether a cross-origin request may read responses.
// Only the configured origins qualify; the server's own host needs no CORS.
func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	return validation.ValidateOrigin(origin, "", s.config.Server.AllowedOrigins) == nil
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down preview server")
		close(s.done)

		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, err, "stopping file watcher")
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
