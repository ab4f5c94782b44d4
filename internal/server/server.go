// Package server provides the preview server: it serves an HTML rendering
// of the generated document and pushes live-reload notifications over a
// WebSocket when the document is regenerated.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/logging"
)

// PreviewServer serves the rendered document with live reload.
type PreviewServer struct {
	config     *config.Config
	logger     logging.Logger
	hub        *reloadHub
	httpServer *http.Server

	mutex    sync.RWMutex
	markdown string
}

// NewPreviewServer creates a preview server for the configured document.
func NewPreviewServer(cfg *config.Config, logger logging.Logger) *PreviewServer {
	log := logger.WithComponent("server")

	s := &PreviewServer{
		config: cfg,
		logger: log,
		hub:    newReloadHub(log),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/raw", s.handleRaw)
	mux.HandleFunc("/ws", s.hub.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// SetDocument replaces the served document and notifies connected clients.
func (s *PreviewServer) SetDocument(ctx context.Context, markdown string) {
	s.mutex.Lock()
	s.markdown = markdown
	s.mutex.Unlock()

	s.hub.broadcast(ctx, "reload")
}

// Addr returns the server's listen address.
func (s *PreviewServer) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *PreviewServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "Preview server listening", "addr", s.httpServer.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mutex.RLock()
	markdown := s.markdown
	s.mutex.RUnlock()

	title := s.config.Document.Title
	if title == "" {
		title = "docstitch preview"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, previewPage(title, markdown))
}

func (s *PreviewServer) handleRaw(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	markdown := s.markdown
	s.mutex.RUnlock()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, markdown)
}
