package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/cache/service"
	"go-cache-interceptor/internal/client"
	"go-cache-interceptor/internal/emptyresponse"
	"go-cache-interceptor/internal/metadata"
)

// Params holds the collaborators of the server
type Params struct {
	Client       *client.Client
	CacheService *service.CacheService
	Factory      *emptyresponse.Factory
	Recorder     *metadata.Recorder
	Broadcaster  *metadata.Broadcaster
	// StreamBuffer is the subscription buffer of each metadata stream
	StreamBuffer int
	Logger       *zap.Logger
}

// Server exposes the fetch, store administration and metadata endpoints
type Server struct {
	params Params
	logger *zap.Logger

	mu     sync.Mutex
	server *http.Server
	// shutdown is closed when Stop begins, ending the open metadata streams
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates a new HTTP server
func NewServer(params Params) *Server {
	if params.StreamBuffer <= 0 {
		params.StreamBuffer = 16
	}
	return &Server{
		params:   params,
		logger:   params.Logger,
		shutdown: make(chan struct{}),
	}
}

// StartUnixSocket starts the HTTP server on a Unix socket
func (s *Server) StartUnixSocket(socketPath string) error {
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}

	s.logger.Info("Starting cache HTTP server on Unix socket", zap.String("socket_path", socketPath))
	return s.serve(listener)
}

// StartTCP starts the HTTP server on a TCP address
func (s *Server) StartTCP(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.logger.Info("Starting cache HTTP server", zap.String("address", listener.Addr().String()))
	return s.serve(listener)
}

func (s *Server) serve(listener net.Listener) error {
	// WriteTimeout is left unset since metadata streams are long lived
	server := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	server.RegisterOnShutdown(s.closeStreams)

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping cache HTTP server")
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		s.closeStreams()
		return nil
	}
	return server.Shutdown(ctx)
}

// closeStreams ends every open metadata stream, Shutdown waits for their handlers
func (s *Server) closeStreams() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/cache/fetch", s.handleFetch).Methods("POST")
	router.HandleFunc("/cache/invalidate", s.handleInvalidate).Methods("POST")
	router.HandleFunc("/cache/clear", s.handleClear).Methods("POST")

	router.HandleFunc("/instruction/encode", s.handleEncodeInstruction).Methods("POST")
	router.HandleFunc("/instruction/decode", s.handleDecodeInstruction).Methods("POST")

	router.HandleFunc("/metadata", s.handleRecentMetadata).Methods("GET")
	router.HandleFunc("/metadata/stream", s.handleMetadataStream).Methods("GET")

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// parseRequest parses JSON request body
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
