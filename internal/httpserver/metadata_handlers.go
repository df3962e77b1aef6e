package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/models"
)

// handleRecentMetadata returns the most recent metadata, oldest first
func (s *Server) handleRecentMetadata(w http.ResponseWriter, r *http.Request) {
	if s.params.Recorder == nil {
		s.writeErrorResponse(w, "Metadata recording disabled", http.StatusNotFound)
		return
	}
	recent := s.params.Recorder.Snapshot()
	if recent == nil {
		recent = []models.CacheMetadata{}
	}
	s.writeResponse(w, recent)
}

// handleMetadataStream pushes every published metadata as a server-sent event
func (s *Server) handleMetadataStream(w http.ResponseWriter, r *http.Request) {
	if s.params.Broadcaster == nil {
		s.writeErrorResponse(w, "Metadata stream disabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeErrorResponse(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := s.params.Broadcaster.Subscribe(s.params.StreamBuffer)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.shutdown:
			return
		case metadata, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(metadata)
			if err != nil {
				s.logger.Warn("Failed to encode metadata", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: metadata\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
