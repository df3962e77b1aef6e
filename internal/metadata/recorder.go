package metadata

import (
	"context"
	"sync"

	"go-cache-interceptor/internal/models"
)

// Recorder keeps the most recent metadata values for diagnostics
type Recorder struct {
	mu     sync.RWMutex
	buffer []models.CacheMetadata
	next   int
	full   bool
}

// NewRecorder creates a recorder holding at most size values
func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{buffer: make([]models.CacheMetadata, size)}
}

// Record stores a value, overwriting the oldest one when full
func (r *Recorder) Record(metadata models.CacheMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer[r.next] = metadata
	r.next = (r.next + 1) % len(r.buffer)
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the recorded values, oldest first
func (r *Recorder) Snapshot() []models.CacheMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		return append([]models.CacheMetadata(nil), r.buffer[:r.next]...)
	}
	out := make([]models.CacheMetadata, 0, len(r.buffer))
	out = append(out, r.buffer[r.next:]...)
	return append(out, r.buffer[:r.next]...)
}

// Consume records every value of sub until ctx is done or sub is closed
func (r *Recorder) Consume(ctx context.Context, sub *Subscription) {
	consume(ctx, sub, r.Record)
}

func consume(ctx context.Context, sub *Subscription, fn func(models.CacheMetadata)) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.C:
			if !ok {
				return
			}
			fn(m)
		}
	}
}
