package metadata

import (
	"sync"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

// Subscription receives every metadata value published after it was created
type Subscription struct {
	C <-chan models.CacheMetadata

	ch          chan models.CacheMetadata
	broadcaster *Broadcaster
	once        sync.Once
}

// Close detaches the subscription and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broadcaster.remove(s)
	})
}

// Broadcaster fans metadata out to any number of subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the value.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	closed      bool
	logger      *zap.Logger
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[*Subscription]struct{}),
		logger:      logger,
	}
}

// Publish implements interfaces.MetadataPublisher
func (b *Broadcaster) Publish(metadata models.CacheMetadata) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	metrics.RecordMetadataPublished()
	for sub := range b.subscribers {
		select {
		case sub.ch <- metadata:
		default:
			metrics.RecordMetadataDropped()
			b.logger.Debug("Dropping metadata for slow subscriber", zap.String("call_id", metadata.Token.CallID))
		}
	}
}

// Subscribe registers a subscriber with the given buffer size. Subscribing to a
// closed broadcaster returns an already closed subscription.
func (b *Broadcaster) Subscribe(buffer int) *Subscription {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan models.CacheMetadata, buffer)
	sub := &Subscription{C: ch, ch: ch, broadcaster: b}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		sub.once.Do(func() {})
		return sub
	}
	b.subscribers[sub] = struct{}{}
	return sub
}

// Close detaches and closes every subscription
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, sub)
	}
}

// Subscribers returns the number of attached subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub.ch)
}
