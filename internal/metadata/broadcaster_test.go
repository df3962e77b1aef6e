package metadata

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-cache-interceptor/internal/models"
)

func metadataFor(callID string, status models.CacheStatus) models.CacheMetadata {
	return models.CacheMetadata{
		Token: models.CacheToken{
			CallID: callID,
			Status: status,
			Instruction: models.NewCacheInstruction("*users.User", models.Cache{
				Duration: time.Minute,
			}),
		},
	}
}

func receive(t *testing.T, sub *Subscription) models.CacheMetadata {
	t.Helper()
	select {
	case m, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return m
	case <-time.After(time.Second):
		t.Fatal("no metadata received")
		return models.CacheMetadata{}
	}
}

func TestBroadcaster_FansOutToEverySubscriber(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	first := b.Subscribe(4)
	second := b.Subscribe(4)
	defer first.Close()
	defer second.Close()

	b.Publish(metadataFor("a", models.StatusFresh))

	assert.Equal(t, "a", receive(t, first).Token.CallID)
	assert.Equal(t, "a", receive(t, second).Token.CallID)
	assert.Equal(t, 2, b.Subscribers())
}

func TestBroadcaster_NoReplayForLateSubscribers(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	b.Publish(metadataFor("early", models.StatusFresh))

	sub := b.Subscribe(4)
	defer sub.Close()

	b.Publish(metadataFor("late", models.StatusNetwork))
	assert.Equal(t, "late", receive(t, sub).Token.CallID)
}

func TestBroadcaster_FullSubscriberDropsWithoutBlocking(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	slow := b.Subscribe(1)
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		b.Publish(metadataFor("1", models.StatusFresh))
		b.Publish(metadataFor("2", models.StatusFresh))
		b.Publish(metadataFor("3", models.StatusFresh))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, "1", receive(t, slow).Token.CallID)
	select {
	case m := <-slow.C:
		t.Fatalf("unexpected metadata %s", m.Token.CallID)
	default:
	}
}

func TestBroadcaster_CloseSubscription(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	sub := b.Subscribe(1)

	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers())

	b.Publish(metadataFor("after", models.StatusFresh))
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	sub := b.Subscribe(1)

	b.Close()
	b.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	sub.Close()

	late := b.Subscribe(1)
	_, ok = <-late.C
	assert.False(t, ok)
	late.Close()

	b.Publish(metadataFor("ignored", models.StatusFresh))
}

func TestBroadcaster_ConcurrentPublish(t *testing.T) {
	b := NewBroadcaster(zaptest.NewLogger(t))
	const publishers, perPublisher = 8, 50

	sub := b.Subscribe(publishers * perPublisher)
	defer sub.Close()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				b.Publish(metadataFor("x", models.StatusNetwork))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sub.C, publishers*perPublisher)
}
