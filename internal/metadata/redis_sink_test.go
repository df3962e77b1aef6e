package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"go-cache-interceptor/internal/interfaces/mock"
	"go-cache-interceptor/internal/models"
)

func TestRedisSink_PublishesJSON(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	pubsub := client.Subscribe(ctx, "cache-metadata")
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, "cache-metadata", zaptest.NewLogger(t))
	metadata := metadataFor("call-1", models.StatusNetwork)
	metadata.Err = errors.New("slow network")
	require.NoError(t, sink.Send(ctx, metadata))

	select {
	case msg := <-pubsub.Channel():
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		assert.Equal(t, "call-1", decoded["call_id"])
		assert.Equal(t, "NETWORK", decoded["status"])
		assert.Equal(t, "CACHE", decoded["operation"])
		assert.Equal(t, "slow network", decoded["error"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisSink_SendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockKeyDbClient(ctrl)
	client.EXPECT().
		Publish(gomock.Any(), "cache-metadata", gomock.Any()).
		Return(redis.NewIntResult(0, errors.New("connection refused")))

	sink := NewRedisSink(client, "cache-metadata", zaptest.NewLogger(t))
	err := sink.Send(context.Background(), metadataFor("call-1", models.StatusFresh))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRedisSink_ConsumeKeepsGoingAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockKeyDbClient(ctrl)
	gomock.InOrder(
		client.EXPECT().Publish(gomock.Any(), "ch", gomock.Any()).Return(redis.NewIntResult(0, errors.New("down"))),
		client.EXPECT().Publish(gomock.Any(), "ch", gomock.Any()).Return(redis.NewIntResult(1, nil)),
	)

	b := NewBroadcaster(zaptest.NewLogger(t))
	sink := NewRedisSink(client, "ch", zaptest.NewLogger(t))

	sub := b.Subscribe(4)
	b.Publish(metadataFor("1", models.StatusFresh))
	b.Publish(metadataFor("2", models.StatusFresh))
	b.Close()

	sink.Consume(context.Background(), sub)
}
