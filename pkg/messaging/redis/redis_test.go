package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*RedisBroker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisBrokerFromClient(client, zerolog.Nop()), mr
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "notifications.push")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "notifications.push", map[string]string{"title": "Hello"}))

	select {
	case raw := <-msgs:
		var got map[string]string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Hello", got["title"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestRedisBroker_SubscribeClosesOnCancel(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := broker.Subscribe(ctx, "notifications.push")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestRedisBroker_PublishRejectsUnmarshalable(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	err := broker.Publish(context.Background(), "x", make(chan int))
	assert.Error(t, err)
}

func TestNewRedisBroker_BadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "::not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRedisBroker_Ping(t *testing.T) {
	broker, mr := newTestBroker(t)
	defer broker.Close()

	require.NoError(t, broker.Ping(context.Background()))

	mr.Close()
	assert.Error(t, broker.Ping(context.Background()))
}
