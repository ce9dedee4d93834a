package mq

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStreamPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	producer := NewRedisProducer(rdb)
	require.NoError(t, producer.Publish(ctx, "proposal_events_created", "7", []byte(`{"proposal_id":7}`)))

	consumer := NewRedisConsumer(rdb, "notify-worker", "worker-1")
	consumer.block = 100 * time.Millisecond

	received := make(chan *Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- consumer.Subscribe(ctx, "proposal_events_created", func(msg *Message) error {
			received <- msg
			cancel()
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, "7", msg.Key)
		assert.JSONEq(t, `{"proposal_id":7}`, string(msg.Payload))
	case <-time.After(4 * time.Second):
		t.Fatal("未收到消息")
	}
	assert.NoError(t, <-done)
	assert.NoError(t, consumer.Close())
}
