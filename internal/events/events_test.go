package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeNATS struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestPublishToRedisChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "training:activity")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewPublisher(client, "training:activity", nil, "")
	id := uint(9)
	require.NoError(t, publisher.Publish(ctx, Event{Action: "record.created", EntityType: "training_record", EntityID: &id, ActorID: 1, ActorRole: "admin"}))

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, "record.created", event.Action)
		require.Equal(t, uint(9), *event.EntityID)
		require.False(t, event.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("expected event on redis channel")
	}
}

func TestPublishToNATS(t *testing.T) {
	fake := &fakeNATS{}
	publisher := &broadcaster{nats: fake, natsSubject: "training.activity"}

	require.NoError(t, publisher.Publish(context.Background(), Event{Action: "course.created"}))
	require.Equal(t, "training.activity", fake.subject)
	require.Contains(t, string(fake.data), `"course.created"`)

	fake.err = errors.New("connection closed")
	require.ErrorContains(t, publisher.Publish(context.Background(), Event{Action: "course.updated"}), "publish to nats")
}

func TestPublisherWithoutTransportsIsNoop(t *testing.T) {
	require.NoError(t, NewPublisher(nil, "", nil, "").Publish(context.Background(), Event{Action: "x"}))
	require.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}

func TestConnectNATSRequiresURL(t *testing.T) {
	_, err := ConnectNATS("", "training-api")
	require.Error(t, err)
}
