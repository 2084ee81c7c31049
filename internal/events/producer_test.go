package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), TopicUserEvents, "user-1", UserEvent{
		Type: UserLoggedIn, UserID: "user-1", Username: "alex", At: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicUserEvents, msg.Topic)
	assert.Equal(t, []byte("user-1"), msg.Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, UserLoggedIn, body["type"])
	assert.Equal(t, "alex", body["username"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	t.Parallel()

	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), TopicPostEvents, "k", PostEvent{Type: PostCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post_events")
}

func TestKafkaPublisher_MarshalError(t *testing.T) {
	t.Parallel()

	p := &KafkaPublisher{writer: &fakeWriter{}}
	err := p.Publish(context.Background(), TopicPostEvents, "k", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	require.NoError(t, r.Publish(context.Background(), TopicUserEvents, "1", UserEvent{Type: UserLoggedIn}))
	require.NoError(t, r.Publish(context.Background(), TopicPostEvents, "2", PostEvent{Type: PostDeleted}))
	assert.Equal(t, []string{UserLoggedIn, PostDeleted}, r.Types())
	assert.Len(t, r.Events(), 2)
}
