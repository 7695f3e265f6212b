package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTopic struct {
	msgs []*gcppubsub.Message
	err  error
}

func (f *fakeTopic) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.msgs = append(f.msgs, msg)
	return fakeResult{err: f.err}
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id-1", nil
}

func sampleEvent() TriggeredEvent {
	return TriggeredEvent{
		AlertID:     uuid.New(),
		UserID:      "demo-user",
		ProductName: "Coffee",
		TargetPrice: decimal.RequireFromString("7.00"),
		StoreID:     uuid.New(),
		Price:       decimal.RequireFromString("6.99"),
		EmailAlert:  true,
		TriggeredAt: time.Date(2026, 10, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestPubSubPublisherSendsEnvelope(t *testing.T) {
	topic := &fakeTopic{}
	pub := &PubSubPublisher{topic: topic, timeout: time.Second}
	event := sampleEvent()

	require.NoError(t, pub.PublishTriggered(context.Background(), event))
	require.Len(t, topic.msgs, 1)
	msg := topic.msgs[0]
	assert.Equal(t, EventTypeTriggered, msg.Attributes["event_type"])
	assert.Equal(t, event.AlertID.String(), msg.Attributes["alert_id"])
	assert.Equal(t, "true", msg.Attributes["email_alert"])

	var env envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, eventVersion, env.Version)
	assert.Equal(t, msg.Attributes["event_id"], env.EventID)

	var data TriggeredEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, event.AlertID, data.AlertID)
	assert.True(t, data.Price.Equal(event.Price))
}

func TestPubSubPublisherSurfacesPublishErrors(t *testing.T) {
	pub := &PubSubPublisher{topic: &fakeTopic{err: errors.New("deadline exceeded")}, timeout: time.Second}
	assert.Error(t, pub.PublishTriggered(context.Background(), sampleEvent()))

	_, err := NewPubSubPublisher(nil)
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{Logger: testLogger()}.PublishTriggered(context.Background(), sampleEvent()))
	assert.Error(t, LogPublisher{}.PublishTriggered(context.Background(), sampleEvent()))
}
