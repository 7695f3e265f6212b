package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// EventTypeTriggered is the event_type attribute on published alert messages.
	EventTypeTriggered = "alert.triggered"

	eventVersion          = 1
	defaultPublishTimeout = 15 * time.Second
)

// TriggeredEvent is the payload handed to the delivery service.
type TriggeredEvent struct {
	AlertID     uuid.UUID       `json:"alert_id"`
	UserID      string          `json:"user_id"`
	ProductName string          `json:"product_name"`
	TargetPrice decimal.Decimal `json:"target_price"`
	StoreID     uuid.UUID       `json:"store_id"`
	Price       decimal.Decimal `json:"price"`
	IsOnSale    bool            `json:"is_on_sale"`
	EmailAlert  bool            `json:"email_alert"`
	PushAlert   bool            `json:"push_alert"`
	TriggeredAt time.Time       `json:"triggered_at"`
}

// Publisher delivers triggered alert events.
type Publisher interface {
	PublishTriggered(ctx context.Context, event TriggeredEvent) error
}

type envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher sends alert events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   topicPublisher
	timeout time.Duration
}

// NewPubSubPublisher wraps a topic publisher from pkg/pubsub.
func NewPubSubPublisher(p *gcppubsub.Publisher) (*PubSubPublisher, error) {
	if p == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubPublisher{topic: &gcpPublisher{Publisher: p}, timeout: defaultPublishTimeout}, nil
}

func (p *PubSubPublisher) PublishTriggered(ctx context.Context, event TriggeredEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}
	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish alert %s: %w", event.AlertID, err)
	}
	return nil
}

func buildMessage(event TriggeredEvent) (*gcppubsub.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal alert event: %w", err)
	}
	eventID := uuid.NewString()
	payload, err := json.Marshal(envelope{
		Version:    eventVersion,
		EventID:    eventID,
		OccurredAt: event.TriggeredAt,
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal alert envelope: %w", err)
	}
	return &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":    eventID,
			"event_type":  EventTypeTriggered,
			"alert_id":    event.AlertID.String(),
			"user_id":     event.UserID,
			"occurred_at": event.TriggeredAt.Format(time.RFC3339Nano),
			"email_alert": fmt.Sprintf("%t", event.EmailAlert),
			"push_alert":  fmt.Sprintf("%t", event.PushAlert),
		},
	}, nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

// LogPublisher records triggered alerts in the log when no topic is configured.
type LogPublisher struct {
	Logger *logger.Logger
}

func (p LogPublisher) PublishTriggered(ctx context.Context, event TriggeredEvent) error {
	if p.Logger == nil {
		return errors.New("logger required")
	}
	p.Logger.Info(p.Logger.WithFields(ctx, map[string]any{
		"alert_id":     event.AlertID.String(),
		"user_id":      event.UserID,
		"product_name": event.ProductName,
		"store_id":     event.StoreID.String(),
		"price":        event.Price.String(),
		"target_price": event.TargetPrice.String(),
	}), "price alert triggered")
	return nil
}
