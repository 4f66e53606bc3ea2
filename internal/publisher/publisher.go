package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/metrics"
	"github.com/Checker-Finance/trade-enrichment/pkg/model"
)

const publishTimeout = 2 * time.Second

// jetStream is the subset of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher emits catalog change events to NATS JetStream.
type Publisher struct {
	js      jetStream
	subject string
	service string
	logger  *zap.Logger
}

// New creates a Publisher on nc, ensuring a stream named stream captures subject.
func New(nc *nats.Conn, subject, stream, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if _, err := js.StreamInfo(stream); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     stream,
			Subjects: []string{subject},
		}); err != nil {
			return nil, err
		}
	}
	return newPublisher(js, subject, service, logger), nil
}

func newPublisher(js jetStream, subject, service string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{js: js, subject: subject, service: service, logger: logger}
}

// PublishEnvelope serializes and publishes an event envelope.
func (p *Publisher) PublishEnvelope(ctx context.Context, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	metrics.ObserveDuration(metrics.NATSMessageLatency.WithLabelValues(p.subject), start)

	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", p.subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncNATSMessage(p.subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", p.subject),
		zap.String("event_type", env.EventType))
	metrics.IncNATSMessage(p.subject, "ok")
	return nil
}

// ProductChanged implements catalog.Notifier. Failures are logged and never reach the caller.
func (p *Publisher) ProductChanged(change model.ProductChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		metrics.IncError("publisher", "marshal_failed")
		p.logger.Error("publisher.marshal_failed", zap.Error(err))
		return
	}

	env := &model.Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		Topic:         p.subject,
		EventType:     change.EventType(),
		Version:       "1.0.0",
		Source:        p.service,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = p.PublishEnvelope(ctx, env)
}
