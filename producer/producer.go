package producer

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrNilInvocation = errors.New("nil invocation")

// Channel is the part of *amqp.Channel the producer publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Producer struct {
	conn    *amqp.Connection
	channel Channel
	logger  *logger.Logger
	qname   string
}

// NewProducer opens a channel on conn and declares a durable queue.
func NewProducer(conn *amqp.Connection, queue string, logger *logger.Logger) (*Producer, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error("failed get channel", zap.Error(err))

		return nil, err
	}

	q, err := channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed declare queue",
			zap.String("name", queue),
			zap.Error(err))

		channel.Close()

		return nil, err
	}

	p := NewChannelProducer(channel, q.Name, logger)
	p.conn = conn

	return p, nil
}

func NewChannelProducer(channel Channel, queue string, logger *logger.Logger) *Producer {
	return &Producer{
		channel: channel,
		qname:   queue,
		logger:  logger,
	}
}

func (p *Producer) Close(ctx context.Context) error {
	p.logger.Info("stopping producer...")

	if err := p.channel.Close(); err != nil {
		return err
	}

	if p.conn == nil {
		return nil
	}

	return p.conn.Close()
}

func (p *Producer) Publish(ctx context.Context, inv *models.Invocation) error {
	if inv == nil {
		return ErrNilInvocation
	}

	body, err := sonic.Marshal(inv)
	if err != nil {
		p.logger.Error("failed marshal invocation",
			zap.String("target", inv.Target),
			zap.Error(err))

		metrics.TrackProducerOperation("marshal", "error")

		return err
	}

	err = p.channel.PublishWithContext(ctx,
		"",
		p.qname,
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: inv.RequestID,
			Type:          inv.Target,
			Timestamp:     inv.Timestamp,
			Body:          body,
		},
	)
	if err != nil {
		p.logger.Error("failed publish",
			zap.String("target", inv.Target),
			zap.Error(err))

		metrics.TrackProducerOperation("publish", "error")

		return err
	}

	metrics.TrackProducerOperation("publish", "ok")

	return nil
}
