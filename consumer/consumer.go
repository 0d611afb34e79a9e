package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/reqcontext"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const transportEvent = "event"

var ErrFailedUnmarshal = errors.New("failed to unmarshal message")

// Dispatcher runs the function registered under target.
type Dispatcher interface {
	Call(ctx context.Context, target string, payload map[string]any) (map[string]any, error)
}

type Consumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	logger     *logger.Logger
	qname      string
	dispatcher Dispatcher
}

func NewConsumer(conn *amqp.Connection, queue string, dispatcher Dispatcher, logger *logger.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	if logger == nil {
		return nil, apperrors.ErrNilLogger
	}

	channel, err := conn.Channel()
	if err != nil {
		logger.Error("failed to get channel", zap.Error(err))
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		logger.Error("failed to declare queue",
			zap.String("queue_name", queue),
			zap.Error(err))
		channel.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	// one unacked invocation at a time
	err = channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		logger.Error("failed to set QoS", zap.Error(err))
		channel.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger.Info("consumer initialized successfully", zap.String("queue_name", q.Name))

	c := New(q.Name, dispatcher, logger)
	c.conn = conn
	c.channel = channel

	return c, nil
}

// New returns a consumer without a broker connection; Run needs one.
func New(queue string, dispatcher Dispatcher, logger *logger.Logger) *Consumer {
	return &Consumer{
		qname:      queue,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (c *Consumer) Close(_ context.Context) error {
	c.logger.Info("closing consumer...")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}

	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Run consumes until ctx ends or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("starting consumer", zap.String("queue_name", c.qname))

	msgs, err := c.channel.Consume(
		c.qname,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		c.logger.Error("failed to start consuming",
			zap.String("queue_name", c.qname),
			zap.Error(err))
		return err
	}

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn("message channel closed")
				return nil
			}
			c.processMessage(ctx, d)

		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return nil
		}
	}
}

// processMessage runs one invocation. Malformed messages are dropped and
// failed ones requeued.
func (c *Consumer) processMessage(ctx context.Context, delivery amqp.Delivery) {
	startTime := time.Now()

	var inv models.Invocation
	if err := sonic.Unmarshal(delivery.Body, &inv); err != nil || inv.Target == "" {
		if err == nil {
			err = apperrors.ErrEmptyTarget
		}

		c.logger.Error("failed to decode invocation",
			zap.Uint64("delivery_tag", delivery.DeliveryTag),
			zap.ByteString("body", delivery.Body),
			zap.Error(fmt.Errorf("%w: %v", ErrFailedUnmarshal, err)))

		metrics.TrackConsumerOperation("decode", "error")

		if err := delivery.Nack(false, false); err != nil {
			c.logger.Error("failed to nack malformed message", zap.Error(err))
		}
		return
	}

	rc := reqcontext.NewRequestContextWithCorrelationID(transportEvent, inv.RequestID)
	ctx = reqcontext.WithRequestContext(ctx, rc)
	log := rc.ContextLogger(c.logger)

	out, err := c.dispatcher.Call(ctx, inv.Target, inv.Payload)
	metrics.TrackFunction(inv.Target, transportEvent, err)

	if err != nil {
		log.Error("invocation failed",
			zap.Uint64("delivery_tag", delivery.DeliveryTag),
			zap.String("target", inv.Target),
			zap.Error(err))

		metrics.TrackConsumerOperation("invoke", "error")

		if err := delivery.Nack(false, true); err != nil {
			log.Error("failed to nack failed message", zap.Error(err))
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		log.Error("failed to ack processed message",
			zap.Uint64("delivery_tag", delivery.DeliveryTag),
			zap.Error(err))
		return
	}

	metrics.TrackConsumerOperation("invoke", "ok")

	log.Info("invocation processed",
		zap.String("target", inv.Target),
		zap.Bool("has_result", out != nil),
		zap.Duration("processing_time", time.Since(startTime)))
}
