package producer

import (
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewChannelProducer(ch, "loan-invocations", logger.New(zaptest.NewLogger(t)))

	inv := models.NewInvocation("los-dev-get_loan_details", map[string]interface{}{"user_id": "u1"}, "req-1")
	require.NoError(t, p.Publish(context.Background(), inv))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "loan-invocations", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "req-1", msg.CorrelationId)

	var decoded models.Invocation
	require.NoError(t, sonic.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "los-dev-get_loan_details", decoded.Target)
	assert.Equal(t, "u1", decoded.Payload["user_id"])
}

func TestPublishErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel/connection is not open")}
	p := NewChannelProducer(ch, "q", logger.New(zaptest.NewLogger(t)))

	assert.ErrorIs(t, p.Publish(context.Background(), nil), ErrNilInvocation)
	assert.EqualError(t, p.Publish(context.Background(), models.NewInvocation("t", nil, "")), "channel/connection is not open")

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, ch.closed)
}
