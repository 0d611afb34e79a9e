package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/reqcontext"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type fakeDispatcher struct {
	err       error
	target    string
	payload   map[string]any
	requestID string
}

func (f *fakeDispatcher) Call(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	f.target, f.payload = target, payload
	f.requestID = reqcontext.MustFromContext(ctx).CorrelationID
	return nil, f.err
}

func delivery(body []byte) (amqp.Delivery, *ackRecorder) {
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: body}, ack
}

func invocationBody(t *testing.T) []byte {
	body, err := sonic.Marshal(models.NewInvocation("los-dev-get_loan_details", map[string]interface{}{"user_id": "u1"}, "req-9"))
	require.NoError(t, err)
	return body
}

func TestProcessAcksSuccess(t *testing.T) {
	d := &fakeDispatcher{}
	c := New("q", d, logger.New(zaptest.NewLogger(t)))

	msg, ack := delivery(invocationBody(t))
	c.processMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, "los-dev-get_loan_details", d.target)
	assert.Equal(t, "u1", d.payload["user_id"])
	assert.Equal(t, "req-9", d.requestID)
}

func TestProcessRequeuesFailure(t *testing.T) {
	c := New("q", &fakeDispatcher{err: errors.New("database is locked")}, logger.New(zaptest.NewLogger(t)))

	msg, ack := delivery(invocationBody(t))
	c.processMessage(context.Background(), msg)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
	assert.False(t, ack.acked)
}

func TestProcessDropsMalformed(t *testing.T) {
	for name, body := range map[string][]byte{
		"not json":  []byte("{"),
		"no target": []byte(`{"payload":{}}`),
	} {
		t.Run(name, func(t *testing.T) {
			d := &fakeDispatcher{}
			c := New("q", d, logger.New(zaptest.NewLogger(t)))

			msg, ack := delivery(body)
			c.processMessage(context.Background(), msg)

			assert.True(t, ack.nacked)
			assert.False(t, ack.requeue)
			assert.Empty(t, d.target)
		})
	}
}
