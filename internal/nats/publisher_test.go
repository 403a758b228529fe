package nats

import (
	"context"
	"testing"
	"time"

	"crypto-range-alert-bot/internal/types"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []published
	err      error
	closed   bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func TestPublisher_Send(t *testing.T) {
	conn := &fakeConn{}
	p := newPublisher(conn, "rangealert.notifications")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	n := types.Detail(types.Subscription{Symbol: "BTC", Minimum: 10000, Maximum: 20000}, 15000)
	require.NoError(t, p.Send(context.Background(), 42, n))

	require.Len(t, conn.messages, 1)
	require.Equal(t, "rangealert.notifications.42", conn.messages[0].subject)

	var event types.Event
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &event))
	require.NotEmpty(t, event.ID)
	require.Equal(t, int64(42), event.SubscriberID)
	require.Equal(t, n, event.Notification)
	require.True(t, at.Equal(event.CreatedAt))
}

func TestPublisher_SendErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := newPublisher(conn, "alerts")

	err := p.Send(context.Background(), 1, types.Summary())
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish to alerts.1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn.err = nil
	require.ErrorIs(t, p.Send(ctx, 1, types.Summary()), context.Canceled)
	require.Empty(t, conn.messages)

	p.Close()
	require.True(t, conn.closed)
}
