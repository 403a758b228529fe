package nats

import (
	"context"
	"strconv"
	"time"

	"crypto-range-alert-bot/internal/types"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher forwards alert notifications to NATS as types.Event messages,
// one subject per subscriber.
type Publisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("crypto-range-alert-bot"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to nats")
	}
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *Publisher {
	return &Publisher{conn: c, subject: subject, now: time.Now}
}

// Subject returns the subject notifications for subscriberID are published on.
func (p *Publisher) Subject(subscriberID int64) string {
	return p.subject + "." + strconv.FormatInt(subscriberID, 10)
}

// Send implements alert.Sender.
func (p *Publisher) Send(ctx context.Context, subscriberID int64, n types.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(types.Event{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		Notification: n,
		CreatedAt:    p.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "encode notification event")
	}

	subject := p.Subject(subscriberID)
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.Wrapf(err, "publish to %s", subject)
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}
