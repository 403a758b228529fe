package alert

import (
	"context"
	"fmt"
	"strings"

	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
)

// ErrDeliveryFailed is matched by errors returned from a failed Send.
var ErrDeliveryFailed = errors.New("delivery failed")

// Sender delivers one notification to one subscriber. Delivery is best effort.
type Sender interface {
	Send(ctx context.Context, subscriberID int64, n types.Notification) error
}

type SenderFunc func(ctx context.Context, subscriberID int64, n types.Notification) error

func (f SenderFunc) Send(ctx context.Context, subscriberID int64, n types.Notification) error {
	return f(ctx, subscriberID, n)
}

// DeliveryError describes one notification that did not reach its subscriber.
type DeliveryError struct {
	SubscriberID int64
	Kind         types.NotificationKind
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%v: %s to %d: %v", ErrDeliveryFailed, e.Kind, e.SubscriberID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

// FanOut sends every notification through all senders, in order. A failing
// sender does not stop the others.
type FanOut []Sender

func (f FanOut) Send(ctx context.Context, subscriberID int64, n types.Notification) error {
	var failures []string
	for _, sender := range f {
		if sender == nil {
			continue
		}
		if err := sender.Send(ctx, subscriberID, n); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.New(strings.Join(failures, "; "))
	}
	return nil
}
