package alert

import (
	"context"
	"time"

	"crypto-range-alert-bot/internal/matcher"
	"crypto-range-alert-bot/internal/price"
	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrUnknownSymbol is returned by Subscribe when the oracle has no price for the symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// SubscriptionStore is the persistence contract shared by the controller and the scheduler.
type SubscriptionStore interface {
	GetSubscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error)
	PutSubscriptions(ctx context.Context, subscriberID int64, set types.SubscriptionSet) error
	RegisterSubscriber(ctx context.Context, subscriberID int64) error
	UnregisterSubscriber(ctx context.Context, subscriberID int64) error
	ListRegisteredSubscribers(ctx context.Context) ([]int64, error)
}

// Controller applies subscriber commands to the store.
type Controller struct {
	store         SubscriptionStore
	oracle        price.Oracle
	pruneRegistry bool
	lookupTimeout time.Duration
}

type ControllerOption func(*Controller)

// WithRegistryPruning drops a subscriber from the registry once mute leaves its set empty.
func WithRegistryPruning(prune bool) ControllerOption {
	return func(c *Controller) { c.pruneRegistry = prune }
}

// WithLookupTimeout bounds the oracle call made by Subscribe.
func WithLookupTimeout(timeout time.Duration) ControllerOption {
	return func(c *Controller) { c.lookupTimeout = timeout }
}

func NewController(store SubscriptionStore, oracle price.Oracle, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:         store,
		oracle:        oracle,
		lookupTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe creates or replaces the subscriber's alert for symbol. Nothing is
// written when the symbol is unknown or the bounds are invalid.
func (c *Controller) Subscribe(ctx context.Context, subscriberID int64, symbol string, minimum, maximum float64) (types.Subscription, error) {
	symbol = matcher.NormalizeSymbol(symbol)
	if symbol == "" || symbol == matcher.AllSymbols {
		return types.Subscription{}, errors.Wrapf(ErrUnknownSymbol, "currency %q", symbol)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	_, ok := c.oracle.GetPrice(lookupCtx, symbol)
	cancel()
	if !ok {
		return types.Subscription{}, errors.Wrapf(ErrUnknownSymbol, "currency %s", symbol)
	}

	if err := matcher.CheckBounds(minimum, maximum); err != nil {
		return types.Subscription{}, err
	}

	if err := c.store.RegisterSubscriber(ctx, subscriberID); err != nil {
		return types.Subscription{}, errors.Wrap(err, "could not register subscriber")
	}

	set, err := c.store.GetSubscriptions(ctx, subscriberID)
	if err != nil {
		return types.Subscription{}, errors.Wrap(err, "could not load subscriptions")
	}

	sub := types.Subscription{Symbol: symbol, Minimum: minimum, Maximum: maximum}
	set.Put(sub)

	if err := c.store.PutSubscriptions(ctx, subscriberID, set); err != nil {
		return types.Subscription{}, errors.Wrap(err, "could not save subscriptions")
	}

	log.WithFields(log.Fields{
		"subscriber_id": subscriberID,
		"symbol":        symbol,
		"minimum":       minimum,
		"maximum":       maximum,
	}).Info("Subscription saved")
	return sub, nil
}

// Mute removes one symbol, or every symbol when given ALL. Muting a symbol
// that is not subscribed is a no-op.
func (c *Controller) Mute(ctx context.Context, subscriberID int64, symbolOrAll string) error {
	symbol := matcher.NormalizeSymbol(symbolOrAll)

	var set types.SubscriptionSet
	if symbol == matcher.AllSymbols {
		set = types.SubscriptionSet{}
		if err := c.store.PutSubscriptions(ctx, subscriberID, set); err != nil {
			return errors.Wrap(err, "could not clear subscriptions")
		}
	} else {
		var err error
		set, err = c.store.GetSubscriptions(ctx, subscriberID)
		if err != nil {
			return errors.Wrap(err, "could not load subscriptions")
		}
		if !set.Remove(symbol) {
			return nil
		}
		if err := c.store.PutSubscriptions(ctx, subscriberID, set); err != nil {
			return errors.Wrap(err, "could not save subscriptions")
		}
	}

	log.WithFields(log.Fields{
		"subscriber_id": subscriberID,
		"symbol":        symbol,
		"remaining":     len(set),
	}).Info("Subscription muted")

	if c.pruneRegistry && len(set) == 0 {
		return c.pruneSubscriber(ctx, subscriberID)
	}
	return nil
}

// pruneSubscriber drops an emptied subscriber from the registry. A Subscribe that
// wrote in between is put back, so a non-empty set never stays unregistered.
func (c *Controller) pruneSubscriber(ctx context.Context, subscriberID int64) error {
	if err := c.store.UnregisterSubscriber(ctx, subscriberID); err != nil {
		return errors.Wrap(err, "could not unregister subscriber")
	}

	set, err := c.store.GetSubscriptions(ctx, subscriberID)
	if err != nil {
		return errors.Wrap(err, "could not reload subscriptions")
	}
	if len(set) == 0 {
		return nil
	}
	if err := c.store.RegisterSubscriber(ctx, subscriberID); err != nil {
		return errors.Wrap(err, "could not re-register subscriber")
	}
	return nil
}

// Subscriptions returns the subscriber's current set in set order.
func (c *Controller) Subscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error) {
	set, err := c.store.GetSubscriptions(ctx, subscriberID)
	if err != nil {
		return nil, errors.Wrap(err, "could not load subscriptions")
	}
	return set, nil
}
