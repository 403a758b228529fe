package alert

import (
	"context"
	"sync"

	"crypto-range-alert-bot/internal/store"
	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
)

type fakeOracle struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  map[string]int
}

func newFakeOracle(prices map[string]float64) *fakeOracle {
	return &fakeOracle{prices: prices, calls: make(map[string]int)}
}

func (o *fakeOracle) GetPrice(ctx context.Context, symbol string) (float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[symbol]++
	price, ok := o.prices[symbol]
	return price, ok
}

func (o *fakeOracle) set(symbol string, price float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[symbol] = price
}

func (o *fakeOracle) totalCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, n := range o.calls {
		total += n
	}
	return total
}

func (o *fakeOracle) resetCalls() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = make(map[string]int)
}

type delivery struct {
	SubscriberID int64
	Notification types.Notification
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []delivery
	failFor map[int64]bool
	notify  chan delivery
}

func (s *recordingSender) Send(ctx context.Context, subscriberID int64, n types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[subscriberID] {
		return errors.New("chat not found")
	}
	d := delivery{SubscriberID: subscriberID, Notification: n}
	s.sent = append(s.sent, d)
	if s.notify != nil {
		select {
		case s.notify <- d:
		default:
		}
	}
	return nil
}

func (s *recordingSender) deliveries() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.sent...)
}

func (s *recordingSender) to(subscriberID int64) []types.Notification {
	var out []types.Notification
	for _, d := range s.deliveries() {
		if d.SubscriberID == subscriberID {
			out = append(out, d.Notification)
		}
	}
	return out
}

// flakyStore fails reads for selected subscribers on top of a working store.
type flakyStore struct {
	*store.Subscriptions
	failGet  map[int64]bool
	failList bool
	panicFor map[int64]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		Subscriptions: store.NewSubscriptions(store.NewMemory(), "test"),
		failGet:       make(map[int64]bool),
		panicFor:      make(map[int64]bool),
	}
}

func (f *flakyStore) GetSubscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error) {
	if f.panicFor[subscriberID] {
		panic("corrupted record")
	}
	if f.failGet[subscriberID] {
		return nil, store.Unavailable("get", "test:subscriptions", errors.New("connection reset"))
	}
	return f.Subscriptions.GetSubscriptions(ctx, subscriberID)
}

func (f *flakyStore) ListRegisteredSubscribers(ctx context.Context) ([]int64, error) {
	if f.failList {
		return nil, store.Unavailable("get", "test:registry", errors.New("connection reset"))
	}
	return f.Subscriptions.ListRegisteredSubscribers(ctx)
}
