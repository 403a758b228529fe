package types

import "time"

// Subscription is a price range alert for one symbol owned by one subscriber.
type Subscription struct {
	Symbol  string  `json:"symbol"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// SubscriptionSet holds at most one Subscription per symbol and keeps insertion order.
type SubscriptionSet []Subscription

// Get returns the subscription for symbol.
func (s SubscriptionSet) Get(symbol string) (Subscription, bool) {
	for _, sub := range s {
		if sub.Symbol == symbol {
			return sub, true
		}
	}
	return Subscription{}, false
}

// Put inserts sub, or replaces the bounds of an existing entry in place.
func (s *SubscriptionSet) Put(sub Subscription) {
	for i := range *s {
		if (*s)[i].Symbol == sub.Symbol {
			(*s)[i] = sub
			return
		}
	}
	*s = append(*s, sub)
}

// Remove deletes the entry for symbol and reports whether it was present.
func (s *SubscriptionSet) Remove(symbol string) bool {
	for i := range *s {
		if (*s)[i].Symbol == symbol {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func (s SubscriptionSet) Symbols() []string {
	symbols := make([]string, 0, len(s))
	for _, sub := range s {
		symbols = append(symbols, sub.Symbol)
	}
	return symbols
}

type NotificationKind string

const (
	NotificationSummary NotificationKind = "summary"
	NotificationDetail  NotificationKind = "detail"
)

// Notification is a delivery payload. Summary carries no fields; Detail carries
// the matched symbol, its range and the price that matched.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Symbol  string           `json:"symbol,omitempty"`
	Minimum float64          `json:"minimum,omitempty"`
	Maximum float64          `json:"maximum,omitempty"`
	Price   float64          `json:"price,omitempty"`
}

func Summary() Notification {
	return Notification{Kind: NotificationSummary}
}

func Detail(sub Subscription, price float64) Notification {
	return Notification{
		Kind:    NotificationDetail,
		Symbol:  sub.Symbol,
		Minimum: sub.Minimum,
		Maximum: sub.Maximum,
		Price:   price,
	}
}

// Event is the wire form of a Notification published to message brokers.
type Event struct {
	ID           string       `json:"id"`
	SubscriberID int64        `json:"subscriber_id"`
	Notification Notification `json:"notification"`
	CreatedAt    time.Time    `json:"created_at"`
}
