package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"crypto-range-alert-bot/internal/types"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	registrySuffix      = "registry"
	subscriptionsSuffix = "subscriptions"
)

// Subscriptions is the typed accessor over a KeyValue. Each subscriber's set lives
// under its own key and the registry of known subscribers under one shared key.
type Subscriptions struct {
	kv     KeyValue
	prefix string

	// registry is one key shared by every subscriber
	registryMu sync.Mutex
}

func NewSubscriptions(kv KeyValue, prefix string) *Subscriptions {
	return &Subscriptions{kv: kv, prefix: prefix}
}

func (s *Subscriptions) key(parts ...string) string {
	key := s.prefix
	for _, part := range parts {
		if key != "" {
			key += ":"
		}
		key += part
	}
	return key
}

func (s *Subscriptions) subscriberKey(subscriberID int64) string {
	return s.key(subscriptionsSuffix, strconv.FormatInt(subscriberID, 10))
}

func (s *Subscriptions) registryKey() string {
	return s.key(registrySuffix)
}

// GetSubscriptions returns an empty set when the subscriber has no record.
func (s *Subscriptions) GetSubscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error) {
	key := s.subscriberKey(subscriberID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	set := types.SubscriptionSet{}
	if len(raw) == 0 {
		return set, nil
	}
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, errors.Wrapf(err, "could not decode subscriptions of %d", subscriberID)
	}
	return set, nil
}

// PutSubscriptions overwrites the subscriber's whole set. Last writer wins.
func (s *Subscriptions) PutSubscriptions(ctx context.Context, subscriberID int64, set types.SubscriptionSet) error {
	if set == nil {
		set = types.SubscriptionSet{}
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return errors.Wrapf(err, "could not encode subscriptions of %d", subscriberID)
	}
	return s.kv.Put(ctx, s.subscriberKey(subscriberID), raw)
}

// RegisterSubscriber adds the id to the registry; a no-op when already present.
func (s *Subscriptions) RegisterSubscriber(ctx context.Context, subscriberID int64) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()

	ids, err := s.loadRegistry(ctx)
	if err != nil {
		return err
	}
	if _, ok := ids[subscriberID]; ok {
		return nil
	}
	ids[subscriberID] = struct{}{}
	return s.storeRegistry(ctx, ids)
}

// UnregisterSubscriber removes the id from the registry; a no-op when absent.
func (s *Subscriptions) UnregisterSubscriber(ctx context.Context, subscriberID int64) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()

	ids, err := s.loadRegistry(ctx)
	if err != nil {
		return err
	}
	if _, ok := ids[subscriberID]; !ok {
		return nil
	}
	delete(ids, subscriberID)
	return s.storeRegistry(ctx, ids)
}

// ListRegisteredSubscribers returns the registry snapshot in ascending id order.
func (s *Subscriptions) ListRegisteredSubscribers(ctx context.Context) ([]int64, error) {
	ids, err := s.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return sortedIDs(ids), nil
}

func (s *Subscriptions) loadRegistry(ctx context.Context) (map[int64]struct{}, error) {
	raw, err := s.kv.Get(ctx, s.registryKey())
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{})
	if len(raw) == 0 {
		return ids, nil
	}

	var list []int64
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "could not decode subscriber registry")
	}
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *Subscriptions) storeRegistry(ctx context.Context, ids map[int64]struct{}) error {
	raw, err := json.Marshal(sortedIDs(ids))
	if err != nil {
		return errors.Wrap(err, "could not encode subscriber registry")
	}
	return s.kv.Put(ctx, s.registryKey(), raw)
}

func sortedIDs(ids map[int64]struct{}) []int64 {
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
