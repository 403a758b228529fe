package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-range-alert-bot/internal/matcher"
	"crypto-range-alert-bot/internal/metrics"
	"crypto-range-alert-bot/internal/price"
	"crypto-range-alert-bot/internal/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSweepInterval = 60 * time.Second
	DefaultCallTimeout   = 10 * time.Second
)

var ErrAlreadyRunning = errors.New("scheduler is already running")

type State int

const (
	Idle State = iota
	Running
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// SubscriptionReader is the read side of SubscriptionStore used by sweeps.
type SubscriptionReader interface {
	GetSubscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error)
	ListRegisteredSubscribers(ctx context.Context) ([]int64, error)
}

type SchedulerConfig struct {
	Interval    time.Duration
	CallTimeout time.Duration
}

// Report summarizes one sweep.
type Report struct {
	ID               string
	Subscribers      int
	Skipped          int
	OracleFailures   int
	Matches          int
	Sent             int
	DeliveryFailures int
	Errors           []error
	Duration         time.Duration
}

// Scheduler runs a sweep, waits for the interval and repeats until stopped.
// A stop request never interrupts a sweep in progress.
type Scheduler struct {
	store       SubscriptionReader
	oracle      price.Oracle
	sender      Sender
	metrics     *metrics.Metrics
	interval    time.Duration
	callTimeout time.Duration

	// sweepMu ensures only one sweep runs at a time
	sweepMu sync.Mutex

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(store SubscriptionReader, oracle price.Oracle, sender Sender, m *metrics.Metrics, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Scheduler{
		store:       store,
		oracle:      oracle,
		sender:      sender,
		metrics:     m,
		interval:    cfg.Interval,
		callTimeout: cfg.CallTimeout,
		state:       Idle,
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the sweep loop. It can be called again once the loop is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = Running

	go s.run(loopCtx, done)
	log.Infof("Alert scheduler started, sweeping every %s", s.interval)
	return nil
}

// Stop requests cancellation and waits for the current sweep to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
		log.Info("Alert scheduler stopped.")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "alert scheduler did not stop in time")
	}
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.state = Cancelled
		s.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		// detached so that cancellation lets the sweep complete
		s.Sweep(context.WithoutCancel(ctx))

		timer.Reset(s.interval)
	}
}

// Sweep evaluates every registered subscriber once. Failures are isolated per
// subscriber and per symbol and only reported.
func (s *Scheduler) Sweep(ctx context.Context) (report Report) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	started := time.Now()
	report = Report{ID: uuid.NewString()}
	logger := log.WithField("sweep_id", report.ID)
	logger.Debug("Checking alerts...")

	defer func() {
		report.Duration = time.Since(started)
		s.metrics.SweepsCompleted.Inc()
		s.metrics.SweepDuration.Observe(report.Duration.Seconds())
		logger.WithFields(log.Fields{
			"subscribers":       report.Subscribers,
			"skipped":           report.Skipped,
			"oracle_failures":   report.OracleFailures,
			"matches":           report.Matches,
			"sent":              report.Sent,
			"delivery_failures": report.DeliveryFailures,
			"duration":          report.Duration,
		}).Info("Alert sweep completed")
	}()

	listCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	ids, err := s.store.ListRegisteredSubscribers(listCtx)
	cancel()
	if err != nil {
		logger.Errorf("Failed to read subscriber registry: %v", err)
		s.metrics.StoreFailures.Inc()
		report.Errors = append(report.Errors, err)
		return report
	}

	s.metrics.RegisteredSubscribers.Set(float64(len(ids)))
	report.Subscribers = len(ids)

	prices := newPriceMemo(s.oracle, s.callTimeout)
	for _, id := range ids {
		s.sweepSubscriber(ctx, logger.WithField("subscriber_id", id), id, prices, &report)
	}
	return report
}

func (s *Scheduler) sweepSubscriber(ctx context.Context, logger *log.Entry, subscriberID int64, prices *priceMemo, report *Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic recovered while checking subscriber: %v", r)
			report.Skipped++
			report.Errors = append(report.Errors, errors.Errorf("panic: %v", r))
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	set, err := s.store.GetSubscriptions(loadCtx, subscriberID)
	cancel()
	if err != nil {
		logger.Errorf("Failed to load subscriptions: %v", err)
		s.metrics.StoreFailures.Inc()
		report.Skipped++
		report.Errors = append(report.Errors, err)
		return
	}
	if len(set) == 0 {
		return
	}

	var matched []types.Notification
	for _, sub := range set {
		current, ok := prices.get(ctx, sub.Symbol)
		if !ok {
			logger.WithField("symbol", sub.Symbol).Warn("No price data found, skipping symbol")
			s.metrics.OracleFailures.Inc()
			report.OracleFailures++
			continue
		}

		logger.Debugf("Checking %s: range %v - %v, current %v", sub.Symbol, sub.Minimum, sub.Maximum, current)
		if matcher.Matches(current, sub) {
			matched = append(matched, types.Detail(sub, current))
		}
	}
	if len(matched) == 0 {
		return
	}
	report.Matches += len(matched)

	batch := append([]types.Notification{types.Summary()}, matched...)
	for _, n := range batch {
		sendCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err := s.sender.Send(sendCtx, subscriberID, n)
		cancel()
		if err != nil {
			derr := &DeliveryError{SubscriberID: subscriberID, Kind: n.Kind, Err: err}
			logger.Errorf("Failed to send alert notification: %v", derr)
			s.metrics.DeliveryFailures.Inc()
			report.DeliveryFailures++
			report.Errors = append(report.Errors, derr)
			continue
		}
		s.metrics.NotificationsSent.Inc()
		report.Sent++
	}
}

type priceResult struct {
	price float64
	ok    bool
}

// priceMemo looks each symbol up at most once per sweep.
type priceMemo struct {
	oracle  price.Oracle
	timeout time.Duration
	results map[string]priceResult
}

func newPriceMemo(oracle price.Oracle, timeout time.Duration) *priceMemo {
	return &priceMemo{
		oracle:  oracle,
		timeout: timeout,
		results: make(map[string]priceResult),
	}
}

func (m *priceMemo) get(ctx context.Context, symbol string) (float64, bool) {
	symbol = matcher.NormalizeSymbol(symbol)
	if result, ok := m.results[symbol]; ok {
		return result.price, result.ok
	}

	lookupCtx, cancel := context.WithTimeout(ctx, m.timeout)
	current, ok := m.oracle.GetPrice(lookupCtx, symbol)
	cancel()

	m.results[symbol] = priceResult{price: current, ok: ok}
	return current, ok
}
