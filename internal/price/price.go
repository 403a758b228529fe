package price

import (
	"context"
	"strings"
	"sync"
	"time"

	"crypto-range-alert-bot/lib/helpers"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	log "github.com/sirupsen/logrus"
)

// Oracle returns the current USD price of a symbol. A missing symbol and a
// failed lookup both report false.
type Oracle interface {
	GetPrice(ctx context.Context, symbol string) (float64, bool)
}

// Directory resolves coin names and symbols for the command front end.
type Directory interface {
	Oracle
	Name(ctx context.Context, symbol string) (string, bool)
	Symbol(ctx context.Context, name string) (string, bool)
}

// PriceInfo represents the pricing details of a cryptocurrency
type PriceInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	PriceUSD float64 `json:"price_usd"`
}

// Paprika serves prices from a ticker snapshot refreshed in the background and
// falls back to a direct CoinPaprika lookup for symbols missing from it.
type Paprika struct {
	source          source
	refreshInterval time.Duration

	mu          sync.RWMutex
	bySymbol    map[string]PriceInfo
	byName      map[string]PriceInfo
	refreshedAt time.Time
}

func NewPaprika(apiProKey string, refreshInterval time.Duration) *Paprika {
	return newPaprika(newPaprikaSource(apiProKey), refreshInterval)
}

func newPaprika(src source, refreshInterval time.Duration) *Paprika {
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}
	return &Paprika{
		source:          src,
		refreshInterval: refreshInterval,
		bySymbol:        make(map[string]PriceInfo),
		byName:          make(map[string]PriceInfo),
	}
}

// Refresh replaces the snapshot with the current ticker list. The first ticker
// for a symbol wins; the API lists tickers by rank.
func (p *Paprika) Refresh() error {
	tickers, err := p.source.Tickers()
	if err != nil {
		return err
	}

	bySymbol := make(map[string]PriceInfo, len(tickers))
	byName := make(map[string]PriceInfo, len(tickers))
	for _, ticker := range tickers {
		info, ok := toPriceInfo(ticker)
		if !ok {
			continue
		}
		if _, exists := bySymbol[info.Symbol]; !exists {
			bySymbol[info.Symbol] = info
		}
		for _, key := range []string{strings.ToLower(info.Name), strings.ToLower(info.ID)} {
			if _, exists := byName[key]; !exists {
				byName[key] = info
			}
		}
	}

	p.mu.Lock()
	p.bySymbol = bySymbol
	p.byName = byName
	p.refreshedAt = time.Now()
	p.mu.Unlock()

	log.Debugf("Cryptocurrency prices updated: %d symbols", len(bySymbol))
	return nil
}

// StartUpdater refreshes the snapshot every refresh interval until ctx is done.
func (p *Paprika) StartUpdater(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.refreshInterval)
		defer ticker.Stop()

		for {
			p.safeRefresh()

			select {
			case <-ctx.Done():
				log.Info("Price updater stopped.")
				return
			case <-ticker.C:
			}
		}
	}()
	log.Info("Price updater started.")
}

func (p *Paprika) safeRefresh() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic recovered in price fetcher: %v", r)
		}
	}()

	if err := p.Refresh(); err != nil {
		log.Errorf("Failed to fetch cryptocurrency prices: %v", err)
	}
}

func (p *Paprika) cached(symbol string) (PriceInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.refreshedAt.IsZero() || time.Since(p.refreshedAt) > 3*p.refreshInterval {
		return PriceInfo{}, false
	}
	info, ok := p.bySymbol[symbol]
	return info, ok
}

// Lookup returns price details for symbol, from the snapshot when it is fresh.
func (p *Paprika) Lookup(ctx context.Context, symbol string) (PriceInfo, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || ctx.Err() != nil {
		return PriceInfo{}, false
	}

	if info, ok := p.cached(symbol); ok {
		return info, true
	}

	coins, err := helpers.CallWithContext(ctx, func() ([]*coinpaprika.Coin, error) {
		return p.source.Search(symbol, true)
	})
	if err != nil {
		log.Debugf("Symbol search failed for %s: %v", symbol, err)
		return PriceInfo{}, false
	}
	for _, coin := range coins {
		if coin == nil || coin.ID == nil || coin.Symbol == nil || !strings.EqualFold(*coin.Symbol, symbol) {
			continue
		}
		id := *coin.ID
		ticker, err := helpers.CallWithContext(ctx, func() (*coinpaprika.Ticker, error) {
			return p.source.Ticker(id)
		})
		if err != nil {
			log.Debugf("Ticker lookup failed for %s: %v", *coin.ID, err)
			return PriceInfo{}, false
		}
		return toPriceInfo(ticker)
	}
	return PriceInfo{}, false
}

func (p *Paprika) GetPrice(ctx context.Context, symbol string) (float64, bool) {
	info, ok := p.Lookup(ctx, symbol)
	if !ok {
		return 0, false
	}
	return info.PriceUSD, true
}

func (p *Paprika) Name(ctx context.Context, symbol string) (string, bool) {
	info, ok := p.Lookup(ctx, symbol)
	if !ok {
		return "", false
	}
	return info.Name, true
}

// Symbol resolves a coin name or CoinPaprika id such as "bitcoin" or "btc-bitcoin".
func (p *Paprika) Symbol(ctx context.Context, name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || ctx.Err() != nil {
		return "", false
	}

	p.mu.RLock()
	info, ok := p.byName[name]
	p.mu.RUnlock()
	if ok {
		return info.Symbol, true
	}

	coins, err := helpers.CallWithContext(ctx, func() ([]*coinpaprika.Coin, error) {
		return p.source.Search(name, false)
	})
	if err != nil {
		log.Debugf("Name search failed for %s: %v", name, err)
		return "", false
	}
	for _, coin := range coins {
		if coin == nil || coin.Symbol == nil {
			continue
		}
		if (coin.Name != nil && strings.EqualFold(*coin.Name, name)) || (coin.ID != nil && strings.EqualFold(*coin.ID, name)) {
			return strings.ToUpper(*coin.Symbol), true
		}
	}
	return "", false
}

func toPriceInfo(ticker *coinpaprika.Ticker) (PriceInfo, bool) {
	if ticker == nil || ticker.ID == nil || ticker.Symbol == nil {
		return PriceInfo{}, false
	}
	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return PriceInfo{}, false
	}

	info := PriceInfo{
		ID:       *ticker.ID,
		Symbol:   strings.ToUpper(*ticker.Symbol),
		PriceUSD: *quote.Price,
	}
	if ticker.Name != nil {
		info.Name = *ticker.Name
	}
	return info, true
}
