package price

import (
	"net/http"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
)

// source is the subset of the CoinPaprika API the oracle relies on.
type source interface {
	Tickers() ([]*coinpaprika.Ticker, error)
	Search(query string, bySymbol bool) ([]*coinpaprika.Coin, error)
	Ticker(id string) (*coinpaprika.Ticker, error)
}

type paprikaSource struct {
	client *coinpaprika.Client
}

// requestTimeout bounds every CoinPaprika HTTP request, including the full ticker list.
const requestTimeout = 30 * time.Second

func newPaprikaSource(apiProKey string) *paprikaSource {
	httpClient := &http.Client{Timeout: requestTimeout}
	if apiProKey != "" {
		return &paprikaSource{client: coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &paprikaSource{client: coinpaprika.NewClient(httpClient)}
}

func (s *paprikaSource) Tickers() ([]*coinpaprika.Ticker, error) {
	tickers, err := s.client.Tickers.List(&coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return nil, errors.Wrap(err, "could not list tickers")
	}
	return tickers, nil
}

func (s *paprikaSource) Search(query string, bySymbol bool) ([]*coinpaprika.Coin, error) {
	searchOpts := &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
	if bySymbol {
		searchOpts.Modifier = "symbol_search"
	}
	result, err := s.client.Search.Search(searchOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not search for %s", query)
	}
	return result.Currencies, nil
}

func (s *paprikaSource) Ticker(id string) (*coinpaprika.Ticker, error) {
	ticker, err := s.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return nil, errors.Wrapf(err, "could not get ticker %s", id)
	}
	return ticker, nil
}
