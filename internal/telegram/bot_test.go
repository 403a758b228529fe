package telegram

import (
	"context"
	"net/http"
	"testing"
	"time"

	"crypto-range-alert-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

type stalledClient struct {
	delay time.Duration
}

func (c stalledClient) Do(req *http.Request) (*http.Response, error) {
	time.Sleep(c.delay)
	return nil, context.DeadlineExceeded
}

func TestBot_SendHonoursDeadline(t *testing.T) {
	api := &tgbotapi.BotAPI{Token: "123:abc", Client: stalledClient{delay: time.Second}}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)
	b := &Bot{Bot: api}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := b.Send(ctx, 1, types.Summary())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(started), 500*time.Millisecond)
}

func TestHTTPClientTimeout(t *testing.T) {
	require.Equal(t, 30*time.Second, httpClientTimeout(BotConfig{}))
	require.Equal(t, 10*time.Second+pollMargin, httpClientTimeout(BotConfig{RequestTimeout: 5 * time.Second, UpdatesTimeout: 10}))
	require.Equal(t, 70*time.Second, httpClientTimeout(BotConfig{RequestTimeout: 10 * time.Second, UpdatesTimeout: 60}))
	require.Equal(t, 2*time.Minute, httpClientTimeout(BotConfig{RequestTimeout: 2 * time.Minute, UpdatesTimeout: 60}))
}
