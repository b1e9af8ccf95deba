package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
)

const (
	defaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2/markets"
	defaultLimit   = 100
	maxPageSize    = 200
	maxAttempts    = 5
)

// Client talks to the Kalshi Trade API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config provides optional overrides.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a configured Kalshi API client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ collectors.Source = (*Client)(nil)

func (c *Client) Name() collectors.Venue {
	return collectors.VenueKalshi
}

// FetchPrices pages through open markets until limit quotes are collected
// or the cursor runs out.
func (c *Client) FetchPrices(ctx context.Context, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	quotes := make([]models.Quote, 0, limit)
	var cursor string
	seen, skipped := 0, 0
	for len(quotes) < limit {
		page := limit - len(quotes)
		if page > maxPageSize {
			page = maxPageSize
		}
		resp, err := c.listMarkets(ctx, page, cursor)
		if err != nil {
			return nil, fmt.Errorf("kalshi list markets: %w", err)
		}
		for _, m := range resp.Markets {
			seen++
			q, ok := parseMarket(m)
			if !ok {
				skipped++
				continue
			}
			quotes = append(quotes, q)
			if len(quotes) >= limit {
				break
			}
		}
		if resp.Cursor == "" || resp.Cursor == cursor || len(resp.Markets) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	logging.Debugf("[kalshi] fetched %d markets, %d quotes, %d skipped", seen, len(quotes), skipped)
	return quotes, nil
}

func (c *Client) listMarkets(ctx context.Context, limit int, cursor string) (*marketsResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	var out marketsResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, dst any) error {
	var attempt int
	for {
		attempt++
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == nil && shouldRetry(attempt, 0) {
				if err := sleep(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(dst)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()

		if shouldRetry(attempt, resp.StatusCode) {
			if err := sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}
		return fmt.Errorf("kalshi API %s: %s", resp.Status, string(body))
	}
}

func parseMarket(m market) (models.Quote, bool) {
	ticker := strings.TrimSpace(m.Ticker)
	name := eventName(m)
	if ticker == "" || name == "" {
		return models.Quote{}, false
	}

	yes, no := centsToFloat(m.YesBid), centsToFloat(m.NoBid)
	if yes <= 0 && no <= 0 && m.LastPrice > 0 {
		yes = centsToFloat(m.LastPrice)
		no = 1 - yes
	}
	yes, no, ok := collectors.NormalizePair(yes, no)
	if !ok {
		return models.Quote{}, false
	}

	q := models.Quote{MarketID: ticker, EventName: name, YesPrice: yes, NoPrice: no}
	if ts, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
		q.CloseTime = ts.UTC()
	}
	return q, true
}

// eventName fills the double-space placeholder Kalshi leaves in some
// multi-outcome titles ("Will  win the race?") with the outcome subtitle.
func eventName(m market) string {
	title := strings.TrimSpace(m.Title)
	alias := strings.TrimSpace(m.YesSubTitle)
	if alias == "" || !strings.Contains(title, "  ") {
		return title
	}
	return strings.Replace(title, "  ", " "+alias+" ", 1)
}

func centsToFloat(v int64) float64 {
	return float64(v) / 100
}

func shouldRetry(attempt int, status int) bool {
	if attempt >= maxAttempts {
		return false
	}
	if status == 0 {
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func sleep(ctx context.Context, attempt int) error {
	backoff := time.Duration(1<<uint(attempt-1)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type marketsResponse struct {
	Markets []market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	YesSubTitle string `json:"yes_sub_title"`
	Status      string `json:"status"`
	YesBid      int64  `json:"yes_bid"`
	NoBid       int64  `json:"no_bid"`
	LastPrice   int64  `json:"last_price"`
	CloseTime   string `json:"close_time"`
}
