package polymarket

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
	defaultBaseURL = "https://gamma-api.polymarket.com/markets"
	defaultLimit   = 100
	maxAttempts    = 3
)

// Client fetches Polymarket market prices from the Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config controls optional overrides for the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a Polymarket client with sane defaults.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
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
	return collectors.VenuePolymarket
}

// FetchPrices returns up to limit open binary markets as quotes. Markets
// without a usable yes/no price are skipped.
func (c *Client) FetchPrices(ctx context.Context, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	raw, err := c.listMarkets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("polymarket list markets: %w", err)
	}

	quotes := make([]models.Quote, 0, len(raw))
	skipped := 0
	for _, m := range raw {
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
	logging.Debugf("[polymarket] fetched %d markets, %d quotes, %d skipped", len(raw), len(quotes), skipped)
	return quotes, nil
}

func (c *Client) listMarkets(ctx context.Context, limit int) ([]market, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	var body json.RawMessage
	if err := c.do(ctx, req, &body); err != nil {
		return nil, err
	}
	return decodeMarkets(body)
}

// decodeMarkets accepts either a bare array or a {"data": [...]} envelope.
func decodeMarkets(body json.RawMessage) ([]market, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []market
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var env struct {
		Data []market `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, dst any) error {
	var attempt int
	for {
		attempt++
		resp, err := c.httpClient.Do(req)
		if err != nil {
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
		return fmt.Errorf("polymarket API %s: %s", resp.Status, string(body))
	}
}

func parseMarket(m market) (models.Quote, bool) {
	id := rawString(m.ID)
	if id == "" {
		id = strings.TrimSpace(m.ConditionID)
	}
	name := strings.TrimSpace(m.Question)
	if name == "" {
		name = strings.TrimSpace(m.Title)
	}
	if id == "" || name == "" {
		return models.Quote{}, false
	}

	yes, no, found := outcomePrices(m)
	if !found {
		yes, no, found = tokenPrices(m.Tokens)
	}
	if !found {
		return models.Quote{}, false
	}
	yes, no, ok := collectors.NormalizePair(yes, no)
	if !ok {
		return models.Quote{}, false
	}

	q := models.Quote{MarketID: id, EventName: name, YesPrice: yes, NoPrice: no}
	if ts, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		q.CloseTime = ts.UTC()
	}
	return q, true
}

// outcomePrices reads the Gamma format, where outcomes and outcomePrices
// are JSON arrays encoded as strings.
func outcomePrices(m market) (float64, float64, bool) {
	outcomes := stringList(m.Outcomes)
	prices := stringList(m.OutcomePrices)
	var yes, no float64
	var haveYes, haveNo bool
	for i, outcome := range outcomes {
		if i >= len(prices) {
			break
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(prices[i]), 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(outcome)) {
		case "yes", "y":
			yes, haveYes = p, true
		case "no", "n":
			no, haveNo = p, true
		}
	}
	return yes, no, haveYes && haveNo
}

// tokenPrices reads the CLOB format. Two unlabeled tokens are taken as yes, no.
func tokenPrices(tokens []token) (float64, float64, bool) {
	var yes, no float64
	var haveYes, haveNo bool
	for _, t := range tokens {
		switch strings.ToLower(strings.TrimSpace(t.Outcome)) {
		case "yes", "y":
			yes, haveYes = t.Price, true
		case "no", "n":
			no, haveNo = t.Price, true
		}
	}
	if !haveYes && !haveNo && len(tokens) == 2 {
		return tokens[0].Price, tokens[1].Price, true
	}
	return yes, no, haveYes && haveNo
}

// stringList decodes either a JSON array or a string holding one.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// rawString accepts an id encoded as either a JSON string or number.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func shouldRetry(attempt int, status int) bool {
	if attempt >= maxAttempts {
		return false
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

type market struct {
	ID            json.RawMessage `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	Title         string          `json:"title"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Tokens        []token         `json:"tokens"`
	EndDate       string          `json:"endDate"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
}

type token struct {
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
}
