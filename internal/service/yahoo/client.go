package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/service/window"
	"MacroPull/pkg/config"
	"MacroPull/pkg/util"
)

const Name = config.SourceYahoo

// Client reads daily price history from the Yahoo Finance chart API.
type Client struct {
	base    *provider.Base
	baseURL string
}

func NewClient(cfg config.YahooConfig, limiter *ratelimit.Limiter, breakers *provider.Breakers, opts ...provider.Option) *Client {
	if limiter != nil {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			limiter.SetHostRate(u.Host, cfg.RateLimit)
		}
	}
	o := provider.Options{
		Name:      Name,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Limiter:   limiter,
		Breakers:  breakers,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		base:    provider.NewBase(o),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (c *Client) Name() string { return Name }

// Fetch returns daily closes for ticker from the lookback start to a week
// past the window end. Adjusted closes win over raw closes.
func (c *Client) Fetch(ctx context.Context, ticker string, w models.MonthWindow, lookbackMonths int) (models.RawSeries, error) {
	if strings.TrimSpace(ticker) == "" {
		return models.RawSeries{}, models.Empty(Name, ticker, "no ticker configured")
	}
	start := window.LookbackStart(w, lookbackMonths)
	query := map[string][]string{
		"period1":              {strconv.FormatInt(start.Unix(), 10)},
		"period2":              {strconv.FormatInt(w.FetchEnd().Unix(), 10)},
		"interval":             {"1d"},
		"events":               {"history"},
		"includeAdjustedClose": {"true"},
	}

	body, err := c.base.Get(ctx, ticker, c.baseURL+"/"+url.PathEscape(ticker), query, nil)
	if err != nil {
		return models.RawSeries{}, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, ticker, fmt.Errorf("decode chart: %w", err))
	}
	return parseChart(ticker, resp)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency  string `json:"currency"`
		Symbol    string `json:"symbol"`
		GMTOffset int    `json:"gmtoffset"`
		Timezone  string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func parseChart(ticker string, resp chartResponse) (models.RawSeries, error) {
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return models.RawSeries{}, models.Empty(Name, ticker, e.Description)
		}
		return models.RawSeries{}, models.NewSourceError(Name, ticker, errors.New(e.Code+": "+e.Description))
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Timestamp) == 0 {
		return models.RawSeries{}, models.Empty(Name, ticker, "no rows")
	}

	r := resp.Chart.Result[0]
	values, column := pickColumn(r)
	if values == nil {
		return models.RawSeries{}, models.Empty(Name, ticker, "no close column")
	}
	if len(values) != len(r.Timestamp) {
		return models.RawSeries{}, models.NewSourceError(Name, ticker,
			fmt.Errorf("schema mismatch: %d timestamps, %d values", len(r.Timestamp), len(values)))
	}

	offset := time.Duration(r.Meta.GMTOffset) * time.Second
	points := make([]models.Point, 0, len(values))
	for i, ts := range r.Timestamp {
		local := time.Unix(ts, 0).UTC().Add(offset)
		points = append(points, models.Point{Date: util.DateOnly(local), Value: values[i]})
	}

	raw := models.RawSeries{
		Name:   ticker,
		Source: Name,
		Points: points,
		Meta: map[string]string{
			"column":   column,
			"currency": r.Meta.Currency,
			"timezone": r.Meta.Timezone,
		},
	}
	if raw.IsEmpty() {
		return models.RawSeries{}, models.Empty(Name, ticker, "all values missing")
	}
	return raw, nil
}

func pickColumn(r chartResult) ([]*float64, string) {
	if adj := r.Indicators.AdjClose; len(adj) > 0 && hasValue(adj[0].AdjClose) {
		return adj[0].AdjClose, "adjclose"
	}
	if q := r.Indicators.Quote; len(q) > 0 && q[0].Close != nil {
		return q[0].Close, "close"
	}
	return nil, ""
}

func hasValue(vs []*float64) bool {
	for _, v := range vs {
		if v != nil {
			return true
		}
	}
	return false
}
