// Package oanda implements the broker interfaces against the OANDA v20
// REST API. Prices arrive as strings on the wire and are parsed into
// floats; sizes are converted between lots and OANDA's integer units.
package oanda

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/market"
)

const (
	// PracticeURL is the base URL for OANDA's practice environment.
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the base URL for OANDA's live trading environment.
	LiveURL = "https://api-fxtrade.oanda.com"

	// unitsPerLot converts lot sizes to OANDA's base-currency units.
	unitsPerLot = 100_000
)

// Granularity is an OANDA candle timeframe code.
type Granularity string

const (
	S5  Granularity = "S5"
	S30 Granularity = "S30"
	M1  Granularity = "M1"
	M5  Granularity = "M5"
	M15 Granularity = "M15"
	M30 Granularity = "M30"
	H1  Granularity = "H1"
	H4  Granularity = "H4"
	D   Granularity = "D"
)

// granularityFor maps a bar interval to the closest OANDA granularity,
// rounding down.
func granularityFor(interval time.Duration) Granularity {
	switch {
	case interval >= 24*time.Hour:
		return D
	case interval >= 4*time.Hour:
		return H4
	case interval >= time.Hour:
		return H1
	case interval >= 30*time.Minute:
		return M30
	case interval >= 15*time.Minute:
		return M15
	case interval >= 5*time.Minute:
		return M5
	case interval >= time.Minute:
		return M1
	case interval >= 30*time.Second:
		return S30
	default:
		return S5
	}
}

// Client is an OANDA v20 API client implementing both MarketData and
// Execution.
type Client struct {
	rest      *resty.Client
	accountID string
}

// NewClient creates a client for the given account. Practice selects
// the demo environment.
func NewClient(token, accountID string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{rest: rest, accountID: accountID}
}

// instrument converts a compact symbol like "EURUSD" to OANDA's
// underscore form. Symbols already containing an underscore pass
// through.
func instrument(symbol string) string {
	if strings.Contains(symbol, "_") || len(symbol) != 6 {
		return symbol
	}
	return symbol[:3] + "_" + symbol[3:]
}

type priceBucket struct {
	Price string `json:"price"`
}

type pricingResponse struct {
	Prices []struct {
		Instrument string        `json:"instrument"`
		Time       string        `json:"time"`
		Bids       []priceBucket `json:"bids"`
		Asks       []priceBucket `json:"asks"`
	} `json:"prices"`
}

// LatestTick fetches the current bid/ask for the symbol.
func (c *Client) LatestTick(ctx context.Context, symbol string) (market.Tick, error) {
	var out pricingResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("instruments", instrument(symbol)).
		SetResult(&out).
		Get(fmt.Sprintf("/v3/accounts/%s/pricing", c.accountID))
	if err != nil {
		return market.Tick{}, fmt.Errorf("oanda pricing %s: %w", symbol, err)
	}
	if resp.IsError() {
		return market.Tick{}, fmt.Errorf("oanda pricing %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}
	if len(out.Prices) == 0 || len(out.Prices[0].Bids) == 0 || len(out.Prices[0].Asks) == 0 {
		return market.Tick{}, fmt.Errorf("oanda pricing %s: %w", symbol, broker.ErrDataUnavailable)
	}

	p := out.Prices[0]
	bid, err := strconv.ParseFloat(p.Bids[0].Price, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("parse bid %q: %w", p.Bids[0].Price, err)
	}
	ask, err := strconv.ParseFloat(p.Asks[0].Price, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("parse ask %q: %w", p.Asks[0].Price, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return market.Tick{Symbol: symbol, Bid: bid, Ask: ask, Time: ts}, nil
}

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResponse struct {
	Candles []struct {
		Complete bool       `json:"complete"`
		Volume   int        `json:"volume"`
		Time     string     `json:"time"`
		Mid      candleData `json:"mid"`
	} `json:"candles"`
}

// HistoricalBars fetches up to count completed midpoint candles for
// the symbol at the closest granularity to interval.
func (c *Client) HistoricalBars(ctx context.Context, symbol string, interval time.Duration, count int) ([]market.Bar, error) {
	if count <= 0 || count > 5000 {
		return nil, fmt.Errorf("oanda candles %s: count must be in [1, 5000]", symbol)
	}

	var out candlesResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"price":       "M",
			"granularity": string(granularityFor(interval)),
			"count":       strconv.Itoa(count),
		}).
		SetResult(&out).
		Get(fmt.Sprintf("/v3/instruments/%s/candles", instrument(symbol)))
	if err != nil {
		return nil, fmt.Errorf("oanda candles %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("oanda candles %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	bars := make([]market.Bar, 0, len(out.Candles))
	for _, cd := range out.Candles {
		if !cd.Complete {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, cd.Time)
		if err != nil {
			return nil, fmt.Errorf("parse candle time %q: %w", cd.Time, err)
		}
		bar, err := parseBar(cd.Mid, ts, cd.Volume)
		if err != nil {
			return nil, fmt.Errorf("oanda candles %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(d candleData, ts time.Time, volume int) (market.Bar, error) {
	var bar market.Bar
	var err error
	if bar.Open, err = strconv.ParseFloat(d.O, 64); err != nil {
		return bar, fmt.Errorf("parse open %q: %w", d.O, err)
	}
	if bar.High, err = strconv.ParseFloat(d.H, 64); err != nil {
		return bar, fmt.Errorf("parse high %q: %w", d.H, err)
	}
	if bar.Low, err = strconv.ParseFloat(d.L, 64); err != nil {
		return bar, fmt.Errorf("parse low %q: %w", d.L, err)
	}
	if bar.Close, err = strconv.ParseFloat(d.C, 64); err != nil {
		return bar, fmt.Errorf("parse close %q: %w", d.C, err)
	}
	bar.Time = ts
	bar.Volume = float64(volume)
	return bar, nil
}

type orderRequest struct {
	Order struct {
		Type         string `json:"type"`
		Instrument   string `json:"instrument"`
		Units        string `json:"units"`
		TimeInForce  string `json:"timeInForce"`
		PositionFill string `json:"positionFill"`
	} `json:"order"`
}

type orderResponse struct {
	OrderFillTransaction struct {
		TradeOpened struct {
			TradeID string `json:"tradeID"`
		} `json:"tradeOpened"`
	} `json:"orderFillTransaction"`
	OrderCancelTransaction struct {
		Reason string `json:"reason"`
	} `json:"orderCancelTransaction"`
}

// PlaceOrder submits a market order for size lots and returns the
// opened trade's id as the ticket.
func (c *Client) PlaceOrder(ctx context.Context, symbol string, size float64, side market.Side) (string, error) {
	if size <= 0 {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol, Err: fmt.Errorf("size must be positive, got %v", size)}
	}
	if !side.Valid() {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol, Err: fmt.Errorf("invalid side %q", side)}
	}

	units := int64(side.Direction()) * int64(size*unitsPerLot)

	var req orderRequest
	req.Order.Type = "MARKET"
	req.Order.Instrument = instrument(symbol)
	req.Order.Units = strconv.FormatInt(units, 10)
	req.Order.TimeInForce = "FOK"
	req.Order.PositionFill = "DEFAULT"

	var out orderResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v3/accounts/%s/orders", c.accountID))
	if err != nil {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol, Err: err}
	}
	if resp.IsError() {
		return "", &broker.ExecutionError{
			Op:     "place",
			Symbol: symbol,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	if out.OrderFillTransaction.TradeOpened.TradeID == "" {
		return "", &broker.ExecutionError{
			Op:     "place",
			Symbol: symbol,
			Err:    fmt.Errorf("order not filled: %s", out.OrderCancelTransaction.Reason),
		}
	}
	return out.OrderFillTransaction.TradeOpened.TradeID, nil
}

type closeResponse struct {
	OrderFillTransaction struct {
		Instrument   string `json:"instrument"`
		Time         string `json:"time"`
		TradesClosed []struct {
			Units      string `json:"units"`
			RealizedPL string `json:"realizedPL"`
		} `json:"tradesClosed"`
	} `json:"orderFillTransaction"`
}

// CloseOrder closes the trade identified by ticket and returns the
// realized result.
func (c *Client) CloseOrder(ctx context.Context, ticket string) (market.TradeResult, error) {
	var out closeResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		Put(fmt.Sprintf("/v3/accounts/%s/trades/%s/close", c.accountID, ticket))
	if err != nil {
		return market.TradeResult{}, &broker.ExecutionError{Op: "close", Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return market.TradeResult{}, &broker.ExecutionError{Op: "close", Err: broker.ErrTicketNotFound}
	}
	if resp.IsError() {
		return market.TradeResult{}, &broker.ExecutionError{
			Op:  "close",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()),
		}
	}

	fill := out.OrderFillTransaction
	if len(fill.TradesClosed) == 0 {
		return market.TradeResult{}, &broker.ExecutionError{Op: "close", Err: fmt.Errorf("no trades closed for ticket %s", ticket)}
	}

	var profit, units float64
	for _, tc := range fill.TradesClosed {
		pl, err := strconv.ParseFloat(tc.RealizedPL, 64)
		if err != nil {
			return market.TradeResult{}, fmt.Errorf("parse realizedPL %q: %w", tc.RealizedPL, err)
		}
		u, err := strconv.ParseFloat(tc.Units, 64)
		if err != nil {
			return market.TradeResult{}, fmt.Errorf("parse units %q: %w", tc.Units, err)
		}
		profit += pl
		units += u
	}

	ts, err := time.Parse(time.RFC3339Nano, fill.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	size := units / unitsPerLot
	if size < 0 {
		size = -size
	}
	symbol := strings.ReplaceAll(fill.Instrument, "_", "")

	return market.NewTradeResult(symbol, size, profit, ts), nil
}

var (
	_ broker.MarketData = (*Client)(nil)
	_ broker.Execution  = (*Client)(nil)
)
