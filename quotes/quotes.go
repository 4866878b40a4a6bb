/*
Package quotes is a thin passthrough client for spot security prices.

PURPOSE:
  Serves ad-hoc "what is this ticker at right now" lookups next to the rate
  engine. Nothing in the calculation path depends on it: a quote is fetched,
  normalized, and returned, never cached or persisted.

SEE ALSO:
  - holidays/client.go: the same client shape over the holiday source
*/
package quotes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a normalized spot price.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	AsOf     time.Time       `json:"asOf"`
}

// Client fetches quotes from a configurable endpoint serving
// GET {base}/quote/{SYMBOL}.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL. A nil httpClient uses
// the default transport.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type wireQuote struct {
	Results []struct {
		Symbol             string          `json:"symbol"`
		ShortName          string          `json:"shortName"`
		RegularMarketPrice json.Number     `json:"regularMarketPrice"`
		Currency           string          `json:"currency"`
		RegularMarketTime  time.Time       `json:"regularMarketTime"`
	} `json:"results"`
}

// Fetch returns the current quote for one symbol. Symbols are normalized
// to upper case before the request.
func (c *Client) Fetch(symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, fmt.Errorf("quote: empty symbol")
	}

	resp, err := c.http.Get(c.baseURL + "/quote/" + symbol)
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, fmt.Errorf("quote %s: unknown symbol", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote %s: status %d", symbol, resp.StatusCode)
	}

	var body wireQuote
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("quote %s: decode: %w", symbol, err)
	}
	if len(body.Results) == 0 {
		return Quote{}, fmt.Errorf("quote %s: empty result set", symbol)
	}

	r := body.Results[0]
	price, err := decimal.NewFromString(r.RegularMarketPrice.String())
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s: bad price %q: %w", symbol, r.RegularMarketPrice, err)
	}

	asOf := r.RegularMarketTime
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return Quote{
		Symbol:   r.Symbol,
		Name:     r.ShortName,
		Price:    price,
		Currency: r.Currency,
		AsOf:     asOf,
	}, nil
}
