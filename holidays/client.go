/*
client.go - Upstream national-holiday source client

PURPOSE:
  Fetches the published holiday list for one year from the public holiday
  API (GET <base>/<year>, returning [{date, name, type}]). The resolver
  treats any failure here as "no holidays known", so this client reports
  errors but never synthesizes data.
*/
package holidays

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/selic/rate-engine/dates"
)

// Client fetches holidays over HTTP. Zero value is not usable; use NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL, e.g.
// "https://brasilapi.com.br/api/feriados/v1". A nil httpClient uses the
// default transport.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// FetchYear returns the national holidays for a year.
func (c *Client) FetchYear(year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/%d", c.baseURL, year)

	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("holiday fetch %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday fetch %d: status %d", year, resp.StatusCode)
	}

	var wire []wireHoliday
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("holiday fetch %d: decode: %w", year, err)
	}

	hs := make([]Holiday, 0, len(wire))
	for _, wh := range wire {
		d, err := dates.ParseISO(wh.Date)
		if err != nil {
			log.Printf("holidays: upstream returned bad date for %d: %v", year, err)
			continue
		}
		hs = append(hs, Holiday{Date: d, Name: wh.Name, Type: wh.Type})
	}
	return hs, nil
}
