/*
client.go - Upstream benchmark-rate source client

PURPOSE:
  Queries the central authority's published daily rate for a single date.
  The source accepts a date-range POST and answers with zero or more records;
  a response can also carry "observacoes" annotations meaning the requested
  date was not actually a business day (the authority shifts such queries to
  the next business day and says so).

FAILURE POLICY:
  Network errors, non-200 statuses, and malformed payloads surface as errors;
  an empty result set is (record, false, nil). The reconciliation engine maps
  both cases to a conservative zero-factor record, so nothing here retries.

SEE ALSO:
  - reconcile.go: the only caller
*/
package selic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
	"github.com/selic/rate-engine/ratestore"
)

// RateSource fetches the published rate record for one date. Implemented by
// Client; tests substitute fakes.
type RateSource interface {
	// FetchDate returns (record, true, nil) when the source published a
	// record for the date, (zero, false, nil) when it published nothing,
	// and an error for transport or payload failures.
	FetchDate(d dates.Date) (ratestore.Record, bool, error)
}

// Client queries the upstream rate source over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a client posting to the given search URL. A nil
// httpClient uses the default transport.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, http: httpClient}
}

type rateQuery struct {
	DataInicial string `json:"dataInicial"`
	DataFinal   string `json:"dataFinal"`
}

type rateResponse struct {
	Registros []struct {
		DataCotacao string      `json:"dataCotacao"`
		FatorDiario json.Number `json:"fatorDiario"`
	} `json:"registros"`
	Observacoes []string `json:"observacoes"`
}

// FetchDate queries the source for a single date.
func (c *Client) FetchDate(d dates.Date) (ratestore.Record, bool, error) {
	payload, err := json.Marshal(rateQuery{DataInicial: d.BR(), DataFinal: d.BR()})
	if err != nil {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: marshal query: %w", d, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: %w", d, err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: %w", d, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: status %d", d, resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: decode: %w", d, err)
	}

	if len(body.Registros) == 0 {
		return ratestore.Record{}, false, nil
	}

	// Observations mean the source shifted the query off a non-business day;
	// record the date as non-business with the source's own explanation.
	if len(body.Observacoes) > 0 {
		text := strings.Join(body.Observacoes, "; ")
		return ratestore.NonBusinessDay(d, ratestore.ReasonObservationPrefix+text), true, nil
	}

	factor, err := decimal.NewFromString(body.Registros[0].FatorDiario.String())
	if err != nil {
		return ratestore.Record{}, false, fmt.Errorf("rate fetch %s: bad fatorDiario %q: %w",
			d, body.Registros[0].FatorDiario, err)
	}
	return ratestore.BusinessDay(d, factor), true, nil
}
