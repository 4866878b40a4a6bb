package quotes

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchNormalizesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/PETR4" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"results":[{
			"symbol": "PETR4",
			"shortName": "PETROBRAS PN",
			"regularMarketPrice": 38.42,
			"currency": "BRL",
			"regularMarketTime": "2025-06-02T17:00:00Z"
		}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	// Lower-case input must be normalized before the request.
	q, err := c.Fetch("petr4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "PETR4" || q.Currency != "BRL" {
		t.Errorf("unexpected quote: %+v", q)
	}
	if q.Price.String() != "38.42" {
		t.Errorf("price = %s, want 38.42", q.Price)
	}
	if q.AsOf.IsZero() {
		t.Error("expected a market timestamp")
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/EMPTY":
			w.Write([]byte(`{"results":[]}`))
		case "/quote/BROKEN":
			w.Write([]byte(`{"results":[{"symbol":"BROKEN","regularMarketPrice":"n/a"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	if _, err := c.Fetch(""); err == nil {
		t.Error("empty symbol must be rejected")
	}
	if _, err := c.Fetch("NOPE4"); err == nil {
		t.Error("unknown symbol must surface as an error")
	}
	if _, err := c.Fetch("EMPTY"); err == nil {
		t.Error("empty result set must surface as an error")
	}
	if _, err := c.Fetch("BROKEN"); err == nil {
		t.Error("unparseable price must surface as an error")
	}
}
