package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nivesh/internal/models"
)

func TestYahooGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", r.URL.Path)
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{
			"currency":"INR","symbol":"RELIANCE.NS",
			"regularMarketPrice":2950.55,"previousClose":2900.00,
			"regularMarketTime":1756500000}}],"error":null}}`)
	}))
	defer server.Close()

	client := NewYahooClient(WithYahooBaseURL(server.URL))
	quote, err := client.GetQuote(context.Background(), models.ParseInstrument("RELIANCE"))
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE", quote.Symbol)
	assert.Equal(t, 2950.55, quote.Price)
	assert.Equal(t, "INR", quote.Currency)
	assert.Equal(t, models.QuoteSourcePrimary, quote.Source)
	assert.Equal(t, "yahoo", quote.Provider)
	assert.InDelta(t, 50.55, quote.Change, 0.001)
	assert.InDelta(t, 1.743, quote.ChangePct, 0.01)
}

func TestYahooGetQuoteIndexSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/%5ENSEI", r.URL.EscapedPath())
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{
			"currency":"INR","symbol":"^NSEI",
			"regularMarketPrice":22550.35,"chartPreviousClose":22400.00,
			"regularMarketTime":1756500000}}],"error":null}}`)
	}))
	defer server.Close()

	client := NewYahooClient(WithYahooBaseURL(server.URL))
	quote, err := client.GetQuote(context.Background(), models.ParseInstrument("nifty"))
	require.NoError(t, err)

	assert.Equal(t, "^NSEI", quote.Symbol)
	assert.Equal(t, 22550.35, quote.Price)
}

func TestYahooGetQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewYahooClient(WithYahooBaseURL(server.URL))
	_, err := client.GetQuote(context.Background(), models.ParseInstrument("BOGUS"))
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "yahoo", apiErr.Provider)
}

func TestAlphaVantageRateLimitNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
	}))
	defer server.Close()

	client := NewAlphaVantageClient("demo", WithAlphaVantageBaseURL(server.URL), WithAlphaVantageRateLimit(0))
	_, err := client.GetQuote(context.Background(), models.ParseInstrument("TCS"))
	require.Error(t, err)

	_, ok := err.(*RateLimitError)
	assert.True(t, ok)
}

func TestAlphaVantageGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "TCS.BSE", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"Global Quote":{"01. symbol":"TCS.BSE","05. price":"4100.5000","09. change":"-12.3000","10. change percent":"-0.2991%"}}`)
	}))
	defer server.Close()

	client := NewAlphaVantageClient("demo", WithAlphaVantageBaseURL(server.URL), WithAlphaVantageRateLimit(0))
	quote, err := client.GetQuote(context.Background(), models.ParseInstrument("TCS"))
	require.NoError(t, err)

	assert.Equal(t, 4100.5, quote.Price)
	assert.Equal(t, models.QuoteSourceFallback2, quote.Source)
	assert.InDelta(t, -12.3, quote.Change, 0.001)
	assert.InDelta(t, -0.2991, quote.ChangePct, 0.0001)
}

func TestNSEGetIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/allIndices", r.URL.Path)
		fmt.Fprint(w, `{"data":[
			{"index":"NIFTY BANK","last":48000.10,"variation":-120.5,"percentChange":-0.25},
			{"index":"NIFTY 50","last":22550.35,"variation":150.35,"percentChange":0.67}]}`)
	}))
	defer server.Close()

	client := NewNSEClient(WithNSEBaseURL(server.URL), WithNSERateLimit(0))
	quote, err := client.GetQuote(context.Background(), models.ParseInstrument("nifty"))
	require.NoError(t, err)

	assert.Equal(t, "^NSEI", quote.Symbol)
	assert.Equal(t, 22550.35, quote.Price)
	assert.Equal(t, models.QuoteSourceFallback1, quote.Source)
	assert.Equal(t, "nse", quote.Provider)
}
