package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

const resultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Fnifty-rally">Nifty rallies past 22,500</a>
  <div class="result__snippet">Benchmark indices closed higher on strong bank earnings.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/gold">Gold steady ahead of Fed</a>
  <div class="result__snippet">Bullion held near record highs.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/third">Third headline</a>
  <div class="result__snippet">More news.</div>
</div>
</body></html>`

func TestSearchNewsParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "nifty news", r.Form.Get("q"))
		w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	svc := NewService(arbor.NewLogger(), WithEndpoint(server.URL))
	results, err := svc.SearchNews(context.Background(), "nifty news", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Nifty rallies past 22,500", results[0].Title)
	assert.Equal(t, "https://example.com/nifty-rally", results[0].URL)
	assert.Contains(t, results[0].Snippet, "bank earnings")
	assert.Equal(t, "https://example.com/gold", results[1].URL)
}

func TestSearchNewsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(arbor.NewLogger(), WithEndpoint(server.URL))

	_, err := svc.SearchNews(context.Background(), "anything", 3)
	assert.Error(t, err)

	_, err = svc.SearchNews(context.Background(), "  ", 3)
	assert.Error(t, err)
}
