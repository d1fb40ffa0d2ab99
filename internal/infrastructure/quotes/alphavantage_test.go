package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPrice_OK(t *testing.T) {
	srv := newServer(t, 200, `{"Global Quote":{"01. symbol":"AAPL","05. price":"187.4400"}}`)
	c := NewAlphaVantage(srv.URL+"/", "demo", time.Second)

	price, err := c.GetPrice(context.Background(), "aapl")
	require.NoError(t, err)
	assert.InDelta(t, 187.44, price, 1e-9)
}

func TestGetPrice_EmptyQuote(t *testing.T) {
	srv := newServer(t, 200, `{"Global Quote":{}}`)
	c := NewAlphaVantage(srv.URL, "demo", time.Second)

	_, err := c.GetPrice(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestGetPrice_Throttled(t *testing.T) {
	srv := newServer(t, 200, `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`)
	c := NewAlphaVantage(srv.URL, "demo", time.Second)

	_, err := c.GetPrice(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestGetPrice_HTTPError(t *testing.T) {
	srv := newServer(t, 500, `oops`)
	c := NewAlphaVantage(srv.URL, "demo", time.Second)

	_, err := c.GetPrice(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestGetPrice_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	c := NewAlphaVantage(srv.URL, "demo", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetPrice(ctx, "AAPL")
	assert.Error(t, err)
}
