package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	payload := searchResponse{
		Code: 200,
		Data: []searchResult{
			{
				Title:       "ATMEGA328P datasheet",
				URL:         "https://ww1.microchip.com/downloads/ATmega328P.pdf",
				Description: "8-bit AVR microcontroller datasheet",
			},
			{
				Title:   "Reflow guidance",
				URL:     "https://example.com/reflow",
				Content: "Peak temperature 245C, time above liquidus 60-90s",
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/ATMEGA328P-AU%20datasheet%20pdf%20reflow%20Tp%20TAL", r.URL.EscapedPath())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "ATMEGA328P-AU datasheet pdf reflow Tp TAL")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://ww1.microchip.com/downloads/ATmega328P.pdf", got[0].URL)
	assert.Equal(t, "8-bit AVR microcontroller datasheet", got[0].Snippet)
	// Snippet falls back to content when no description is present.
	assert.Equal(t, "Peak temperature 245C, time above liquidus 60-90s", got[1].Snippet)
}

func TestSearch_NoAuthHeaderWithoutKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Code: 200})
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "query")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_CapsResults(t *testing.T) {
	t.Parallel()

	payload := searchResponse{Code: 200}
	for i := 0; i < 10; i++ {
		payload.Data = append(payload.Data, searchResult{
			Title: "hit",
			URL:   "https://example.com/" + string(rune('a'+i)),
		})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithMaxResults(3))
	got, err := client.Search(context.Background(), "query")

	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearch_SkipsResultsWithoutURL(t *testing.T) {
	t.Parallel()

	payload := searchResponse{
		Code: 200,
		Data: []searchResult{
			{Title: "no url"},
			{Title: "good", URL: "https://example.com/ds.pdf"},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "query")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/ds.pdf", got[0].URL)
}

func TestSearch_NoResultsStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":422}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "obscure part nobody stocks")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`not found`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSearch_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestSearch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(ctx, "query")

	require.Error(t, err)
}

func TestSearch_RetryOn429(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	payload := searchResponse{
		Code: 200,
		Data: []searchResult{{Title: "hit", URL: "https://example.com/ds.pdf"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "query")

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSearch_RetryExhausted(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`service unavailable`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetries(1))
	_, err := client.Search(context.Background(), "query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(2), attempts.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient("my-key")
	hc := c.(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, "https://s.jina.ai", hc.baseURL)
	assert.Equal(t, 6, hc.maxResults)
	assert.Equal(t, 2, hc.retries)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 15*time.Second, hc.http.Timeout)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := NewClient("test-key", WithHTTPClient(custom))
	hc := c.(*httpClient)
	assert.Equal(t, custom, hc.http)
}

func TestRetryableStatusCode(t *testing.T) {
	t.Parallel()

	assert.True(t, retryableStatusCode(429))
	assert.True(t, retryableStatusCode(500))
	assert.True(t, retryableStatusCode(502))
	assert.True(t, retryableStatusCode(503))
	assert.False(t, retryableStatusCode(200))
	assert.False(t, retryableStatusCode(404))
	assert.False(t, retryableStatusCode(422))
}
