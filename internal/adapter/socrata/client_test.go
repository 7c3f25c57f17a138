package socrata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "transit_timestamp,station_complex_id,station_complex,borough,latitude,longitude,ridership\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_FetchPage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wujg-7c2s.csv", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("$limit"))
		assert.Equal(t, "10", r.URL.Query().Get("$offset"))

		fmt.Fprint(w, testHeader)
		fmt.Fprint(w, "2024-01-06T07:00:00.000,444,Roosevelt Av,Queens,40.7466,-73.8912,123\n")
		fmt.Fprint(w, "2024-01-06T08:00:00.000,444,Roosevelt Av,Queens,40.7466,-73.8912,150\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wujg-7c2s", 5*time.Second, testLogger())
	header, rows, err := c.FetchPage(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, "transit_timestamp", header[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "444", rows[0][1])
	assert.Equal(t, "150", rows[1][6])
}

func TestClient_FetchPage_HeaderOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, testHeader)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wujg-7c2s", 5*time.Second, testLogger())
	header, rows, err := c.FetchPage(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, header)
	assert.Empty(t, rows)
}

func TestClient_FetchPage_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c := NewClient(srv.URL, "wujg-7c2s", 5*time.Second, testLogger())
	header, rows, err := c.FetchPage(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Empty(t, header)
	assert.Empty(t, rows)
}

func TestClient_FetchPage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wujg-7c2s", 5*time.Second, testLogger())
	_, _, err := c.FetchPage(context.Background(), 100, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_FetchPage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wujg-7c2s", 50*time.Millisecond, testLogger())
	_, _, err := c.FetchPage(context.Background(), 100, 0)
	require.Error(t, err)
}
