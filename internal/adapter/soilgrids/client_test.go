package soilgrids

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietcreek/soil-intel-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const restBody = `{
  "properties": {
    "layers": [
      {
        "name": "clay",
        "depths": [
          {"range": {"top_depth": 5, "bottom_depth": 15}, "label": "5-15cm", "values": {"mean": 250}},
          {"range": {"top_depth": 0, "bottom_depth": 5}, "label": "0-5cm", "values": {"mean": 220}},
          {"range": {"top_depth": 15, "bottom_depth": 30}, "label": "15-30cm", "values": {"mean": null}}
        ]
      },
      {
        "name": "sand",
        "depths": [
          {"range": {"top_depth": 0, "bottom_depth": 5}, "label": "0-5cm", "values": {"mean": 400}}
        ]
      },
      {
        "name": "silt",
        "depths": [
          {"range": {"top_depth": 0, "bottom_depth": 5}, "label": "0-5cm", "values": {"mean": 380}}
        ]
      }
    ]
  }
}`

func TestClient_FetchProfileParsesAndSorts(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(restBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
	profile, err := c.FetchProfile(context.Background(), 52.1, 5.6)
	require.NoError(t, err)

	assert.Equal(t, []string{"52.100000"}, gotQuery["lat"])
	assert.Equal(t, []string{"5.600000"}, gotQuery["lon"])
	assert.Equal(t, []string{"clay,sand,silt"}, gotQuery["property"])
	assert.Equal(t, []string{"0-5cm,5-15cm,15-30cm,30-60cm,60-100cm,100-200cm"}, gotQuery["depth"])

	// g/kg values land as percent, sorted by top depth, null means skipped.
	require.Len(t, profile.Clay, 2)
	assert.Equal(t, 22.0, profile.Clay[0].ValuePercent)
	assert.Equal(t, 0.0, profile.Clay[0].TopDepthCm)
	assert.Equal(t, 25.0, profile.Clay[1].ValuePercent)
	assert.Equal(t, 5.0, profile.Clay[1].TopDepthCm)

	require.Len(t, profile.Sand, 1)
	assert.Equal(t, 40.0, profile.Sand[0].ValuePercent)
	require.Len(t, profile.Silt, 1)
	assert.Equal(t, 38.0, profile.Silt[0].ValuePercent)
}

func TestClient_RetriesTransientStatusThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(restBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
	_, err := c.FetchProfile(context.Background(), 52.1, 5.6)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestClient_GivesUpAfterTwoRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
	_, err := c.FetchProfile(context.Background(), 52.1, 5.6)

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.HTTPStatus())
}

func TestClient_NonRetryableStatusFailsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
	_, err := c.FetchProfile(context.Background(), 52.1, 5.6)

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "400 must not be retried")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.HTTPStatus())
}

func TestClient_MalformedBodyFailsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
	_, err := c.FetchProfile(context.Background(), 52.1, 5.6)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryableStatus(t *testing.T) {
	for _, status := range []int{429, 502, 503, 504} {
		assert.True(t, retryableStatus(status), "status %d", status)
	}
	for _, status := range []int{200, 400, 404, 500, 501} {
		assert.False(t, retryableStatus(status), "status %d", status)
	}
}
