package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestGeocodeReturnsBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Strada Victoriei 12, Cluj-Napoca", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`[{"lat": "46.7712", "lon": "23.6236",
			"display_name": "Strada Victoriei, Cluj-Napoca, Romania", "importance": 0.82}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, noopLogger())

	result, err := client.Geocode(context.Background(), "Strada Victoriei 12, Cluj-Napoca")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 46.7712, result.Latitude, 0.0001)
	assert.InDelta(t, 23.6236, result.Longitude, 0.0001)
	assert.Equal(t, "Strada Victoriei, Cluj-Napoca, Romania", result.DisplayName)
	assert.Equal(t, 0.82, result.Importance)
}

func TestGeocodeNoMatchIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, noopLogger())

	result, err := client.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGeocodeErrorsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, noopLogger())

	_, err := client.Geocode(context.Background(), "Strada Victoriei 12")
	assert.Error(t, err)
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		importance float64
		expected   string
	}{
		{0.95, "high"},
		{0.7, "high"},
		{0.69, "medium"},
		{0.4, "medium"},
		{0.39, "low"},
		{0.01, "low"},
		{0, ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ConfidenceLabel(test.importance), "importance %v", test.importance)
	}
}
