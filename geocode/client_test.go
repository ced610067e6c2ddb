package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/model"
)

var sf = model.GeoCoordinate{Latitude: 37.7749, Longitude: -122.4194}

func TestResolve_FullResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "37.7749", r.URL.Query().Get("lat"))
		assert.Equal(t, "-122.4194", r.URL.Query().Get("lon"))
		assert.Equal(t, "10", r.URL.Query().Get("zoom"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"display_name": "San Francisco, California, United States",
			"address": {
				"city": "San Francisco",
				"state": "California",
				"country": "United States"
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	place := c.Resolve(context.Background(), sf)

	require.NotNil(t, place)
	assert.Equal(t, "San Francisco", place.City)
	assert.Equal(t, "California", place.Region)
	assert.Equal(t, "United States", place.Country)
	assert.Equal(t, "San Francisco, California, United States", place.DisplayName)
}

func TestResolve_CityPrecedence_TownBeforeVillage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"display_name": "somewhere rural",
			"address": {"town": "Smallton", "village": "Tinyville", "country": "Ireland"}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	place := c.Resolve(context.Background(), sf)

	require.NotNil(t, place)
	assert.Equal(t, "Smallton", place.City)
}

func TestResolve_HamletWhenNothingElse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"display_name": "x", "address": {"hamlet": "Dunmore"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	place := c.Resolve(context.Background(), sf)

	require.NotNil(t, place)
	assert.Equal(t, "Dunmore", place.City)
}

func TestResolve_RegionFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"display_name": "x", "address": {"region": "Occitanie"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	place := c.Resolve(context.Background(), sf)

	require.NotNil(t, place)
	assert.Equal(t, "Occitanie", place.Region)
}

func TestResolve_SynthesizedDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"address": {"city": "Lyon", "country": "France"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	place := c.Resolve(context.Background(), sf)

	require.NotNil(t, place)
	assert.Equal(t, "Lyon, France", place.DisplayName)
}

func TestResolve_ErrorStatusReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	assert.Nil(t, c.Resolve(context.Background(), sf))
}

func TestResolve_MalformedJSONReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	assert.Nil(t, c.Resolve(context.Background(), sf))
}

func TestResolve_UnreachableReturnsNil(t *testing.T) {
	// Server shut down before the call: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	assert.Nil(t, c.Resolve(context.Background(), sf))
}
