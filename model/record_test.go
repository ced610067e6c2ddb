package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoCoordinateValid(t *testing.T) {
	cases := []struct {
		name  string
		coord GeoCoordinate
		want  bool
	}{
		{"san francisco", GeoCoordinate{37.7749, -122.4194}, true},
		{"origin is a real place", GeoCoordinate{0, 0}, true},
		{"poles", GeoCoordinate{90, 180}, true},
		{"latitude too high", GeoCoordinate{90.1, 0}, false},
		{"longitude too low", GeoCoordinate{0, -180.5}, false},
		{"nan latitude", GeoCoordinate{math.NaN(), 0}, false},
		{"infinite longitude", GeoCoordinate{0, math.Inf(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.coord.Valid())
		})
	}
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(GeoCoordinate{Latitude: 37.7749, Longitude: -122.4194})

	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{-122.4194, 37.7749}, p.Coordinates, "GeoJSON order is [lng, lat]")
}

func TestMappable(t *testing.T) {
	assert.False(t, LocationRecord{}.Mappable())
	assert.False(t, LocationRecord{AIGuessed: true}.Mappable(), "AI guess without coordinates is not pinned")

	c := GeoCoordinate{Latitude: 1, Longitude: 2}
	assert.True(t, LocationRecord{Location: &c}.Mappable())
}
