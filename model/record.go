package model

import (
	"math"
	"time"
)

// GeoCoordinate is a WGS84 point. An absent coordinate is represented by a
// nil *GeoCoordinate, never by a zero value, so "no GPS tag" cannot be
// confused with the equator/prime-meridian intersection.
type GeoCoordinate struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Valid reports whether both components are finite and inside the valid
// latitude/longitude ranges.
func (c GeoCoordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// CaptureDetails holds the camera parameters read from the image metadata.
// Every field is independently optional; an absent details block as a whole
// is a nil *CaptureDetails.
type CaptureDetails struct {
	CameraMake   string  `bson:"camera_make,omitempty" json:"cameraMake,omitempty"`
	CameraModel  string  `bson:"camera_model,omitempty" json:"cameraModel,omitempty"`
	LensModel    string  `bson:"lens_model,omitempty" json:"lensModel,omitempty"`
	ExposureTime float64 `bson:"exposure_time,omitempty" json:"exposureTime,omitempty"`
	Aperture     float64 `bson:"aperture,omitempty" json:"aperture,omitempty"`
	ISO          int     `bson:"iso,omitempty" json:"iso,omitempty"`
	FocalLength  float64 `bson:"focal_length,omitempty" json:"focalLength,omitempty"`
}

// PlaceDescription is a human-readable place. DisplayName is always
// populated; the other fields are best-effort.
type PlaceDescription struct {
	City        string `bson:"city,omitempty" json:"city,omitempty"`
	Region      string `bson:"region,omitempty" json:"region,omitempty"`
	Country     string `bson:"country,omitempty" json:"country,omitempty"`
	DisplayName string `bson:"display_name" json:"displayName"`
}

// GeoPoint is the GeoJSON mirror of a record's coordinate, kept alongside
// the record so MongoDB $near queries work against a 2dsphere index.
type GeoPoint struct {
	Type        string    `bson:"type,omitempty" json:"-"`
	Coordinates []float64 `bson:"coordinates,omitempty" json:"-"` // [longitude, latitude]
}

// NewGeoPoint builds the GeoJSON mirror for a coordinate.
func NewGeoPoint(c GeoCoordinate) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{c.Longitude, c.Latitude},
	}
}

// LocationRecord is the canonical result of processing one uploaded image.
// It is created once per upload, fully replaced on re-upload, and extended
// only by the explicit AI-guess merge.
type LocationRecord struct {
	ImageID     string `bson:"_id" json:"imageId"`
	FileName    string `bson:"file_name" json:"fileName"`
	ContentType string `bson:"content_type" json:"contentType"`
	Size        int64  `bson:"size" json:"size"`
	FilePath    string `bson:"file_path" json:"-"`
	PreviewPath string `bson:"preview_path,omitempty" json:"-"`

	Location *GeoCoordinate    `bson:"location,omitempty" json:"exifLocation,omitempty"`
	LonLat   *GeoPoint         `bson:"lonlat,omitempty" json:"-"`
	TakenAt  *time.Time        `bson:"taken_at,omitempty" json:"captureDate,omitempty"`
	Details  *CaptureDetails   `bson:"details,omitempty" json:"captureDetails,omitempty"`
	Place    *PlaceDescription `bson:"place,omitempty" json:"locationInfo,omitempty"`

	GPSFound     bool   `bson:"gps_found" json:"gpsFound"`
	AIGuessed    bool   `bson:"ai_guessed" json:"aiGuessed"`
	AIConfidence *int   `bson:"ai_confidence,omitempty" json:"aiConfidence,omitempty"`
	AIReasoning  string `bson:"ai_reasoning,omitempty" json:"aiReasoning,omitempty"`

	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
}

// Mappable reports whether the record should be placed on a map. A record
// with an AI guess but no coordinate is still shown (name, confidence,
// reasoning) but never pinned.
func (r LocationRecord) Mappable() bool {
	return r.Location != nil
}
