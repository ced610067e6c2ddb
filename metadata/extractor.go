// Package metadata extracts the embedded EXIF block of an uploaded image
// into the canonical coordinate/date/camera record.
package metadata

import (
	"bytes"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/model"
)

// exifTimeLayout is the date format EXIF uses for its timestamp tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata is the result of extracting one image. All fields are optional;
// an image without an EXIF block yields the zero value.
type Metadata struct {
	Coordinate  *model.GeoCoordinate
	CaptureDate *time.Time
	Details     *model.CaptureDetails
}

// Extractor reads EXIF metadata from raw image bytes.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract parses the image's EXIF block. It is a pure transform: a missing,
// partial, or corrupt block degrades to absent fields, and no parse error
// ever propagates to the caller.
func (e *Extractor) Extract(data []byte) (meta Metadata) {
	// goexif can panic on malformed TIFF structures; a corrupt block must
	// degrade to the all-absent result like any other parse failure.
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("exif decode panic", zap.Any("cause", r))
			meta = Metadata{}
		}
	}()

	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		// goexif exports no sentinel for a missing EXIF block; it returns
		// this exact error when the intro marker is absent.
		if err.Error() != "exif: failed to find exif intro marker" {
			e.log.Debug("exif decode failed", zap.Error(err))
		}
		return Metadata{}
	}

	return fromSource(goexifSource{x: x})
}

// fromSource assembles a Metadata from any tag source.
func fromSource(src Source) Metadata {
	return Metadata{
		Coordinate:  coordinate(src),
		CaptureDate: captureDate(src),
		Details:     captureDetails(src),
	}
}

func coordinate(src Source) *model.GeoCoordinate {
	lat, long, ok := src.LatLong()
	if !ok {
		return nil
	}
	c := model.GeoCoordinate{Latitude: lat, Longitude: long}
	if !c.Valid() {
		return nil
	}
	return &c
}

// captureDate prefers the original capture time tag, falling back to the
// digitized (file creation) tag. Filesystem metadata is never consulted.
func captureDate(src Source) *time.Time {
	for _, f := range []Field{FieldDateTimeOriginal, FieldDateTimeDigitized} {
		raw, ok := src.String(f)
		if !ok {
			continue
		}
		if t, err := time.ParseInLocation(exifTimeLayout, raw, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// captureDetails reads the six camera tags. Absence is all-or-nothing: if
// none of the tags is present the result is nil, not an empty struct, so
// callers can skip rendering a details panel.
func captureDetails(src Source) *model.CaptureDetails {
	var d model.CaptureDetails
	found := false

	if v, ok := src.String(FieldMake); ok {
		d.CameraMake = v
		found = true
	}
	if v, ok := src.String(FieldModel); ok {
		d.CameraModel = v
		found = true
	}
	if v, ok := src.String(FieldLensModel); ok {
		d.LensModel = v
		found = true
	}
	if v, ok := src.Ratio(FieldExposureTime); ok {
		d.ExposureTime = v
		found = true
	}
	if v, ok := src.Ratio(FieldFNumber); ok {
		d.Aperture = v
		found = true
	}
	if v, ok := src.Int(FieldISO); ok {
		d.ISO = v
		found = true
	}
	if v, ok := src.Ratio(FieldFocalLength); ok {
		d.FocalLength = v
		found = true
	}

	if !found {
		return nil
	}
	return &d
}
