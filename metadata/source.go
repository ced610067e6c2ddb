package metadata

import (
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register manufacturer-specific note parsers so vendor fields decode.
	goexif.RegisterParsers(mknote.All...)
}

// Field names a Source can be asked for.
type Field string

const (
	FieldMake              Field = "Make"
	FieldModel             Field = "Model"
	FieldLensModel         Field = "LensModel"
	FieldISO               Field = "ISOSpeedRatings"
	FieldFNumber           Field = "FNumber"
	FieldExposureTime      Field = "ExposureTime"
	FieldFocalLength       Field = "FocalLength"
	FieldDateTimeOriginal  Field = "DateTimeOriginal"
	FieldDateTimeDigitized Field = "DateTimeDigitized"
)

// Source yields key-tagged metadata values from one image. It isolates the
// extraction contract from any one parsing library.
type Source interface {
	// String returns a trimmed string tag value.
	String(f Field) (string, bool)
	// Int returns an integer tag value.
	Int(f Field) (int, bool)
	// Ratio returns a rational tag value as a float.
	Ratio(f Field) (float64, bool)
	// LatLong returns the GPS coordinate pair. A partial GPS block (only
	// one of lat/long present) reports ok == false.
	LatLong() (lat, long float64, ok bool)
}

var goexifFields = map[Field]goexif.FieldName{
	FieldMake:              goexif.Make,
	FieldModel:             goexif.Model,
	FieldLensModel:         goexif.LensModel,
	FieldISO:               goexif.ISOSpeedRatings,
	FieldFNumber:           goexif.FNumber,
	FieldExposureTime:      goexif.ExposureTime,
	FieldFocalLength:       goexif.FocalLength,
	FieldDateTimeOriginal:  goexif.DateTimeOriginal,
	FieldDateTimeDigitized: goexif.DateTimeDigitized,
}

// goexifSource adapts a decoded goexif block to the Source interface.
type goexifSource struct {
	x *goexif.Exif
}

func (s goexifSource) String(f Field) (string, bool) {
	tag, err := s.x.Get(goexifFields[f])
	if err != nil {
		return "", false
	}
	val, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func (s goexifSource) Int(f Field) (int, bool) {
	tag, err := s.x.Get(goexifFields[f])
	if err != nil {
		return 0, false
	}
	val, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return val, true
}

func (s goexifSource) Ratio(f Field) (float64, bool) {
	tag, err := s.x.Get(goexifFields[f])
	if err != nil {
		return 0, false
	}
	num, denom, err := tag.Rat2(0)
	if err != nil || denom == 0 {
		return 0, false
	}
	return float64(num) / float64(denom), true
}

func (s goexifSource) LatLong() (float64, float64, bool) {
	lat, long, err := s.x.LatLong()
	if err != nil {
		return 0, 0, false
	}
	return lat, long, true
}
