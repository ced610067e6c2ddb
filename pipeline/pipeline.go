// Package pipeline is the policy layer: extract embedded metadata, resolve
// a place name when GPS is present, and expose the explicit AI fallback for
// images without GPS.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/ai"
	"github.com/Sathvik-Nagesh/GeoSnap/metadata"
	"github.com/Sathvik-Nagesh/GeoSnap/model"
)

// Extractor parses image bytes into metadata. It never fails.
type Extractor interface {
	Extract(data []byte) metadata.Metadata
}

// Resolver maps a coordinate to a place, or nil when the geocoder cannot.
type Resolver interface {
	Resolve(ctx context.Context, coord model.GeoCoordinate) *model.PlaceDescription
}

// Guesser asks the AI collaborator for a visual location estimate.
type Guesser interface {
	GuessLocation(ctx context.Context, imageData []byte, mediaType string) (*ai.Guess, error)
}

// ErrHasEmbeddedGPS rejects an AI guess on a record whose location came
// from the embedded tags. The AI step is a fallback, never an override.
var ErrHasEmbeddedGPS = eris.New("record already has an embedded GPS location")

// Pipeline wires the three collaborators.
type Pipeline struct {
	extractor Extractor
	resolver  Resolver
	guesser   Guesser
	log       *zap.Logger
}

// New creates a Pipeline.
func New(extractor Extractor, resolver Resolver, guesser Guesser, log *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		resolver:  resolver,
		guesser:   guesser,
		log:       log,
	}
}

// ProcessImage runs extraction and, only if a coordinate was found, the
// reverse geocode. It never invokes the AI collaborator: that step is
// opt-in and must be requested separately via AugmentWithAIGuess.
func (p *Pipeline) ProcessImage(ctx context.Context, imageID string, data []byte) model.LocationRecord {
	meta := p.extractor.Extract(data)

	rec := model.LocationRecord{
		ImageID:    imageID,
		TakenAt:    meta.CaptureDate,
		Details:    meta.Details,
		UploadedAt: time.Now().UTC(),
	}

	if meta.Coordinate == nil {
		p.log.Info("no GPS data in image", zap.String("image_id", imageID))
		return rec
	}

	rec.Location = meta.Coordinate
	rec.LonLat = model.NewGeoPoint(*meta.Coordinate)
	rec.GPSFound = true
	// A failed geocode leaves Place nil; the record is still usable with
	// the bare coordinate.
	rec.Place = p.resolver.Resolve(ctx, *meta.Coordinate)

	p.log.Info("extracted GPS location",
		zap.String("image_id", imageID),
		zap.Float64("lat", meta.Coordinate.Latitude),
		zap.Float64("lng", meta.Coordinate.Longitude),
		zap.Bool("place_resolved", rec.Place != nil),
	)
	return rec
}

// AugmentWithAIGuess merges a fresh AI estimate into the record and returns
// the merged copy. The input record is never mutated, so on failure the
// caller's record — capture details and date included — is provably intact.
// The returned error wraps ai.ErrAnalysisFailed.
func (p *Pipeline) AugmentWithAIGuess(ctx context.Context, rec model.LocationRecord, data []byte) (model.LocationRecord, error) {
	if rec.GPSFound {
		return rec, ErrHasEmbeddedGPS
	}
	if p.guesser == nil {
		return rec, eris.Wrap(ai.ErrAnalysisFailed, "no AI collaborator configured")
	}

	guess, err := p.guesser.GuessLocation(ctx, data, rec.ContentType)
	if err != nil {
		return rec, err
	}

	out := rec
	out.AIGuessed = true
	conf := guess.Confidence
	out.AIConfidence = &conf
	out.AIReasoning = guess.Reasoning

	// The display name is the model's own guess, not a geocoder result;
	// provenance is carried by the AIGuessed flag.
	out.Place = &model.PlaceDescription{DisplayName: guess.LocationName}

	// Coordinates only when the model provided both and they are sane. A
	// low-confidence guess may legitimately omit them; a repeat call that
	// omits them clears any coordinate a previous guess wrote.
	out.Location = nil
	out.LonLat = nil
	if guess.Latitude != nil && guess.Longitude != nil {
		c := model.GeoCoordinate{Latitude: *guess.Latitude, Longitude: *guess.Longitude}
		if c.Valid() {
			out.Location = &c
			out.LonLat = model.NewGeoPoint(c)
		}
	}

	p.log.Info("merged AI location guess",
		zap.String("image_id", rec.ImageID),
		zap.String("location", guess.LocationName),
		zap.Int("confidence", guess.Confidence),
		zap.Bool("mappable", out.Mappable()),
	)
	return out, nil
}
