package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/ai"
	"github.com/Sathvik-Nagesh/GeoSnap/model"
	"github.com/Sathvik-Nagesh/GeoSnap/pipeline"
	"github.com/Sathvik-Nagesh/GeoSnap/storage"
)

// maxUploadBytes caps uploads before any image processing happens.
const maxUploadBytes = 50 << 20 // 50 MB

// allowedTypes maps accepted sniffed content types to storage extensions.
// Anything else is rejected at the boundary before the core runs.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Pipeline is the processing policy the handlers drive.
type Pipeline interface {
	ProcessImage(ctx context.Context, imageID string, data []byte) model.LocationRecord
	AugmentWithAIGuess(ctx context.Context, rec model.LocationRecord, data []byte) (model.LocationRecord, error)
}

// Handlers exposes the service over HTTP.
type Handlers struct {
	Pipeline Pipeline
	Records  storage.RecordDB
	Images   storage.ImageStore
	Log      *zap.Logger

	SecretKey    string
	PasswordHash string
}

// Register attaches all routes and middleware to the router.
func (h *Handlers) Register(r *mux.Router) {
	r.Use(RequestLogger(h.Log))
	r.Use(Recovery(h.Log))

	r.HandleFunc("/api/login", h.handleLogin).Methods(http.MethodPost)
	r.Handle("/api/images", h.requireAuth(http.HandlerFunc(h.handleUpload))).Methods(http.MethodPost)
	r.HandleFunc("/api/images/near", h.handleNear).Methods(http.MethodGet)
	r.HandleFunc("/api/images/{id}", h.handleGetRecord).Methods(http.MethodGet)
	r.Handle("/api/images/{id}/guess", h.requireAuth(http.HandlerFunc(h.handleGuess))).Methods(http.MethodPost)
	r.HandleFunc("/api/images/{id}/strip", h.handleStrip).Methods(http.MethodGet)
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		h.Log.Warn("upload exceeds size limit", zap.Int64("content_length", r.ContentLength))
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file found in the request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Log.Error("failed to read uploaded file", zap.Error(err))
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		h.Log.Warn("unsupported upload type", zap.String("content_type", contentType))
		http.Error(w, "Unsupported media type: only JPEG, PNG and WebP images are accepted",
			http.StatusUnsupportedMediaType)
		return
	}

	imageID := primitive.NewObjectID().Hex()

	path, err := h.Images.SaveOriginal(imageID, ext, data)
	if err != nil {
		h.Log.Error("failed to store image", zap.Error(err))
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	previewPath, err := h.Images.SavePreview(imageID, data)
	if err != nil {
		// A preview is nice to have; the record works without one.
		h.Log.Warn("preview generation failed", zap.String("image_id", imageID), zap.Error(err))
	}

	rec := h.Pipeline.ProcessImage(r.Context(), imageID, data)
	rec.FileName = filepath.Base(header.Filename)
	rec.ContentType = contentType
	rec.Size = int64(len(data))
	rec.FilePath = path
	rec.PreviewPath = previewPath

	if err := h.Records.SaveRecord(r.Context(), rec); err != nil {
		h.Log.Error("failed to save record", zap.Error(err))
		http.Error(w, "Failed to save record", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handlers) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["id"]

	rec, err := h.Records.GetRecord(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load record", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// handleGuess runs the explicit AI fallback. It re-reads the current record
// under the requested image ID, so a late result can only ever overwrite
// its own image's record.
func (h *Handlers) handleGuess(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["id"]

	rec, err := h.Records.GetRecord(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load record", http.StatusInternalServerError)
		return
	}

	data, err := h.Images.ReadOriginal(rec.FilePath)
	if err != nil {
		h.Log.Error("failed to read stored image", zap.String("image_id", imageID), zap.Error(err))
		http.Error(w, "Stored image unavailable", http.StatusInternalServerError)
		return
	}

	merged, err := h.Pipeline.AugmentWithAIGuess(r.Context(), *rec, data)
	if err != nil {
		if errors.Is(err, pipeline.ErrHasEmbeddedGPS) {
			http.Error(w, "Record already has an embedded GPS location", http.StatusConflict)
			return
		}
		// The stored record is untouched; the client may retry.
		h.Log.Warn("ai guess failed", zap.String("image_id", imageID), zap.Error(err))
		status := http.StatusBadGateway
		if !errors.Is(err, ai.ErrAnalysisFailed) {
			status = http.StatusInternalServerError
		}
		h.writeJSON(w, status, map[string]any{
			"error":     "AI location guess failed, please try again",
			"retryable": true,
		})
		return
	}

	if err := h.Records.SaveRecord(r.Context(), merged); err != nil {
		h.Log.Error("failed to save augmented record", zap.Error(err))
		http.Error(w, "Failed to save record", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, merged)
}

func (h *Handlers) handleStrip(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["id"]

	rec, err := h.Records.GetRecord(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load record", http.StatusInternalServerError)
		return
	}

	data, err := h.Images.ReadOriginal(rec.FilePath)
	if err != nil {
		http.Error(w, "Stored image unavailable", http.StatusInternalServerError)
		return
	}

	stripped, err := h.Images.StripMetadata(data)
	if err != nil {
		h.Log.Error("strip re-encode failed", zap.String("image_id", imageID), zap.Error(err))
		http.Error(w, "Failed to strip metadata", http.StatusUnprocessableEntity)
		return
	}

	base := strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName))
	if base == "" {
		base = imageID
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_stripped.jpg"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stripped)
}

func (h *Handlers) handleNear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng query parameters are required", http.StatusBadRequest)
		return
	}
	if !(model.GeoCoordinate{Latitude: lat, Longitude: lng}).Valid() {
		http.Error(w, "lat/lng out of range", http.StatusBadRequest)
		return
	}

	dist := 1000
	if raw := q.Get("dist"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			http.Error(w, "dist must be a positive integer (meters)", http.StatusBadRequest)
			return
		}
		dist = d
	}

	records, err := h.Records.SearchNear(r.Context(), lng, lat, dist)
	if err != nil {
		h.Log.Error("near search failed", zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.LocationRecord{}
	}

	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("failed to encode response", zap.Error(err))
	}
}
