package storage

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// Register WebP decoding; imaging only registers JPEG/PNG/GIF/TIFF/BMP.
	_ "golang.org/x/image/webp"
)

// previewSize bounds the longest edge of generated preview thumbnails.
const previewSize = 512

// ImageStore persists original image bytes and derived previews, and
// produces metadata-free copies for download.
type ImageStore interface {
	SaveOriginal(imageID, ext string, data []byte) (string, error)
	SavePreview(imageID string, data []byte) (string, error)
	ReadOriginal(path string) ([]byte, error)
	// StripMetadata re-encodes the image, dropping the EXIF block (and any
	// other ancillary segments) in the process. No tag surgery is done on
	// the original container.
	StripMetadata(data []byte) ([]byte, error)
}

// LocalImageStore keeps files under a single directory.
type LocalImageStore struct {
	Directory string
	Log       *zap.Logger
}

func (s *LocalImageStore) SaveOriginal(imageID, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.Directory, imageID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	s.Log.Info("image saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

func (s *LocalImageStore) SavePreview(imageID string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return "", err
	}

	thumb := imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)
	path := filepath.Join(s.Directory, imageID+"_preview.jpg")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := imaging.Encode(f, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}

	return path, nil
}

func (s *LocalImageStore) ReadOriginal(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *LocalImageStore) StripMetadata(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
