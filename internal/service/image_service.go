package service

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"knowhere/internal/models"

	"github.com/google/uuid"
)

// MaxImageBytes caps uploaded event images at 5 MiB.
const MaxImageBytes = 5 * 1024 * 1024

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService handles event image validation and storage.
type ImageService struct {
	uploadDir string
}

// NewImageService returns a new ImageService writing originals to uploadDir.
func NewImageService(uploadDir string) *ImageService {
	return &ImageService{uploadDir: uploadDir}
}

// DetectImageType sniffs the content type and returns it if it is a
// supported image format.
func DetectImageType(data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return "", models.NewValidationError("Unsupported image type: " + contentType)
	}
	return contentType, nil
}

// EncodeDataURL validates the image bytes and returns them as an inline
// data URL suitable for embedding in an event record.
func (s *ImageService) EncodeDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if len(data) > MaxImageBytes {
		return "", models.NewValidationError("Image exceeds the 5 MiB limit")
	}

	contentType, err := DetectImageType(data)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", contentType, encoded), nil
}

// SaveOriginal writes the raw image bytes to the upload directory and
// returns the stored filename.
func (s *ImageService) SaveOriginal(data []byte) (string, error) {
	contentType, err := DetectImageType(data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", models.NewStorageWriteError(err)
	}

	name := uuid.New().String() + imageExtensions[contentType]
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", models.NewStorageWriteError(err)
	}
	return name, nil
}

// DecodeDataURL splits an inline data URL back into content type and bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, models.NewValidationError("Not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, models.NewValidationError("Malformed data URL")
	}
	contentType, _ := strings.CutSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, models.NewValidationError("Invalid base64 image payload")
	}
	return contentType, data, nil
}
