package upload

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ManuGH/stemsplit/internal/metrics"
)

// DefaultMaxBytes is the largest accepted file (100 MiB).
const DefaultMaxBytes int64 = 100 * 1024 * 1024

var allowedExtensions = map[string]MediaKind{
	".mp3":  MediaAudio,
	".wav":  MediaAudio,
	".flac": MediaAudio,
	".mp4":  MediaVideo,
	".avi":  MediaVideo,
	".mov":  MediaVideo,
	".webm": MediaVideo,
}

// AcceptedExtensions returns the allow-list for display and input accept attributes.
func AcceptedExtensions() []string {
	return []string{".mp3", ".wav", ".flac", ".mp4", ".avi", ".mov", ".webm"}
}

// ValidateFile applies the drop-zone rules: a file is accepted when its
// extension is on the allow-list or its MIME type is audio/* or video/*, and
// it is no larger than maxBytes. It returns the media kind and the effective
// MIME type.
func ValidateFile(name, mimeType string, size, maxBytes int64) (MediaKind, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	ext := strings.ToLower(filepath.Ext(name))
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			mimeType = byExt
		}
	}
	mediaType, _, _ := mime.ParseMediaType(mimeType)

	kind, ok := kindFor(ext, mediaType)
	if !ok {
		metrics.RecordSelectionRejected("type")
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	if size == 0 {
		metrics.RecordSelectionRejected("empty")
		return "", "", ErrEmptyFile
	}
	if size > maxBytes {
		metrics.RecordSelectionRejected("size")
		return "", "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, maxBytes)
	}
	return kind, mediaType, nil
}

func kindFor(ext, mediaType string) (MediaKind, bool) {
	// a declared audio/video MIME type decides the icon, like the page does
	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		return MediaAudio, true
	case strings.HasPrefix(mediaType, "video/"):
		return MediaVideo, true
	}
	kind, ok := allowedExtensions[ext]
	return kind, ok
}
