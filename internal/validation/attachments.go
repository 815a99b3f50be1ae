package validation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/adrayandaleandrew/baring-construction/internal/models"
)

const (
	// MaxFiles is the most attachments one quote request may carry,
	// counting empty placeholder parts.
	MaxFiles = 5
	// MaxFileSize is the per-file limit in bytes.
	MaxFileSize = 5 * 1024 * 1024
)

// AllowedFileTypes are the accepted declared MIME types.
var AllowedFileTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
}

var (
	ErrTooManyFiles = errors.New("too many files")
	ErrFileType     = errors.New("invalid file type")
	ErrFileTooLarge = errors.New("file too large")
)

// AttachmentError reports the first attachment rule a request broke.
// Its message is safe to return to the client.
type AttachmentError struct {
	Err      error
	Filename string
}

func (e *AttachmentError) Error() string {
	switch e.Err {
	case ErrTooManyFiles:
		return fmt.Sprintf("Maximum %d files allowed", MaxFiles)
	case ErrFileType:
		return fmt.Sprintf("Invalid file type: %s. Allowed: PDF, JPG, PNG, WebP", e.Filename)
	case ErrFileTooLarge:
		return fmt.Sprintf("File too large: %s. Maximum size is 5MB", e.Filename)
	}
	return e.Err.Error()
}

func (e *AttachmentError) Unwrap() error { return e.Err }

// Attachments checks the file count first, then each file in order.
// Zero-byte files are skipped without error; the returned slice holds the
// accepted non-empty files.
func Attachments(files []models.Attachment) ([]models.Attachment, error) {
	if len(files) > MaxFiles {
		return nil, &AttachmentError{Err: ErrTooManyFiles}
	}

	accepted := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		if f.Size == 0 {
			continue
		}
		if !slices.Contains(AllowedFileTypes, f.ContentType) {
			return nil, &AttachmentError{Err: ErrFileType, Filename: f.Filename}
		}
		if f.Size > MaxFileSize {
			return nil, &AttachmentError{Err: ErrFileTooLarge, Filename: f.Filename}
		}
		accepted = append(accepted, f)
	}
	return accepted, nil
}
