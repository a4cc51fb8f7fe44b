package validation

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

const MaxImageSize = 10 << 20

// imageTypes maps accepted extensions to the content types browsers send for them.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ValidateImage checks an uploaded image's size, extension and, when the
// client sent one, its declared content type.
func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > MaxImageSize {
		return ErrFileSize
	}

	want, ok := imageTypes[strings.ToLower(filepath.Ext(file.Filename))]
	if !ok {
		return ErrFileType
	}
	if got := file.Header.Get("Content-Type"); got != "" && got != want && got != "application/octet-stream" {
		return ErrFileType
	}
	return nil
}
