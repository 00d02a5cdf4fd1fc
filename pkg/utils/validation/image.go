package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"estatehub_backend/pkg/apperror"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

const (
	MaxImageSize     = 10 * 1024 * 1024 // 10MB
	MaxListingImages = 16
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ValidateImage checks size and extension of a single upload.
func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > MaxImageSize {
		return ErrFileSize
	}
	if !allowedImageExts[filepath.Ext(strings.ToLower(file.Filename))] {
		return ErrFileType
	}
	return nil
}

// ValidateImages reports the first bad upload of a batch as a field error
// on the given form field.
func ValidateImages(field string, files []*multipart.FileHeader) error {
	if len(files) > MaxListingImages {
		return apperror.Field(field, fmt.Sprintf("Maximum %d images allowed.", MaxListingImages))
	}
	for _, f := range files {
		if err := ValidateImage(f); err != nil {
			return apperror.Field(field, fmt.Sprintf("%s: %v", f.Filename, err))
		}
	}
	return nil
}
