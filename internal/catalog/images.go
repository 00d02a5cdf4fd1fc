package catalog

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/storage"
	imageutil "estatehub_backend/pkg/utils/image"
	"estatehub_backend/pkg/utils/validation"
)

// storeImages re-encodes and uploads files, then inserts their rows. The
// first file becomes main unless the listing already has one. Keys written
// to the store are returned even on error so the caller can remove them.
func (s *Service) storeImages(ctx context.Context, tx *gorm.DB, l *model.Listing, files []*multipart.FileHeader, firstOrder int, hasMain bool) ([]model.ListingImage, []string, error) {
	var keys []string
	rows := make([]model.ListingImage, 0, len(files))
	for i, fh := range files {
		processed, err := imageutil.ProcessFile(fh)
		if err != nil {
			return nil, keys, apperror.Field("images", fmt.Sprintf("%s: upload a valid image.", fh.Filename))
		}

		key := storage.ListingImageKey(l.Slug, "image"+processed.Ext)
		if err := s.store.Put(ctx, key, processed.Body, processed.ContentType); err != nil {
			return nil, keys, fmt.Errorf("store image: %w", err)
		}
		keys = append(keys, key)

		rows = append(rows, model.ListingImage{
			ListingID: l.ID,
			ImageKey:  key,
			AltText:   l.Title,
			IsMain:    !hasMain && i == 0,
			SortOrder: firstOrder + i,
		})
	}
	if len(rows) == 0 {
		return rows, keys, nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, keys, fmt.Errorf("save images: %w", err)
	}
	return rows, keys, nil
}

// promoteFirst makes the earliest remaining image of a listing its main one.
func promoteFirst(tx *gorm.DB, listingID uint) error {
	var next model.ListingImage
	err := tx.Where("listing_id = ?", listingID).Order("sort_order, id").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&next).Update("is_main", true).Error
}

// discard removes stored objects best-effort.
func (s *Service) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("could not remove image object")
		}
	}
}

// AddImages appends images to a listing the actor manages.
func (s *Service) AddImages(ctx context.Context, actor *model.User, slug string, files []*multipart.FileHeader) (*model.Listing, error) {
	l, err := s.loadManaged(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperror.Field("images", "Select at least one image.")
	}
	if len(l.Images)+len(files) > validation.MaxListingImages {
		return nil, apperror.Field("images", fmt.Sprintf("Maximum %d images allowed.", validation.MaxListingImages))
	}
	if err := validation.ValidateImages("images", files); err != nil {
		return nil, err
	}

	hasMain := l.MainImage() != nil
	nextOrder := 0
	for _, img := range l.Images {
		if img.SortOrder >= nextOrder {
			nextOrder = img.SortOrder + 1
		}
	}

	var stored []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		_, stored, err = s.storeImages(ctx, tx, l, files, nextOrder, hasMain)
		return err
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}
	return s.reload(ctx, l.ID)
}

// SetMainImage flags one image as the cover, clearing the flag on its
// siblings in the same transaction.
func (s *Service) SetMainImage(ctx context.Context, actor *model.User, slug string, imageID uint) (*model.Listing, error) {
	l, err := s.loadManaged(ctx, actor, slug)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img model.ListingImage
		if err := tx.Where("id = ? AND listing_id = ?", imageID, l.ID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Image not found")
			}
			return err
		}
		if err := tx.Model(&model.ListingImage{}).
			Where("listing_id = ? AND is_main = ?", l.ID, true).
			Update("is_main", false).Error; err != nil {
			return fmt.Errorf("clear main image: %w", err)
		}
		return tx.Model(&img).Update("is_main", true).Error
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, l.ID)
}

// DeleteImage removes an image row and its object. When the main image
// goes, the next image in order takes over.
func (s *Service) DeleteImage(ctx context.Context, actor *model.User, slug string, imageID uint) (*model.Listing, error) {
	l, err := s.loadManaged(ctx, actor, slug)
	if err != nil {
		return nil, err
	}

	var key string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img model.ListingImage
		if err := tx.Where("id = ? AND listing_id = ?", imageID, l.ID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Image not found")
			}
			return err
		}
		if err := tx.Delete(&img).Error; err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		key = img.ImageKey

		if !img.IsMain {
			return nil
		}
		return promoteFirst(tx, l.ID)
	})
	if err != nil {
		return nil, err
	}
	s.discard(ctx, []string{key})
	return s.reload(ctx, l.ID)
}
