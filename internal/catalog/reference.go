package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/utils/validation"
)

// Reference is the administrator CRUD surface for one lookup table.
// Reads are public; writes need a superuser.
type Reference[T any] struct {
	db     *gorm.DB
	label  string
	order  string
	field  string
	detach func(tx *gorm.DB, id uint) error
}

func (s *Service) Categories() *Reference[model.Category] {
	return &Reference[model.Category]{
		db: s.db, label: "Category", order: "name", field: "name",
		detach: nullListingColumn("category_id"),
	}
}

func (s *Service) Locations() *Reference[model.Location] {
	return &Reference[model.Location]{
		db: s.db, label: "Location", order: "city, name", field: "name",
		detach: nullListingColumn("location_id"),
	}
}

func (s *Service) Amenities() *Reference[model.Amenity] {
	return &Reference[model.Amenity]{
		db: s.db, label: "Amenity", order: "name", field: "name",
		detach: func(tx *gorm.DB, id uint) error {
			return tx.Exec("DELETE FROM listing_amenities WHERE amenity_id = ?", id).Error
		},
	}
}

func (s *Service) PropertyTypes() *Reference[model.PropertyType] {
	return &Reference[model.PropertyType]{
		db: s.db, label: "Property type", order: "name", field: "name",
		detach: nullListingColumn("property_type_id"),
	}
}

func nullListingColumn(column string) func(tx *gorm.DB, id uint) error {
	return func(tx *gorm.DB, id uint) error {
		return tx.Model(&model.Listing{}).Unscoped().Where(column+" = ?", id).
			UpdateColumn(column, gorm.Expr("NULL")).Error
	}
}

func requireSuperuser(actor *model.User) error {
	if actor == nil || !actor.IsSuperuser {
		return apperror.Forbidden("Superuser access required")
	}
	return nil
}

func (r *Reference[T]) List(ctx context.Context) ([]T, error) {
	rows := []T{}
	if err := r.db.WithContext(ctx).Order(r.order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.label, err)
	}
	return rows, nil
}

func (r *Reference[T]) Get(ctx context.Context, id uint) (*T, error) {
	row := new(T)
	if err := r.db.WithContext(ctx).First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(r.label + " not found")
		}
		return nil, err
	}
	return row, nil
}

func (r *Reference[T]) duplicate() error {
	return apperror.Field(r.field, r.label+" with this name already exists.")
}

func (r *Reference[T]) Create(ctx context.Context, actor *model.User, row *T) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	if err := validation.Struct(row); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.duplicate()
		}
		return fmt.Errorf("create %s: %w", r.label, err)
	}
	return nil
}

// Update overwrites every editable column of row id with the values in row.
func (r *Reference[T]) Update(ctx context.Context, actor *model.User, id uint, row *T) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := validation.Struct(row); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		Select("*").Omit("id", "created_at").
		Updates(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.duplicate()
		}
		return fmt.Errorf("update %s: %w", r.label, err)
	}
	return r.db.WithContext(ctx).First(row, id).Error
}

// Delete removes the row after detaching listings that point at it.
func (r *Reference[T]) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.detach(tx, id); err != nil {
			return fmt.Errorf("detach %s: %w", r.label, err)
		}
		res := tx.Delete(new(T), id)
		if res.Error != nil {
			return fmt.Errorf("delete %s: %w", r.label, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound(r.label + " not found")
		}
		return nil
	})
}
