package repository

import (
	"context"

	"food-ordering-api/models"

	"gorm.io/gorm"
)

type GormRestaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// managerSummary keeps secrets and bookkeeping columns out of joined managers.
func managerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func (r *GormRestaurantRepository) Create(ctx context.Context, rest *models.Restaurant) error {
	return translate(r.db.WithContext(ctx).Omit("Manager", "Menu").Create(rest).Error)
}

func (r *GormRestaurantRepository) GetActive(ctx context.Context, id string) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.WithContext(ctx).
		Preload("Manager", managerSummary).
		Where("id = ? AND is_active = ?", id, true).
		First(&rest).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rest, nil
}

// ListActive returns active restaurants; an empty country means every country.
func (r *GormRestaurantRepository) ListActive(ctx context.Context, country models.Country) ([]models.Restaurant, error) {
	q := r.db.WithContext(ctx).
		Preload("Manager", managerSummary).
		Where("is_active = ?", true)
	if country != "" {
		q = q.Where("country = ?", country)
	}
	var out []models.Restaurant
	err := q.Order("name asc").Find(&out).Error
	return out, translate(err)
}

func (r *GormRestaurantRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a restaurant; rows are never removed.
func (r *GormRestaurantRepository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
