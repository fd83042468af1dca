package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/model"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
)

// RestaurantRepository 餐厅数据访问接口
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
	List(ctx context.Context, offset, limit int) ([]model.Restaurant, int64, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]model.Restaurant, error)
	Update(ctx context.Context, restaurant *model.Restaurant) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// restaurantRepo RestaurantRepository 的 GORM 实现
type restaurantRepo struct {
	db *gorm.DB
}

// NewRestaurantRepo 创建 RestaurantRepository 实例
func NewRestaurantRepo(db *gorm.DB) RestaurantRepository {
	return &restaurantRepo{db: db}
}

func (r *restaurantRepo) Create(ctx context.Context, restaurant *model.Restaurant) error {
	return r.db.WithContext(ctx).Create(restaurant).Error
}

func (r *restaurantRepo) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", id).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepo) List(ctx context.Context, offset, limit int) ([]model.Restaurant, int64, error) {
	var restaurants []model.Restaurant
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Restaurant{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&restaurants).Error; err != nil {
		return nil, 0, err
	}

	return restaurants, total, nil
}

func (r *restaurantRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Restaurant, error) {
	var restaurants []model.Restaurant
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&restaurants).Error
	return restaurants, err
}

func (r *restaurantRepo) Update(ctx context.Context, restaurant *model.Restaurant) error {
	oldVersion := restaurant.Version
	result := r.db.WithContext(ctx).
		Model(restaurant).
		Where("restaurant_id = ? AND version = ?", restaurant.RestaurantID, oldVersion).
		Updates(map[string]interface{}{
			"name":          restaurant.Name,
			"address":       restaurant.Address,
			"phone":         restaurant.Phone,
			"email":         restaurant.Email,
			"cover_photo":   restaurant.CoverPhoto,
			"profile_photo": restaurant.ProfilePhoto,
			"opening_time":  restaurant.OpeningTime,
			"closing_time":  restaurant.ClosingTime,
			"updated_by":    restaurant.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	restaurant.Version = oldVersion + 1
	return nil
}

func (r *restaurantRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Restaurant{}).
		Where("restaurant_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
