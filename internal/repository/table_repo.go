package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/model"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
)

// TableRepository 桌型数据访问接口
// ListByRestaurant 按 capacity_min 升序返回，顺序稳定（桌位登记表契约）
type TableRepository interface {
	Create(ctx context.Context, table *model.Table) error
	GetByID(ctx context.Context, id string) (*model.Table, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Table, error)
	Update(ctx context.Context, table *model.Table) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// tableRepo TableRepository 的 GORM 实现
type tableRepo struct {
	db *gorm.DB
}

// NewTableRepo 创建 TableRepository 实例
func NewTableRepo(db *gorm.DB) TableRepository {
	return &tableRepo{db: db}
}

func (r *tableRepo) Create(ctx context.Context, table *model.Table) error {
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *tableRepo) GetByID(ctx context.Context, id string) (*model.Table, error) {
	var table model.Table
	err := r.db.WithContext(ctx).
		Where("table_id = ?", id).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Table, error) {
	var tables []model.Table
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("capacity_min ASC, table_id ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepo) Update(ctx context.Context, table *model.Table) error {
	oldVersion := table.Version
	result := r.db.WithContext(ctx).
		Model(table).
		Where("table_id = ? AND version = ?", table.TableID, oldVersion).
		Updates(map[string]interface{}{
			"capacity_min": table.CapacityMin,
			"capacity_max": table.CapacityMax,
			"quantity":     table.Quantity,
			"updated_by":   table.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	table.Version = oldVersion + 1
	return nil
}

func (r *tableRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("table_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
