package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/model"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
)

// ReservationRepository 预订数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	// ListActiveOverlapping 返回与 [windowStart, windowEnd) 半开区间重叠的全部 Active 预订（不限桌型）
	ListActiveOverlapping(ctx context.Context, restaurantID string, windowStart, windowEnd time.Time) ([]model.Reservation, error)
	// Cancel 将 Active 预订置为 Cancelled；目标不存在或已取消时返回 gorm.ErrRecordNotFound
	Cancel(ctx context.Context, id string, cancelledBy string) error
	Update(ctx context.Context, reservation *model.Reservation) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Reservation, int64, error)
	ListByRestaurant(ctx context.Context, restaurantID string, from, to time.Time, offset, limit int) ([]model.Reservation, int64, error)
	CountFutureActiveByTable(ctx context.Context, tableID string, after time.Time) (int64, error)
}

// reservationRepo ReservationRepository 的 GORM 实现
type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Table").
		Preload("Restaurant").
		Where("reservation_id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) ListActiveOverlapping(ctx context.Context, restaurantID string, windowStart, windowEnd time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	// 半开区间重叠: start < windowEnd AND start + duration > windowStart
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND status = ?", restaurantID, model.ReservationStatusActive).
		Where("start_time < ?", windowEnd).
		Where("start_time + duration_minutes * INTERVAL '1 minute' > ?", windowStart).
		Order("start_time ASC, reservation_id ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) Cancel(ctx context.Context, id string, cancelledBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ? AND status = ?", id, model.ReservationStatusActive).
		Updates(map[string]interface{}{
			"status":       model.ReservationStatusCancelled,
			"cancelled_at": gorm.Expr("NOW()"),
			"updated_by":   cancelledBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reservationRepo) Update(ctx context.Context, reservation *model.Reservation) error {
	oldVersion := reservation.Version
	result := r.db.WithContext(ctx).
		Model(reservation).
		Where("reservation_id = ? AND version = ? AND status = ?",
			reservation.ReservationID, oldVersion, model.ReservationStatusActive).
		Updates(map[string]interface{}{
			"table_id":         reservation.TableID,
			"start_time":       reservation.StartTime,
			"duration_minutes": reservation.DurationMinutes,
			"party_size":       reservation.PartySize,
			"special_requests": reservation.SpecialRequests,
			"updated_by":       reservation.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reservation.Version = oldVersion + 1
	return nil
}

func (r *reservationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Reservation, int64, error) {
	var reservations []model.Reservation
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Table").Preload("Restaurant").
		Offset(offset).Limit(limit).
		Order("start_time DESC").
		Find(&reservations).Error
	return reservations, total, err
}

func (r *reservationRepo) ListByRestaurant(ctx context.Context, restaurantID string, from, to time.Time, offset, limit int) ([]model.Reservation, int64, error) {
	var reservations []model.Reservation
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("restaurant_id = ? AND start_time >= ? AND start_time < ?", restaurantID, from, to)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Table").Preload("User").
		Offset(offset).Limit(limit).
		Order("start_time ASC").
		Find(&reservations).Error
	return reservations, total, err
}

func (r *reservationRepo) CountFutureActiveByTable(ctx context.Context, tableID string, after time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("table_id = ? AND status = ?", tableID, model.ReservationStatusActive).
		Where("start_time + duration_minutes * INTERVAL '1 minute' > ?", after).
		Count(&count).Error
	return count, err
}
