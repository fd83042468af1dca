package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/model"
	"github.com/GazzaBombata/tablebooks/internal/repository"
)

// ── 桌型模块业务错误 ──

var (
	ErrTableNotFound        = errors.New("桌型不存在")
	ErrInvalidCapacityRange = errors.New("桌型容量区间无效")
	ErrTableInUse           = errors.New("桌型存在未完成的预订，无法变更")
)

// TableService 桌位登记管理接口
//
// 缩减容量或删除会使既有预订悬空，因此凡是存在未来 Active 预订的桌型
// 一律拒绝缩减与删除
type TableService interface {
	Create(ctx context.Context, operatorUserID, restaurantID string, req *dto.CreateTableRequest) (*dto.TableResponse, error)
	GetByID(ctx context.Context, tableID string) (*dto.TableResponse, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]dto.TableResponse, error)
	Update(ctx context.Context, operatorUserID, tableID string, req *dto.UpdateTableRequest) (*dto.TableResponse, error)
	Delete(ctx context.Context, operatorUserID, tableID string) error
}

type tableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTableService 创建 TableService 实例
func NewTableService(repo *repository.Repository, logger *zap.Logger) TableService {
	return &tableService{repo: repo, logger: logger}
}

// loadOwnedRestaurant 加载餐厅并校验操作者为店主
func (s *tableService) loadOwnedRestaurant(ctx context.Context, operatorUserID, restaurantID string) (*model.Restaurant, error) {
	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, err
	}
	if restaurant.OwnerUserID != operatorUserID {
		return nil, ErrNotRestaurantOwner
	}
	return restaurant, nil
}

func (s *tableService) Create(ctx context.Context, operatorUserID, restaurantID string, req *dto.CreateTableRequest) (*dto.TableResponse, error) {
	if req.CapacityMin > req.CapacityMax {
		return nil, ErrInvalidCapacityRange
	}

	if _, err := s.loadOwnedRestaurant(ctx, operatorUserID, restaurantID); err != nil {
		return nil, err
	}

	table := &model.Table{
		RestaurantID: restaurantID,
		CapacityMin:  req.CapacityMin,
		CapacityMax:  req.CapacityMax,
		Quantity:     req.Quantity,
	}
	table.CreatedBy = &operatorUserID

	if err := s.repo.Table.Create(ctx, table); err != nil {
		s.logger.Error("创建桌型失败", zap.Error(err))
		return nil, err
	}

	return toTableResponse(table), nil
}

func (s *tableService) GetByID(ctx context.Context, tableID string) (*dto.TableResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("查询桌型失败", zap.Error(err))
		return nil, err
	}
	return toTableResponse(table), nil
}

func (s *tableService) ListByRestaurant(ctx context.Context, restaurantID string) ([]dto.TableResponse, error) {
	if _, err := s.repo.Restaurant.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, err
	}

	tables, err := s.repo.Table.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		s.logger.Error("查询桌型失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TableResponse, 0, len(tables))
	for i := range tables {
		result = append(result, *toTableResponse(&tables[i]))
	}
	return result, nil
}

func (s *tableService) Update(ctx context.Context, operatorUserID, tableID string, req *dto.UpdateTableRequest) (*dto.TableResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("查询桌型失败", zap.Error(err))
		return nil, err
	}

	if _, err := s.loadOwnedRestaurant(ctx, operatorUserID, table.RestaurantID); err != nil {
		return nil, err
	}

	newMin, newMax, newQty := table.CapacityMin, table.CapacityMax, table.Quantity
	if req.CapacityMin != nil {
		newMin = *req.CapacityMin
	}
	if req.CapacityMax != nil {
		newMax = *req.CapacityMax
	}
	if req.Quantity != nil {
		newQty = *req.Quantity
	}
	if newMin > newMax {
		return nil, ErrInvalidCapacityRange
	}

	// 缩减类变更（容量区间收窄或数量减少）可能使既有预订悬空
	shrinking := newMin > table.CapacityMin || newMax < table.CapacityMax || newQty < table.Quantity
	if shrinking {
		count, err := s.repo.Reservation.CountFutureActiveByTable(ctx, tableID, time.Now())
		if err != nil {
			s.logger.Error("统计桌型未来预订失败", zap.Error(err))
			return nil, err
		}
		if count > 0 {
			return nil, ErrTableInUse
		}
	}

	table.CapacityMin = newMin
	table.CapacityMax = newMax
	table.Quantity = newQty
	table.UpdatedBy = &operatorUserID

	if err := s.repo.Table.Update(ctx, table); err != nil {
		return nil, err
	}

	return toTableResponse(table), nil
}

func (s *tableService) Delete(ctx context.Context, operatorUserID, tableID string) error {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		s.logger.Error("查询桌型失败", zap.Error(err))
		return err
	}

	if _, err := s.loadOwnedRestaurant(ctx, operatorUserID, table.RestaurantID); err != nil {
		return err
	}

	count, err := s.repo.Reservation.CountFutureActiveByTable(ctx, tableID, time.Now())
	if err != nil {
		s.logger.Error("统计桌型未来预订失败", zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrTableInUse
	}

	return s.repo.Table.Delete(ctx, tableID, operatorUserID)
}

func toTableResponse(t *model.Table) *dto.TableResponse {
	return &dto.TableResponse{
		ID:           t.TableID,
		RestaurantID: t.RestaurantID,
		CapacityMin:  t.CapacityMin,
		CapacityMax:  t.CapacityMax,
		Quantity:     t.Quantity,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
	}
}
