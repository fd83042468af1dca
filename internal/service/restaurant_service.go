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

// ── 餐厅模块业务错误 ──

var (
	ErrRestaurantNotFound  = errors.New("餐厅不存在")
	ErrNotRestaurantOwner  = errors.New("无权操作该餐厅")
	ErrInvalidOpeningHours = errors.New("营业时间无效")
)

// RestaurantService 餐厅管理接口
type RestaurantService interface {
	Create(ctx context.Context, ownerUserID string, req *dto.CreateRestaurantRequest) (*dto.RestaurantResponse, error)
	GetByID(ctx context.Context, restaurantID string) (*dto.RestaurantResponse, error)
	List(ctx context.Context, page *dto.PaginationRequest) ([]dto.RestaurantResponse, int64, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]dto.RestaurantResponse, error)
	Update(ctx context.Context, operatorUserID, restaurantID string, req *dto.UpdateRestaurantRequest) (*dto.RestaurantResponse, error)
	Delete(ctx context.Context, operatorUserID, restaurantID string) error
}

type restaurantService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRestaurantService 创建 RestaurantService 实例
func NewRestaurantService(repo *repository.Repository, logger *zap.Logger) RestaurantService {
	return &restaurantService{repo: repo, logger: logger}
}

// validateOpeningHours 营业时间必须是合法时刻且开门早于关门（同日）
func validateOpeningHours(openingTime, closingTime string) error {
	openMin, err := parseClock(openingTime)
	if err != nil {
		return ErrInvalidOpeningHours
	}
	closeMin, err := parseClock(closingTime)
	if err != nil {
		return ErrInvalidOpeningHours
	}
	if closeMin <= openMin {
		return ErrInvalidOpeningHours
	}
	return nil
}

func (s *restaurantService) Create(ctx context.Context, ownerUserID string, req *dto.CreateRestaurantRequest) (*dto.RestaurantResponse, error) {
	if err := validateOpeningHours(req.OpeningTime, req.ClosingTime); err != nil {
		return nil, err
	}

	owner, err := s.repo.User.GetByID(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	restaurant := &model.Restaurant{
		Name:         req.Name,
		Address:      req.Address,
		OwnerUserID:  owner.UserID,
		Phone:        req.Phone,
		Email:        req.Email,
		CoverPhoto:   req.CoverPhoto,
		ProfilePhoto: req.ProfilePhoto,
		OpeningTime:  req.OpeningTime,
		ClosingTime:  req.ClosingTime,
	}
	restaurant.CreatedBy = &owner.UserID

	if err := s.repo.Restaurant.Create(ctx, restaurant); err != nil {
		s.logger.Error("创建餐厅失败", zap.Error(err))
		return nil, err
	}

	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) GetByID(ctx context.Context, restaurantID string) (*dto.RestaurantResponse, error) {
	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, err
	}
	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) List(ctx context.Context, page *dto.PaginationRequest) ([]dto.RestaurantResponse, int64, error) {
	restaurants, total, err := s.repo.Restaurant.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询餐厅列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RestaurantResponse, 0, len(restaurants))
	for i := range restaurants {
		result = append(result, *toRestaurantResponse(&restaurants[i]))
	}
	return result, total, nil
}

func (s *restaurantService) ListByOwner(ctx context.Context, ownerUserID string) ([]dto.RestaurantResponse, error) {
	restaurants, err := s.repo.Restaurant.ListByOwner(ctx, ownerUserID)
	if err != nil {
		s.logger.Error("查询名下餐厅失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RestaurantResponse, 0, len(restaurants))
	for i := range restaurants {
		result = append(result, *toRestaurantResponse(&restaurants[i]))
	}
	return result, nil
}

func (s *restaurantService) Update(ctx context.Context, operatorUserID, restaurantID string, req *dto.UpdateRestaurantRequest) (*dto.RestaurantResponse, error) {
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

	if req.Name != nil {
		restaurant.Name = *req.Name
	}
	if req.Address != nil {
		restaurant.Address = *req.Address
	}
	if req.Phone != nil {
		restaurant.Phone = *req.Phone
	}
	if req.Email != nil {
		restaurant.Email = *req.Email
	}
	if req.CoverPhoto != nil {
		restaurant.CoverPhoto = *req.CoverPhoto
	}
	if req.ProfilePhoto != nil {
		restaurant.ProfilePhoto = *req.ProfilePhoto
	}
	if req.OpeningTime != nil {
		restaurant.OpeningTime = *req.OpeningTime
	}
	if req.ClosingTime != nil {
		restaurant.ClosingTime = *req.ClosingTime
	}

	// 营业时间调整属管理性编辑，只约束后续预订，不回溯校验既有预订
	if err := validateOpeningHours(restaurant.OpeningTime, restaurant.ClosingTime); err != nil {
		return nil, err
	}

	restaurant.UpdatedBy = &operatorUserID
	if err := s.repo.Restaurant.Update(ctx, restaurant); err != nil {
		return nil, err
	}

	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) Delete(ctx context.Context, operatorUserID, restaurantID string) error {
	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return err
	}

	if restaurant.OwnerUserID != operatorUserID {
		return ErrNotRestaurantOwner
	}

	return s.repo.Restaurant.Delete(ctx, restaurantID, operatorUserID)
}

func toRestaurantResponse(r *model.Restaurant) *dto.RestaurantResponse {
	return &dto.RestaurantResponse{
		ID:           r.RestaurantID,
		Name:         r.Name,
		Address:      r.Address,
		OwnerUserID:  r.OwnerUserID,
		Phone:        r.Phone,
		Email:        r.Email,
		CoverPhoto:   r.CoverPhoto,
		ProfilePhoto: r.ProfilePhoto,
		OpeningTime:  r.OpeningTime,
		ClosingTime:  r.ClosingTime,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
}
