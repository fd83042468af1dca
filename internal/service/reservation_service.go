package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/config"
	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/model"
	"github.com/GazzaBombata/tablebooks/internal/queue"
	"github.com/GazzaBombata/tablebooks/internal/repository"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
	"github.com/GazzaBombata/tablebooks/pkg/redis"
)

// ── 预订模块业务错误 ──

var (
	ErrReservationNotFound  = errors.New("预订不存在或已取消")
	ErrReservationForbidden = errors.New("无权操作该预订")
	ErrInvalidStartTime     = errors.New("开始时间格式无效")
	ErrStartTimeInPast      = errors.New("开始时间不能早于当前时间")
	ErrInvalidPartySize     = errors.New("就餐人数无效")
	ErrPartySizeTooLarge    = errors.New("就餐人数超出上限")
	ErrInvalidDuration      = errors.New("用餐时长无效")
	ErrDurationTooLong      = errors.New("用餐时长超出上限")
)

// ReservationService 预订调度接口
//
// 提交协议：先在锁外裁决得到快速失败路径，随后进入该餐厅的临界区
// 重新裁决并落库。锁外裁决结果仅作参考，临界区内的第二次裁决才是
// 落库依据，保证同桌型同时段的 Active 预订数永不超过桌数。
// 单进程内由 restaurantLocks 串行化；多副本部署时需将临界区下沉为
// 数据库可串行化事务，接口不变
type ReservationService interface {
	Create(ctx context.Context, userID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	GetByID(ctx context.Context, operatorUserID, reservationID string) (*dto.ReservationResponse, error)
	Cancel(ctx context.Context, operatorUserID, reservationID string) error
	Modify(ctx context.Context, operatorUserID, reservationID string, req *dto.ModifyReservationRequest) (*dto.ReservationResponse, error)
	ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.ReservationResponse, int64, error)
	ListByRestaurant(ctx context.Context, operatorUserID, restaurantID string, req *dto.ListRestaurantReservationsRequest) ([]dto.ReservationResponse, int64, error)
}

type reservationService struct {
	cfg          *config.BookingConfig
	repo         *repository.Repository
	availability AvailabilityService
	locks        *restaurantLocks
	rdb          *redis.Client
	publisher    *queue.Publisher
	logger       *zap.Logger
}

// NewReservationService 创建 ReservationService 实例
// rdb、publisher 允许为 nil，相应能力降级
func NewReservationService(
	cfg *config.BookingConfig,
	repo *repository.Repository,
	availability AvailabilityService,
	locks *restaurantLocks,
	rdb *redis.Client,
	publisher *queue.Publisher,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		cfg:          cfg,
		repo:         repo,
		availability: availability,
		locks:        locks,
		rdb:          rdb,
		publisher:    publisher,
		logger:       logger,
	}
}

// validateBookingWindow 校验人数、时长与开始时间，返回解析后的窗口
func (s *reservationService) validateBookingWindow(partySize int, startTime string, durationMinutes int) (time.Time, time.Time, error) {
	// 非正值在此兜底拦截：修改请求走指针字段合并，绑定层的 omitempty 拦不住显式的 0
	if partySize < 1 {
		return time.Time{}, time.Time{}, ErrInvalidPartySize
	}
	if partySize > s.cfg.MaxPartySize {
		return time.Time{}, time.Time{}, ErrPartySizeTooLarge
	}
	if durationMinutes < 1 {
		return time.Time{}, time.Time{}, ErrInvalidDuration
	}
	if durationMinutes > s.cfg.MaxDurationMinutes {
		return time.Time{}, time.Time{}, ErrDurationTooLong
	}

	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidStartTime
	}
	if start.Before(time.Now()) {
		return time.Time{}, time.Time{}, ErrStartTimeInPast
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return start, end, nil
}

func (s *reservationService) Create(ctx context.Context, userID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	start, end, err := s.validateBookingWindow(req.PartySize, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 锁外预裁决，让营业时间、无桌可用等失败路径不必排队
	if _, err := s.availability.Resolve(ctx, req.RestaurantID, req.PartySize, start, end); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.RestaurantID)
	defer unlock()

	// 临界区内重新裁决：锁外结果可能已被并发提交推翻
	table, err := s.availability.Resolve(ctx, req.RestaurantID, req.PartySize, start, end)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		UserID:          userID,
		RestaurantID:    req.RestaurantID,
		TableID:         table.TableID,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
		Status:          model.ReservationStatusActive,
		Version:         1,
	}
	reservation.CreatedBy = &userID

	if err := s.repo.Reservation.Create(ctx, reservation); err != nil {
		s.logger.Error("创建预订失败", zap.Error(err))
		return nil, err
	}

	s.invalidateAvailability(ctx, req.RestaurantID)
	s.publishEvent(ctx, queue.RoutingKeyReservationCreated, reservation)

	return s.loadResponse(ctx, reservation.ReservationID)
}

func (s *reservationService) GetByID(ctx context.Context, operatorUserID, reservationID string) (*dto.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return nil, err
	}

	if err := s.authorize(reservation, operatorUserID); err != nil {
		return nil, err
	}

	return toReservationResponse(reservation), nil
}

func (s *reservationService) Cancel(ctx context.Context, operatorUserID, reservationID string) error {
	reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return err
	}

	if err := s.authorize(reservation, operatorUserID); err != nil {
		return err
	}

	unlock := s.locks.Lock(reservation.RestaurantID)
	defer unlock()

	// 幂等：已取消的预订在库层被 status 条件拦下
	if err := s.repo.Reservation.Cancel(ctx, reservationID, operatorUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		s.logger.Error("取消预订失败", zap.Error(err))
		return err
	}

	s.invalidateAvailability(ctx, reservation.RestaurantID)

	reservation.Status = model.ReservationStatusCancelled
	s.publishEvent(ctx, queue.RoutingKeyReservationCancelled, reservation)

	return nil
}

func (s *reservationService) Modify(ctx context.Context, operatorUserID, reservationID string, req *dto.ModifyReservationRequest) (*dto.ReservationResponse, error) {
	current, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return nil, err
	}

	if err := s.authorize(current, operatorUserID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(current.RestaurantID)
	defer unlock()

	// 临界区内"取消重建"：自身占用的名额对本次重排可见。
	// 乐观锁冲突说明加锁前有并发变更落库，重读一次再试；再失败则放弃
	for attempt := 0; attempt < 2; attempt++ {
		reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrReservationNotFound
			}
			s.logger.Error("查询预订失败", zap.Error(err))
			return nil, err
		}
		if reservation.Status != model.ReservationStatusActive {
			return nil, ErrReservationNotFound
		}

		partySize := reservation.PartySize
		if req.PartySize != nil {
			partySize = *req.PartySize
		}
		startTime := reservation.StartTime.Format(time.RFC3339)
		if req.StartTime != nil {
			startTime = *req.StartTime
		}
		durationMinutes := reservation.DurationMinutes
		if req.DurationMinutes != nil {
			durationMinutes = *req.DurationMinutes
		}

		start, end, err := s.validateBookingWindow(partySize, startTime, durationMinutes)
		if err != nil {
			return nil, err
		}

		table, err := s.availability.ResolveExcluding(ctx, reservation.RestaurantID, partySize, start, end, reservationID)
		if err != nil {
			return nil, err
		}

		reservation.TableID = table.TableID
		reservation.StartTime = start
		reservation.DurationMinutes = durationMinutes
		reservation.PartySize = partySize
		if req.SpecialRequests != nil {
			reservation.SpecialRequests = *req.SpecialRequests
		}
		reservation.UpdatedBy = &operatorUserID

		if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) && attempt == 0 {
				continue
			}
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return nil, err
			}
			s.logger.Error("修改预订失败", zap.Error(err))
			return nil, err
		}

		s.invalidateAvailability(ctx, reservation.RestaurantID)
		s.publishEvent(ctx, queue.RoutingKeyReservationModified, reservation)

		return s.loadResponse(ctx, reservationID)
	}

	return nil, pkgerrors.ErrOptimisticLock
}

func (s *reservationService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.ReservationResponse, int64, error) {
	reservations, total, err := s.repo.Reservation.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户预订列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		result = append(result, *toReservationResponse(&reservations[i]))
	}
	return result, total, nil
}

func (s *reservationService) ListByRestaurant(ctx context.Context, operatorUserID, restaurantID string, req *dto.ListRestaurantReservationsRequest) ([]dto.ReservationResponse, int64, error) {
	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, 0, err
	}
	if restaurant.OwnerUserID != operatorUserID {
		return nil, 0, ErrNotRestaurantOwner
	}

	from, to, err := resolveQueryRange(req.From, req.To)
	if err != nil {
		return nil, 0, err
	}

	reservations, total, err := s.repo.Reservation.ListByRestaurant(ctx, restaurantID, from, to, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询餐厅预订列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		result = append(result, *toReservationResponse(&reservations[i]))
	}
	return result, total, nil
}

// ── 内部工具 ──

// authorize 预订本人或餐厅店主可操作
func (s *reservationService) authorize(reservation *model.Reservation, operatorUserID string) error {
	if reservation.UserID == operatorUserID {
		return nil
	}
	if reservation.Restaurant != nil && reservation.Restaurant.OwnerUserID == operatorUserID {
		return nil
	}
	return ErrReservationForbidden
}

// resolveQueryRange 解析查询区间，缺省为当天 [00:00, 次日 00:00)
func resolveQueryRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)

	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidWindow
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidWindow
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return from, to, nil
}

// invalidateAvailability 预订变更后递增餐厅缓存代数，失败仅记日志
func (s *reservationService) invalidateAvailability(ctx context.Context, restaurantID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.BumpAvailabilityGeneration(ctx, restaurantID); err != nil {
		s.logger.Warn("刷新可用性缓存代数失败", zap.Error(err), zap.String("restaurant_id", restaurantID))
	}
}

// publishEvent 发布预订生命周期事件，失败仅记日志不影响主流程
func (s *reservationService) publishEvent(ctx context.Context, routingKey string, reservation *model.Reservation) {
	event := &queue.ReservationEvent{
		ReservationID: reservation.ReservationID,
		UserID:        reservation.UserID,
		RestaurantID:  reservation.RestaurantID,
		TableID:       reservation.TableID,
		StartTime:     reservation.StartTime.Format(time.RFC3339),
		EndTime:       reservation.EndTime().Format(time.RFC3339),
		PartySize:     reservation.PartySize,
		Status:        reservation.Status,
		OccurredAt:    time.Now().Format(time.RFC3339),
	}
	if reservation.Restaurant != nil {
		event.RestaurantName = reservation.Restaurant.Name
	}

	if err := s.publisher.PublishReservationEvent(ctx, routingKey, event); err != nil {
		s.logger.Warn("发布预订事件失败", zap.Error(err), zap.String("routing_key", routingKey))
	}
}

// loadResponse 落库后重新加载，带出关联的桌型与餐厅信息
func (s *reservationService) loadResponse(ctx context.Context, reservationID string) (*dto.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		s.logger.Error("查询预订失败", zap.Error(err))
		return nil, err
	}
	return toReservationResponse(reservation), nil
}

func toReservationResponse(r *model.Reservation) *dto.ReservationResponse {
	resp := &dto.ReservationResponse{
		ID:              r.ReservationID,
		UserID:          r.UserID,
		RestaurantID:    r.RestaurantID,
		TableID:         r.TableID,
		StartTime:       r.StartTime.Format(time.RFC3339),
		EndTime:         r.EndTime().Format(time.RFC3339),
		DurationMinutes: r.DurationMinutes,
		PartySize:       r.PartySize,
		SpecialRequests: r.SpecialRequests,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		cancelled := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelled
	}
	if r.User != nil {
		resp.User = &dto.UserBrief{ID: r.User.UserID, Name: r.User.Name, Email: r.User.Email}
	}
	if r.Restaurant != nil {
		resp.Restaurant = &dto.RestaurantBrief{
			ID:          r.Restaurant.RestaurantID,
			Name:        r.Restaurant.Name,
			Address:     r.Restaurant.Address,
			OpeningTime: r.Restaurant.OpeningTime,
			ClosingTime: r.Restaurant.ClosingTime,
		}
	}
	if r.Table != nil {
		resp.Table = &dto.TableBrief{
			ID:          r.Table.TableID,
			CapacityMin: r.Table.CapacityMin,
			CapacityMax: r.Table.CapacityMax,
			Quantity:    r.Table.Quantity,
		}
	}
	return resp
}
