package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/model"
	"github.com/GazzaBombata/tablebooks/internal/repository"
	"github.com/GazzaBombata/tablebooks/pkg/redis"
)

// ── 可用性模块业务错误 ──

var (
	ErrInvalidWindow       = errors.New("时间窗口无效")
	ErrOutsideOpeningHours = errors.New("预订时间不在营业时间内")
	ErrNoTableAvailable    = errors.New("该时段无可用桌位")
)

// AvailabilityService 可用性查询与冲突裁决接口
//
// 全部方法只读不写，可在提交临界区内安全地重复执行。
// 候选桌型采用最小适配策略：优先容量上限最小的可容纳桌型，
// 同容量按桌型 ID 升序保证结果确定
type AvailabilityService interface {
	// FreeCapacity 桌型在窗口内的剩余容量 = quantity - 重叠 Active 预订数
	FreeCapacity(ctx context.Context, restaurantID, tableID string, windowStart, windowEnd time.Time) (int, error)
	// FreeCapacityExcluding 同 FreeCapacity，但排除指定预订（修改预订时的"取消重建"视角）
	FreeCapacityExcluding(ctx context.Context, restaurantID, tableID string, windowStart, windowEnd time.Time, excludeReservationID string) (int, error)
	// Candidates 可容纳 partySize 且有剩余容量的桌型，按最小适配排序
	Candidates(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time) ([]model.Table, error)
	// Resolve 校验营业时间并返回首个候选桌型
	Resolve(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time) (*model.Table, error)
	// ResolveExcluding 同 Resolve，但容量统计排除指定预订
	ResolveExcluding(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time, excludeReservationID string) (*model.Table, error)
	// GetAvailability 面向调用方的可用性查询（带 Redis 缓存）
	GetAvailability(ctx context.Context, restaurantID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
// rdb 为 nil 时不启用缓存
func NewAvailabilityService(repo *repository.Repository, rdb *redis.Client, cacheTTL time.Duration, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, rdb: rdb, ttl: cacheTTL, logger: logger}
}

// ── 时刻工具 ──

// parseClock 解析 "HH:MM"（或 "HH:MM:SS"）为当日分钟数
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("无效的时刻格式 %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("无效的时刻格式 %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的时刻格式 %q", s)
	}
	return h*60 + m, nil
}

// minuteOfDay 取时间戳在本地时区当日内的分钟数
// 统一折算到进程本地时区，同一时刻不同偏移量写法结果一致
func minuteOfDay(t time.Time) int {
	local := t.In(time.Local)
	return local.Hour()*60 + local.Minute()
}

// withinOpeningHours 校验 [windowStart, windowEnd) 是否完整落在营业时间内
// 跨午夜的营业区间与预订均不支持
func withinOpeningHours(restaurant *model.Restaurant, windowStart, windowEnd time.Time) (bool, error) {
	openMin, err := parseClock(restaurant.OpeningTime)
	if err != nil {
		return false, err
	}
	closeMin, err := parseClock(restaurant.ClosingTime)
	if err != nil {
		return false, err
	}
	if closeMin <= openMin {
		// 跨午夜营业不在支持范围内
		return false, nil
	}

	startMin := minuteOfDay(windowStart)
	endMin := startMin + int(windowEnd.Sub(windowStart).Minutes())

	return startMin >= openMin && endMin <= closeMin, nil
}

// overlaps 半开区间重叠判定
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ── 实现 ──

// freeCountByTable 加载餐厅全部桌型及窗口内每个桌型的剩余容量
func (s *availabilityService) freeCountByTable(ctx context.Context, restaurantID string, windowStart, windowEnd time.Time, excludeReservationID string) ([]model.Table, map[string]int, error) {
	tables, err := s.repo.Table.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		s.logger.Error("查询桌型失败", zap.Error(err))
		return nil, nil, err
	}

	reservations, err := s.repo.Reservation.ListActiveOverlapping(ctx, restaurantID, windowStart, windowEnd)
	if err != nil {
		s.logger.Error("查询重叠预订失败", zap.Error(err))
		return nil, nil, err
	}

	occupied := make(map[string]int)
	for i := range reservations {
		r := &reservations[i]
		if r.ReservationID == excludeReservationID {
			continue
		}
		// 防御库层查询口径变化，内存侧再做一次半开区间判定
		if !overlaps(r.StartTime, r.EndTime(), windowStart, windowEnd) {
			continue
		}
		occupied[r.TableID]++
	}

	free := make(map[string]int, len(tables))
	for i := range tables {
		t := &tables[i]
		free[t.TableID] = t.Quantity - occupied[t.TableID]
	}

	return tables, free, nil
}

func (s *availabilityService) FreeCapacity(ctx context.Context, restaurantID, tableID string, windowStart, windowEnd time.Time) (int, error) {
	return s.FreeCapacityExcluding(ctx, restaurantID, tableID, windowStart, windowEnd, "")
}

func (s *availabilityService) FreeCapacityExcluding(ctx context.Context, restaurantID, tableID string, windowStart, windowEnd time.Time, excludeReservationID string) (int, error) {
	if !windowEnd.After(windowStart) {
		return 0, ErrInvalidWindow
	}

	_, free, err := s.freeCountByTable(ctx, restaurantID, windowStart, windowEnd, excludeReservationID)
	if err != nil {
		return 0, err
	}

	n, ok := free[tableID]
	if !ok {
		return 0, ErrTableNotFound
	}
	return n, nil
}

func (s *availabilityService) Candidates(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time) ([]model.Table, error) {
	return s.candidates(ctx, restaurantID, partySize, windowStart, windowEnd, "")
}

func (s *availabilityService) candidates(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time, excludeReservationID string) ([]model.Table, error) {
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidWindow
	}

	tables, free, err := s.freeCountByTable(ctx, restaurantID, windowStart, windowEnd, excludeReservationID)
	if err != nil {
		return nil, err
	}

	result := make([]model.Table, 0, len(tables))
	for i := range tables {
		t := tables[i]
		if t.Seats(partySize) && free[t.TableID] > 0 {
			result = append(result, t)
		}
	}

	// 最小适配：capacity_max 升序，桌型 ID 升序打破平局
	sort.Slice(result, func(i, j int) bool {
		if result[i].CapacityMax != result[j].CapacityMax {
			return result[i].CapacityMax < result[j].CapacityMax
		}
		return result[i].TableID < result[j].TableID
	})

	return result, nil
}

func (s *availabilityService) Resolve(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time) (*model.Table, error) {
	return s.ResolveExcluding(ctx, restaurantID, partySize, windowStart, windowEnd, "")
}

func (s *availabilityService) ResolveExcluding(ctx context.Context, restaurantID string, partySize int, windowStart, windowEnd time.Time, excludeReservationID string) (*model.Table, error) {
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidWindow
	}

	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, err
	}

	ok, err := withinOpeningHours(restaurant, windowStart, windowEnd)
	if err != nil {
		s.logger.Error("解析营业时间失败", zap.Error(err), zap.String("restaurant_id", restaurantID))
		return nil, err
	}
	if !ok {
		return nil, ErrOutsideOpeningHours
	}

	candidates, err := s.candidates(ctx, restaurantID, partySize, windowStart, windowEnd, excludeReservationID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoTableAvailable
	}

	return &candidates[0], nil
}

func (s *availabilityService) GetAvailability(ctx context.Context, restaurantID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	windowStart, err := time.Parse(time.RFC3339, req.WindowStart)
	if err != nil {
		return nil, ErrInvalidWindow
	}
	windowEnd, err := time.Parse(time.RFC3339, req.WindowEnd)
	if err != nil {
		return nil, ErrInvalidWindow
	}
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidWindow
	}

	// 餐厅存在性检查（读穿透查询）
	if _, err := s.repo.Restaurant.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, err
	}

	// ── 缓存读取 ──
	// 键包含餐厅当前代数，预订变更递增代数使旧键失效
	var cacheKey string
	if s.rdb != nil {
		gen, err := s.rdb.AvailabilityGeneration(ctx, restaurantID)
		if err == nil {
			cacheKey = fmt.Sprintf("avail:%s:%d:%d:%d:%d",
				restaurantID, gen, req.PartySize, windowStart.Unix(), windowEnd.Unix())
			if payload, hit, err := s.rdb.GetCachedAvailability(ctx, cacheKey); err == nil && hit {
				var resp dto.AvailabilityResponse
				if json.Unmarshal(payload, &resp) == nil {
					return &resp, nil
				}
			}
		}
	}

	tables, free, err := s.freeCountByTable(ctx, restaurantID, windowStart, windowEnd, "")
	if err != nil {
		return nil, err
	}

	list := make([]dto.TableAvailability, 0, len(tables))
	for i := range tables {
		t := tables[i]
		if !t.Seats(req.PartySize) || free[t.TableID] <= 0 {
			continue
		}
		list = append(list, dto.TableAvailability{
			TableID:     t.TableID,
			CapacityMin: t.CapacityMin,
			CapacityMax: t.CapacityMax,
			Quantity:    t.Quantity,
			FreeCount:   free[t.TableID],
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CapacityMax != list[j].CapacityMax {
			return list[i].CapacityMax < list[j].CapacityMax
		}
		return list[i].TableID < list[j].TableID
	})

	resp := &dto.AvailabilityResponse{
		RestaurantID: restaurantID,
		WindowStart:  windowStart.Format(time.RFC3339),
		WindowEnd:    windowEnd.Format(time.RFC3339),
		PartySize:    req.PartySize,
		Tables:       list,
	}

	// ── 缓存写入（失败不影响查询结果）──
	if s.rdb != nil && cacheKey != "" {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.CacheAvailability(ctx, cacheKey, payload, s.ttl); err != nil {
				s.logger.Warn("写入可用性缓存失败", zap.Error(err))
			}
		}
	}

	return resp, nil
}
