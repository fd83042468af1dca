package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/config"
	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/model"
)

// ── 测试辅助 ──

func setupTestReservationService() (ReservationService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()

	cfg := &config.BookingConfig{
		MaxPartySize:       12,
		MaxDurationMinutes: 360,
	}
	availability := NewAvailabilityService(repoAgg, nil, 0, logger)
	svc := NewReservationService(cfg, repoAgg, availability, newRestaurantLocks(), nil, nil, logger)
	return svc, repos
}

func createReq(partySize int, start time.Time, durationMinutes int) *dto.CreateReservationRequest {
	return &dto.CreateReservationRequest{
		RestaurantID:    "rest-1",
		PartySize:       partySize,
		StartTime:       start.Format(time.RFC3339),
		DurationMinutes: durationMinutes,
	}
}

// ════════════════════════════════════════════════════════════
// Create 测试
// ════════════════════════════════════════════════════════════

func TestReservationService_Create_Success(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 90))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if resp.TableID != "table-2" {
		t.Errorf("2人应落最小适配 table-2，实际=%s", resp.TableID)
	}
	if resp.Status != model.ReservationStatusActive {
		t.Errorf("期望 status=active，实际=%s", resp.Status)
	}
	if resp.Restaurant == nil || resp.Restaurant.Name != "满福楼" {
		t.Error("响应应带出餐厅信息")
	}
}

func TestReservationService_Create_NoTableAvailable(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)
	// 6人桌唯一一张已被占用
	seedReservation(repos, "res-a", "table-6", dayAt(18, 0), 120)

	_, err := svc.Create(context.Background(), "diner-2", createReq(6, dayAt(19, 0), 60))
	if !errors.Is(err, ErrNoTableAvailable) {
		t.Errorf("期望 ErrNoTableAvailable，实际: %v", err)
	}
}

func TestReservationService_Create_OutsideOpeningHours(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 21:30 + 60分钟跨过 22:00 闭店
	_, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(21, 30), 60))
	if !errors.Is(err, ErrOutsideOpeningHours) {
		t.Errorf("期望 ErrOutsideOpeningHours，实际: %v", err)
	}

	// 21:00 + 60分钟恰好闭店前结束，合法
	if _, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(21, 0), 60)); err != nil {
		t.Errorf("闭店前恰好结束的预订应成功: %v", err)
	}
}

func TestReservationService_Create_Validation(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 开始时间在过去
	past := time.Now().Add(-2 * time.Hour)
	_, err := svc.Create(context.Background(), "diner-1", createReq(2, past, 60))
	if !errors.Is(err, ErrStartTimeInPast) {
		t.Errorf("期望 ErrStartTimeInPast，实际: %v", err)
	}

	// 人数非正
	_, err = svc.Create(context.Background(), "diner-1", createReq(0, dayAt(18, 0), 60))
	if !errors.Is(err, ErrInvalidPartySize) {
		t.Errorf("期望 ErrInvalidPartySize，实际: %v", err)
	}

	// 人数超限
	_, err = svc.Create(context.Background(), "diner-1", createReq(50, dayAt(18, 0), 60))
	if !errors.Is(err, ErrPartySizeTooLarge) {
		t.Errorf("期望 ErrPartySizeTooLarge，实际: %v", err)
	}

	// 时长非正
	_, err = svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 0))
	if !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("期望 ErrInvalidDuration，实际: %v", err)
	}

	// 时长超限
	_, err = svc.Create(context.Background(), "diner-1", createReq(2, dayAt(12, 0), 600))
	if !errors.Is(err, ErrDurationTooLong) {
		t.Errorf("期望 ErrDurationTooLong，实际: %v", err)
	}

	// 时间格式非法
	req := createReq(2, dayAt(18, 0), 60)
	req.StartTime = "2026-13-99"
	_, err = svc.Create(context.Background(), "diner-1", req)
	if !errors.Is(err, ErrInvalidStartTime) {
		t.Errorf("期望 ErrInvalidStartTime，实际: %v", err)
	}

	// 用户不存在
	_, err = svc.Create(context.Background(), "ghost", createReq(2, dayAt(18, 0), 60))
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestReservationService_Create_AdjacentWindows(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 同一张2人桌上 [18:00,20:00) 与 [20:00,21:00) 首尾相接，都应成功
	if _, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 120)); err != nil {
		t.Fatalf("第一单应成功: %v", err)
	}
	resp, err := svc.Create(context.Background(), "diner-2", createReq(2, dayAt(20, 0), 60))
	if err != nil {
		t.Fatalf("相邻时段第二单应成功: %v", err)
	}
	if resp.TableID != "table-2" {
		t.Errorf("相邻时段应复用同一桌型，实际=%s", resp.TableID)
	}
}

// ════════════════════════════════════════════════════════════
// Cancel 测试
// ════════════════════════════════════════════════════════════

func TestReservationService_Cancel_FreesCapacity(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(6, dayAt(18, 0), 120))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	// 6人桌已满，第二单失败
	if _, err := svc.Create(context.Background(), "diner-2", createReq(6, dayAt(18, 30), 60)); !errors.Is(err, ErrNoTableAvailable) {
		t.Fatalf("期望 ErrNoTableAvailable，实际: %v", err)
	}

	// 取消后名额释放
	if err := svc.Cancel(context.Background(), "diner-1", resp.ID); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if _, err := svc.Create(context.Background(), "diner-2", createReq(6, dayAt(18, 30), 60)); err != nil {
		t.Errorf("取消后再预订应成功: %v", err)
	}
}

func TestReservationService_Cancel_Authorization(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	// 无关用户无权取消
	if err := svc.Cancel(context.Background(), "diner-2", resp.ID); !errors.Is(err, ErrReservationForbidden) {
		t.Errorf("期望 ErrReservationForbidden，实际: %v", err)
	}

	// 店主可以取消
	if err := svc.Cancel(context.Background(), "owner-1", resp.ID); err != nil {
		t.Errorf("店主取消应成功: %v", err)
	}
}

func TestReservationService_Cancel_Twice(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if err := svc.Cancel(context.Background(), "diner-1", resp.ID); err != nil {
		t.Fatalf("首次取消应成功: %v", err)
	}
	if err := svc.Cancel(context.Background(), "diner-1", resp.ID); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("重复取消应返回 ErrReservationNotFound，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Modify 测试
// ════════════════════════════════════════════════════════════

func TestReservationService_Modify_Success(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newStart := dayAt(19, 0).Format(time.RFC3339)
	modified, err := svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("Modify 应成功: %v", err)
	}
	if modified.StartTime != newStart {
		t.Errorf("期望开始时间=%s，实际=%s", newStart, modified.StartTime)
	}
	if modified.Status != model.ReservationStatusActive {
		t.Errorf("修改后应保持 active，实际=%s", modified.Status)
	}
}

func TestReservationService_Modify_NonPositiveFields(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	// 显式传 0 的指针字段能穿过绑定层的 omitempty，必须在业务校验处被拦下
	zero := 0
	_, err = svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{
		PartySize: &zero,
	})
	if !errors.Is(err, ErrInvalidPartySize) {
		t.Errorf("期望 ErrInvalidPartySize，实际: %v", err)
	}

	negative := -30
	_, err = svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{
		DurationMinutes: &negative,
	})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("期望 ErrInvalidDuration，实际: %v", err)
	}

	// 校验失败不得触碰存量数据
	after, err := svc.GetByID(context.Background(), "diner-1", resp.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if after.PartySize != 2 || after.DurationMinutes != 60 {
		t.Errorf("校验失败后原预订应保持不变，实际 party_size=%d duration=%d", after.PartySize, after.DurationMinutes)
	}
}

func TestReservationService_Modify_OwnSlotReusable(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 2人桌唯一名额被自己占用，平移半小时仍应落回同一桌
	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 120))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newStart := dayAt(18, 30).Format(time.RFC3339)
	modified, err := svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("自身名额应对重排可见: %v", err)
	}
	if modified.TableID != "table-2" {
		t.Errorf("期望复用 table-2，实际=%s", modified.TableID)
	}
}

func TestReservationService_Modify_ConflictKeepsOriginal(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(6, dayAt(12, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	// 目标时段的6人桌被他人占用
	seedReservation(repos, "res-block", "table-6", dayAt(18, 0), 120)

	newStart := dayAt(18, 30).Format(time.RFC3339)
	_, err = svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{
		StartTime: &newStart,
	})
	if !errors.Is(err, ErrNoTableAvailable) {
		t.Fatalf("期望 ErrNoTableAvailable，实际: %v", err)
	}

	// 修改失败不得影响原预订
	current, err := svc.GetByID(context.Background(), "diner-1", resp.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if current.StartTime != resp.StartTime {
		t.Errorf("修改失败后原时段应保留，期望=%s，实际=%s", resp.StartTime, current.StartTime)
	}
	if current.Status != model.ReservationStatusActive {
		t.Errorf("原预订应仍为 active，实际=%s", current.Status)
	}
}

func TestReservationService_Modify_CancelledReservation(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if err := svc.Cancel(context.Background(), "diner-1", resp.ID); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}

	newSize := 2
	_, err = svc.Modify(context.Background(), "diner-1", resp.ID, &dto.ModifyReservationRequest{PartySize: &newSize})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("已取消预订不可修改，期望 ErrReservationNotFound，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 并发与不变量测试
// ════════════════════════════════════════════════════════════

func TestReservationService_Create_ConcurrentLastSlot(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 6人桌只有1张，8个并发请求抢同一时段，只允许1个成功
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.Create(context.Background(), "diner-1", createReq(6, dayAt(18, 0), 120))
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNoTableAvailable):
			rejected++
		default:
			t.Errorf("预期外的错误: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("期望恰好1个成功，实际=%d", succeeded)
	}
	if rejected != workers-1 {
		t.Errorf("期望%d个被拒，实际=%d", workers-1, rejected)
	}
}

func TestReservationService_NoOverbookingUnderRandomLoad(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	// 随机时段高强度提交后，任意桌型任意时刻的重叠 Active 预订数不得超过桌数
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		startMin := 10*60 + rng.Intn(11*60) // 10:00 ~ 20:59
		duration := 30 + rng.Intn(6)*15     // 30 ~ 105 分钟
		partySize := 1 + rng.Intn(6)
		start := dayAt(startMin/60, startMin%60)

		_, err := svc.Create(context.Background(), "diner-1", createReq(partySize, start, duration))
		if err != nil && !errors.Is(err, ErrNoTableAvailable) && !errors.Is(err, ErrOutsideOpeningHours) {
			t.Fatalf("第%d次提交出现预期外错误: %v", i, err)
		}
	}

	quantities := map[string]int{"table-2": 1, "table-4": 2, "table-6": 1}
	for _, r := range repos.reservation.reservations {
		if r.Status != model.ReservationStatusActive {
			continue
		}
		// 以每条预订的开始时刻为检查点统计同桌重叠数
		overlapping := 0
		for _, other := range repos.reservation.reservations {
			if other.Status != model.ReservationStatusActive || other.TableID != r.TableID {
				continue
			}
			if other.Overlaps(r.StartTime, r.EndTime()) {
				overlapping++
			}
		}
		if overlapping > quantities[r.TableID] {
			t.Fatalf("桌型 %s 在 %s 超订: %d 张重叠预订，桌数=%d",
				r.TableID, r.StartTime.Format("15:04"), overlapping, quantities[r.TableID])
		}
	}
}

// ════════════════════════════════════════════════════════════
// 查询测试
// ════════════════════════════════════════════════════════════

func TestReservationService_GetByID_Authorization(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), "diner-1", resp.ID); err != nil {
		t.Errorf("本人查看应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "owner-1", resp.ID); err != nil {
		t.Errorf("店主查看应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "diner-2", resp.ID); !errors.Is(err, ErrReservationForbidden) {
		t.Errorf("期望 ErrReservationForbidden，实际: %v", err)
	}
}

func TestReservationService_ListMine(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(11+i*2, 0), 60)); err != nil {
			t.Fatalf("第%d单应成功: %v", i, err)
		}
	}
	if _, err := svc.Create(context.Background(), "diner-2", createReq(4, dayAt(12, 0), 60)); err != nil {
		t.Fatalf("diner-2 预订应成功: %v", err)
	}

	list, total, err := svc.ListMine(context.Background(), "diner-1", &dto.PaginationRequest{})
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Errorf("期望3条预订，total=%d len=%d", total, len(list))
	}
}

func TestReservationService_ListByRestaurant_OwnerOnly(t *testing.T) {
	svc, repos := setupTestReservationService()
	seedRestaurant(repos)

	if _, err := svc.Create(context.Background(), "diner-1", createReq(2, dayAt(18, 0), 60)); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	from := dayAt(0, 0).Format(time.RFC3339)
	to := dayAt(23, 59).Format(time.RFC3339)
	req := &dto.ListRestaurantReservationsRequest{From: from, To: to}

	list, total, err := svc.ListByRestaurant(context.Background(), "owner-1", "rest-1", req)
	if err != nil {
		t.Fatalf("店主查询应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("期望1条预订，total=%d len=%d", total, len(list))
	}

	if _, _, err := svc.ListByRestaurant(context.Background(), "diner-1", "rest-1", req); !errors.Is(err, ErrNotRestaurantOwner) {
		t.Errorf("期望 ErrNotRestaurantOwner，实际: %v", err)
	}
}
