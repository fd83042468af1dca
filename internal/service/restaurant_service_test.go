package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/internal/dto"
)

func setupTestRestaurantService() (RestaurantService, *testRepos) {
	repos := newTestRepos()
	svc := NewRestaurantService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

func TestRestaurantService_Create_Success(t *testing.T) {
	svc, repos := setupTestRestaurantService()
	seedRestaurant(repos)

	resp, err := svc.Create(context.Background(), "owner-1", &dto.CreateRestaurantRequest{
		Name:        "聚贤庄",
		OpeningTime: "11:00",
		ClosingTime: "23:00",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.OwnerUserID != "owner-1" {
		t.Errorf("期望 owner_user_id=owner-1，实际=%s", resp.OwnerUserID)
	}
}

func TestRestaurantService_Create_InvalidHours(t *testing.T) {
	svc, repos := setupTestRestaurantService()
	seedRestaurant(repos)

	cases := []struct {
		opening, closing string
	}{
		{"18:00", "02:00"}, // 跨午夜
		{"12:00", "12:00"}, // 零长度
		{"25:00", "12:00"}, // 非法时刻
		{"abc", "12:00"},   // 非法格式
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), "owner-1", &dto.CreateRestaurantRequest{
			Name: "测试", OpeningTime: tc.opening, ClosingTime: tc.closing,
		})
		if !errors.Is(err, ErrInvalidOpeningHours) {
			t.Errorf("营业时间 %s-%s 期望 ErrInvalidOpeningHours，实际: %v", tc.opening, tc.closing, err)
		}
	}
}

func TestRestaurantService_Update_NotOwner(t *testing.T) {
	svc, repos := setupTestRestaurantService()
	seedRestaurant(repos)

	name := "改名"
	_, err := svc.Update(context.Background(), "diner-1", "rest-1", &dto.UpdateRestaurantRequest{Name: &name})
	if !errors.Is(err, ErrNotRestaurantOwner) {
		t.Errorf("期望 ErrNotRestaurantOwner，实际: %v", err)
	}
}

func TestRestaurantService_Update_OpeningHoursNotRetroactive(t *testing.T) {
	svc, repos := setupTestRestaurantService()
	seedRestaurant(repos)
	// 既有预订 [18:00, 20:00)，缩短营业时间到 19:00 不回溯校验
	seedReservation(repos, "res-a", "table-4", dayAt(18, 0), 120)

	closing := "19:00"
	resp, err := svc.Update(context.Background(), "owner-1", "rest-1", &dto.UpdateRestaurantRequest{ClosingTime: &closing})
	if err != nil {
		t.Fatalf("缩短营业时间属管理性编辑，应成功: %v", err)
	}
	if resp.ClosingTime != "19:00" {
		t.Errorf("期望 closing_time=19:00，实际=%s", resp.ClosingTime)
	}
}

func TestRestaurantService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestRestaurantService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrRestaurantNotFound) {
		t.Errorf("期望 ErrRestaurantNotFound，实际: %v", err)
	}
}

func TestRestaurantService_ListByOwner(t *testing.T) {
	svc, repos := setupTestRestaurantService()
	seedRestaurant(repos)

	list, err := svc.ListByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner 应成功: %v", err)
	}
	if len(list) != 1 || list[0].ID != "rest-1" {
		t.Errorf("期望名下1家餐厅 rest-1，实际: %+v", list)
	}
}
