package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/model"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock RestaurantRepository ──

type mockRestaurantRepo struct {
	restaurants map[string]*model.Restaurant
}

func newMockRestaurantRepo() *mockRestaurantRepo {
	return &mockRestaurantRepo{restaurants: make(map[string]*model.Restaurant)}
}

func (m *mockRestaurantRepo) Create(_ context.Context, restaurant *model.Restaurant) error {
	if restaurant.RestaurantID == "" {
		restaurant.RestaurantID = fmt.Sprintf("rest-%d", len(m.restaurants)+1)
	}
	if restaurant.Version == 0 {
		restaurant.Version = 1
	}
	copied := *restaurant
	m.restaurants[restaurant.RestaurantID] = &copied
	return nil
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id string) (*model.Restaurant, error) {
	if r, ok := m.restaurants[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRestaurantRepo) List(_ context.Context, offset, limit int) ([]model.Restaurant, int64, error) {
	var all []model.Restaurant
	for _, r := range m.restaurants {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RestaurantID < all[j].RestaurantID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockRestaurantRepo) ListByOwner(_ context.Context, ownerUserID string) ([]model.Restaurant, error) {
	var result []model.Restaurant
	for _, r := range m.restaurants {
		if r.OwnerUserID == ownerUserID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RestaurantID < result[j].RestaurantID })
	return result, nil
}

func (m *mockRestaurantRepo) Update(_ context.Context, restaurant *model.Restaurant) error {
	current, ok := m.restaurants[restaurant.RestaurantID]
	if !ok || current.Version != restaurant.Version {
		return pkgerrors.ErrOptimisticLock
	}
	restaurant.Version++
	copied := *restaurant
	m.restaurants[restaurant.RestaurantID] = &copied
	return nil
}

func (m *mockRestaurantRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.restaurants, id)
	return nil
}

// ── Mock TableRepository ──

type mockTableRepo struct {
	tables map[string]*model.Table
}

func newMockTableRepo() *mockTableRepo {
	return &mockTableRepo{tables: make(map[string]*model.Table)}
}

func (m *mockTableRepo) Create(_ context.Context, table *model.Table) error {
	if table.TableID == "" {
		table.TableID = fmt.Sprintf("table-%d", len(m.tables)+1)
	}
	if table.Version == 0 {
		table.Version = 1
	}
	copied := *table
	m.tables[table.TableID] = &copied
	return nil
}

func (m *mockTableRepo) GetByID(_ context.Context, id string) (*model.Table, error) {
	if t, ok := m.tables[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTableRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]model.Table, error) {
	var result []model.Table
	for _, t := range m.tables {
		if t.RestaurantID == restaurantID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CapacityMin != result[j].CapacityMin {
			return result[i].CapacityMin < result[j].CapacityMin
		}
		return result[i].TableID < result[j].TableID
	})
	return result, nil
}

func (m *mockTableRepo) Update(_ context.Context, table *model.Table) error {
	current, ok := m.tables[table.TableID]
	if !ok || current.Version != table.Version {
		return pkgerrors.ErrOptimisticLock
	}
	table.Version++
	copied := *table
	m.tables[table.TableID] = &copied
	return nil
}

func (m *mockTableRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.tables, id)
	return nil
}

// ── Mock ReservationRepository ──
//
// 并发安全：并发提交测试需要多个 goroutine 同时读写。
// GetByID / 列表查询复刻真实实现的 Preload，从其他 mock 带出关联

type mockReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	seq          int

	restaurants *mockRestaurantRepo
	tables      *mockTableRepo
	users       *mockUserRepo
}

func newMockReservationRepo(restaurants *mockRestaurantRepo, tables *mockTableRepo, users *mockUserRepo) *mockReservationRepo {
	return &mockReservationRepo{
		reservations: make(map[string]*model.Reservation),
		restaurants:  restaurants,
		tables:       tables,
		users:        users,
	}
}

func (m *mockReservationRepo) attach(r model.Reservation) model.Reservation {
	if rest, ok := m.restaurants.restaurants[r.RestaurantID]; ok {
		copied := *rest
		r.Restaurant = &copied
	}
	if t, ok := m.tables.tables[r.TableID]; ok {
		copied := *t
		r.Table = &copied
	}
	if u, ok := m.users.users[r.UserID]; ok {
		copied := *u
		r.User = &copied
	}
	return r
}

func (m *mockReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reservation.ReservationID == "" {
		m.seq++
		reservation.ReservationID = fmt.Sprintf("res-%d", m.seq)
	}
	if reservation.Version == 0 {
		reservation.Version = 1
	}
	copied := *reservation
	m.reservations[reservation.ReservationID] = &copied
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	attached := m.attach(*r)
	return &attached, nil
}

func (m *mockReservationRepo) ListActiveOverlapping(_ context.Context, restaurantID string, windowStart, windowEnd time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []model.Reservation
	for _, r := range m.reservations {
		if r.RestaurantID != restaurantID || r.Status != model.ReservationStatusActive {
			continue
		}
		if r.Overlaps(windowStart, windowEnd) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ReservationID < result[j].ReservationID
	})
	return result, nil
}

func (m *mockReservationRepo) Cancel(_ context.Context, id string, cancelledBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[id]
	if !ok || r.Status != model.ReservationStatusActive {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	r.Status = model.ReservationStatusCancelled
	r.CancelledAt = &now
	r.UpdatedBy = &cancelledBy
	return nil
}

func (m *mockReservationRepo) Update(_ context.Context, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.reservations[reservation.ReservationID]
	if !ok || current.Version != reservation.Version || current.Status != model.ReservationStatusActive {
		return pkgerrors.ErrOptimisticLock
	}
	reservation.Version++
	copied := *reservation
	copied.Restaurant = nil
	copied.Table = nil
	copied.User = nil
	m.reservations[reservation.ReservationID] = &copied
	return nil
}

func (m *mockReservationRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Reservation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			all = append(all, m.attach(*r))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockReservationRepo) ListByRestaurant(_ context.Context, restaurantID string, from, to time.Time, offset, limit int) ([]model.Reservation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.Reservation
	for _, r := range m.reservations {
		if r.RestaurantID != restaurantID {
			continue
		}
		if r.StartTime.Before(from) || !r.StartTime.Before(to) {
			continue
		}
		all = append(all, m.attach(*r))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockReservationRepo) CountFutureActiveByTable(_ context.Context, tableID string, after time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.reservations {
		if r.TableID == tableID && r.Status == model.ReservationStatusActive && r.EndTime().After(after) {
			count++
		}
	}
	return count, nil
}

// ── 通用辅助 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
