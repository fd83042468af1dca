package service

import (
	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/config"
	"github.com/GazzaBombata/tablebooks/internal/queue"
	"github.com/GazzaBombata/tablebooks/internal/repository"
	"github.com/GazzaBombata/tablebooks/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	User         UserService
	Restaurant   RestaurantService
	Table        TableService
	Availability AvailabilityService
	Reservation  ReservationService
	Export       ExportService
	Calendar     CalendarService
}

// NewService 创建 Service 聚合
// rdb、publisher 允许为 nil，对应能力降级运行
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	publisher *queue.Publisher,
	logger *zap.Logger,
) *Service {
	locks := newRestaurantLocks()
	availability := NewAvailabilityService(repo, rdb, cfg.Booking.AvailabilityTTL, logger)

	return &Service{
		User:         NewUserService(repo, logger),
		Restaurant:   NewRestaurantService(repo, logger),
		Table:        NewTableService(repo, logger),
		Availability: availability,
		Reservation:  NewReservationService(&cfg.Booking, repo, availability, locks, rdb, publisher, logger),
		Export:       NewExportService(repo, logger),
		Calendar:     NewCalendarService(repo, logger),
	}
}
