package handler

import "github.com/GazzaBombata/tablebooks/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	User         *UserHandler
	Restaurant   *RestaurantHandler
	Table        *TableHandler
	Availability *AvailabilityHandler
	Reservation  *ReservationHandler
	Export       *ExportHandler
	Calendar     *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		User:         NewUserHandler(svc.User),
		Restaurant:   NewRestaurantHandler(svc.Restaurant),
		Table:        NewTableHandler(svc.Table),
		Availability: NewAvailabilityHandler(svc.Availability),
		Reservation:  NewReservationHandler(svc.Reservation),
		Export:       NewExportHandler(svc.Export),
		Calendar:     NewCalendarHandler(svc.Calendar),
	}
}
