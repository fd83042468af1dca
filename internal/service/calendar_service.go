package service

import (
	"bytes"
	"context"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/internal/model"
	"github.com/GazzaBombata/tablebooks/internal/repository"
)

// 单份日历携带的预订数量上限
const calendarMaxEvents = 500

// CalendarService 日历订阅业务接口
//
// 将用户的有效预订生成标准 iCalendar (RFC 5545) 内容，
// 供日历客户端导入或订阅。取消的预订不进入日历
type CalendarService interface {
	// ExportUserCalendar 生成用户预订日历
	ExportUserCalendar(ctx context.Context, userID string) (*bytes.Buffer, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

func (s *calendarService) ExportUserCalendar(ctx context.Context, userID string) (*bytes.Buffer, error) {
	reservations, _, err := s.repo.Reservation.ListByUser(ctx, userID, 0, calendarMaxEvents)
	if err != nil {
		s.logger.Error("查询用户预订失败", zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tablebooks//reservation calendar//CN")

	for i := range reservations {
		r := &reservations[i]
		if r.Status != model.ReservationStatusActive {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@tablebooks", r.ReservationID))
		event.SetDtStampTime(r.UpdatedAt)
		event.SetStartAt(r.StartTime)
		event.SetEndAt(r.EndTime())

		summary := fmt.Sprintf("餐厅预订 · %d人", r.PartySize)
		if r.Restaurant != nil {
			summary = fmt.Sprintf("%s · %d人", r.Restaurant.Name, r.PartySize)
			if r.Restaurant.Address != "" {
				event.SetLocation(r.Restaurant.Address)
			}
		}
		event.SetSummary(summary)

		if r.SpecialRequests != "" {
			event.SetDescription(r.SpecialRequests)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, nil
}
