package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/service"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// CalendarHandler 日历订阅 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ExportMyCalendar 导出我的预订日历 (iCalendar)
// GET /api/v1/reservations/calendar
func (h *CalendarHandler) ExportMyCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, err := h.calendarSvc.ExportUserCalendar(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=reservations.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
