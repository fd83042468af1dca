package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/service"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// AvailabilityHandler 可用性模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// GetAvailability 查询餐厅在指定时段的可用桌型
// GET /api/v1/restaurants/:id/availability?party_size=4&window_start=...&window_end=...
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.GetAvailability(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AvailabilityHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWindow):
		response.BadRequest(c, 14001, "时间窗口无效")
	case errors.Is(err, service.ErrRestaurantNotFound):
		response.NotFound(c, 11001, "餐厅不存在")
	default:
		response.InternalError(c)
	}
}
