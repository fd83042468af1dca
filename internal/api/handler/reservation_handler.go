package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/service"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// ReservationHandler 预订模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc}
}

// CreateReservation 创建预订
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	reservation, err := h.reservationSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, reservation)
}

// GetReservation 预订详情（本人或店主）
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, reservation)
}

// CancelReservation 取消预订（本人或店主）
// DELETE /api/v1/reservations/:id
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reservationSvc.Cancel(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ModifyReservation 修改预订（本人或店主）
// PUT /api/v1/reservations/:id
func (h *ReservationHandler) ModifyReservation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ModifyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	reservation, err := h.reservationSvc.Modify(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, reservation)
}

// ListMyReservations 我的预订列表
// GET /api/v1/reservations/mine
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	reservations, total, err := h.reservationSvc.ListMine(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, reservations, total, page.GetPage(), page.GetPageSize())
}

// ListRestaurantReservations 餐厅预订列表（店主）
// GET /api/v1/restaurants/:id/reservations?from=...&to=...
func (h *ReservationHandler) ListRestaurantReservations(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ListRestaurantReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	reservations, total, err := h.reservationSvc.ListByRestaurant(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKPage(c, reservations, total, req.GetPage(), req.GetPageSize())
}

func (h *ReservationHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 13001, "预订不存在或已取消")
	case errors.Is(err, service.ErrReservationForbidden):
		response.Forbidden(c, 13002, "无权操作该预订")
	case errors.Is(err, service.ErrInvalidStartTime):
		response.BadRequest(c, 13003, "开始时间格式无效")
	case errors.Is(err, service.ErrStartTimeInPast):
		response.BadRequest(c, 13004, "开始时间不能早于当前时间")
	case errors.Is(err, service.ErrPartySizeTooLarge):
		response.BadRequest(c, 13005, "就餐人数超出上限")
	case errors.Is(err, service.ErrDurationTooLong):
		response.BadRequest(c, 13006, "用餐时长超出上限")
	case errors.Is(err, service.ErrInvalidPartySize):
		response.BadRequest(c, 13010, "就餐人数无效")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 13011, "用餐时长无效")
	case errors.Is(err, service.ErrOutsideOpeningHours):
		response.Conflict(c, 13007, "预订时间不在营业时间内")
	case errors.Is(err, service.ErrNoTableAvailable):
		response.Conflict(c, 13008, "该时段无可用桌位")
	case errors.Is(err, service.ErrInvalidWindow):
		response.BadRequest(c, 14001, "时间窗口无效")
	case errors.Is(err, service.ErrRestaurantNotFound):
		response.NotFound(c, 11001, "餐厅不存在")
	case errors.Is(err, service.ErrNotRestaurantOwner):
		response.Forbidden(c, 11002, "无权操作该餐厅")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13009, "预订已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
