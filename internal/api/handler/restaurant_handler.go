package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/service"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// RestaurantHandler 餐厅模块 HTTP 处理器
type RestaurantHandler struct {
	restaurantSvc service.RestaurantService
}

// NewRestaurantHandler 创建 RestaurantHandler
func NewRestaurantHandler(restaurantSvc service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantSvc: restaurantSvc}
}

// CreateRestaurant 创建餐厅（店主）
// POST /api/v1/restaurants
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	restaurant, err := h.restaurantSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, restaurant)
}

// GetRestaurant 餐厅详情
// GET /api/v1/restaurants/:id
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.restaurantSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, restaurant)
}

// ListRestaurants 餐厅列表
// GET /api/v1/restaurants
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	restaurants, total, err := h.restaurantSvc.List(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, restaurants, total, page.GetPage(), page.GetPageSize())
}

// ListMyRestaurants 名下餐厅列表（店主）
// GET /api/v1/restaurants/mine
func (h *RestaurantHandler) ListMyRestaurants(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	restaurants, err := h.restaurantSvc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, restaurants)
}

// UpdateRestaurant 更新餐厅（店主）
// PUT /api/v1/restaurants/:id
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	restaurant, err := h.restaurantSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, restaurant)
}

// DeleteRestaurant 删除餐厅（店主）
// DELETE /api/v1/restaurants/:id
func (h *RestaurantHandler) DeleteRestaurant(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.restaurantSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *RestaurantHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRestaurantNotFound):
		response.NotFound(c, 11001, "餐厅不存在")
	case errors.Is(err, service.ErrNotRestaurantOwner):
		response.Forbidden(c, 11002, "无权操作该餐厅")
	case errors.Is(err, service.ErrInvalidOpeningHours):
		response.BadRequest(c, 11003, "营业时间无效")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 11004, "餐厅信息已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
