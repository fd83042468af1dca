package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/service"
	pkgerrors "github.com/GazzaBombata/tablebooks/pkg/errors"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// TableHandler 桌型模块 HTTP 处理器
type TableHandler struct {
	tableSvc service.TableService
}

// NewTableHandler 创建 TableHandler
func NewTableHandler(tableSvc service.TableService) *TableHandler {
	return &TableHandler{tableSvc: tableSvc}
}

// CreateTable 创建桌型（店主）
// POST /api/v1/restaurants/:id/tables
func (h *TableHandler) CreateTable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	table, err := h.tableSvc.Create(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, table)
}

// ListTables 餐厅桌型列表
// GET /api/v1/restaurants/:id/tables
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.tableSvc.ListByRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, tables)
}

// GetTable 桌型详情
// GET /api/v1/tables/:id
func (h *TableHandler) GetTable(c *gin.Context) {
	table, err := h.tableSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, table)
}

// UpdateTable 更新桌型（店主）
// PUT /api/v1/tables/:id
func (h *TableHandler) UpdateTable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	table, err := h.tableSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, table)
}

// DeleteTable 删除桌型（店主）
// DELETE /api/v1/tables/:id
func (h *TableHandler) DeleteTable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.tableSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *TableHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTableNotFound):
		response.NotFound(c, 12001, "桌型不存在")
	case errors.Is(err, service.ErrInvalidCapacityRange):
		response.BadRequest(c, 12002, "桌型容量区间无效")
	case errors.Is(err, service.ErrTableInUse):
		response.Conflict(c, 12003, "桌型存在未完成的预订，无法变更")
	case errors.Is(err, service.ErrRestaurantNotFound):
		response.NotFound(c, 11001, "餐厅不存在")
	case errors.Is(err, service.ErrNotRestaurantOwner):
		response.Forbidden(c, 11002, "无权操作该餐厅")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12004, "桌型信息已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
