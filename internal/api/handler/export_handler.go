package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GazzaBombata/tablebooks/internal/service"
	"github.com/GazzaBombata/tablebooks/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReservationBook 导出餐厅预订台账（店主）
// GET /api/v1/restaurants/:id/reservations/export?from=...&to=...
func (h *ExportHandler) ExportReservationBook(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 缺省导出当天
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)

	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			response.BadRequest(c, 10001, "from 格式无效")
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			response.BadRequest(c, 10001, "to 格式无效")
			return
		}
	}
	if !to.After(from) {
		response.BadRequest(c, 10001, "时间区间无效")
		return
	}

	buf, filename, err := h.exportSvc.ExportReservationBook(c.Request.Context(), userID, c.Param("id"), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoReservations):
		response.NotFound(c, 15001, "该时段无预订记录")
	case errors.Is(err, service.ErrRestaurantNotFound):
		response.NotFound(c, 11001, "餐厅不存在")
	case errors.Is(err, service.ErrNotRestaurantOwner):
		response.Forbidden(c, 11002, "无权操作该餐厅")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
