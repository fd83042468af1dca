package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/model"
	"github.com/GazzaBombata/tablebooks/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoReservations = errors.New("该时段无预订记录")
	ErrExportGenerateFail   = errors.New("生成 Excel 文件失败")
)

// 单次导出的行数上限，超出按时间顺序截断
const exportMaxRows = 5000

// ExportService 导出业务接口
//
// 设计说明：
//   - 面向店主导出指定时段的预订台账 (.xlsx)，用于排班与对账
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 行按 start_time 升序，与餐厅预订列表口径一致
type ExportService interface {
	// ExportReservationBook 导出餐厅预订台账为 Excel
	ExportReservationBook(ctx context.Context, operatorUserID, restaurantID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportReservationBook(ctx context.Context, operatorUserID, restaurantID string, from, to time.Time) (*bytes.Buffer, string, error) {
	// 1. 餐厅与归属校验
	restaurant, err := s.repo.Restaurant.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRestaurantNotFound
		}
		s.logger.Error("查询餐厅失败", zap.Error(err))
		return nil, "", err
	}
	if restaurant.OwnerUserID != operatorUserID {
		return nil, "", ErrNotRestaurantOwner
	}

	// 2. 查询时段内预订
	reservations, _, err := s.repo.Reservation.ListByRestaurant(ctx, restaurantID, from, to, 0, exportMaxRows)
	if err != nil {
		s.logger.Error("查询餐厅预订失败", zap.Error(err))
		return nil, "", err
	}
	if len(reservations) == 0 {
		return nil, "", ErrExportNoReservations
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预订台账"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 8)
	f.SetColWidth(sheetName, "E", "E", 14)
	f.SetColWidth(sheetName, "F", "F", 16)
	f.SetColWidth(sheetName, "G", "G", 10)
	f.SetColWidth(sheetName, "H", "H", 30)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 预订台账 (%s ~ %s)",
		restaurant.Name, from.Format("2006-01-02"), to.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "开始", "结束", "人数", "桌型", "客人", "状态", "备注"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, 2), h)
		f.SetCellStyle(sheetName, cell(col, 2), cell(col, 2), headerStyle)
	}

	// 数据行
	statusNames := map[string]string{
		model.ReservationStatusActive:    "有效",
		model.ReservationStatusCancelled: "已取消",
	}
	row := 3
	for i := range reservations {
		r := &reservations[i]

		tableText := r.TableID
		if r.Table != nil {
			tableText = fmt.Sprintf("%d-%d人桌", r.Table.CapacityMin, r.Table.CapacityMax)
		}
		guestText := r.UserID
		if r.User != nil {
			guestText = r.User.Name
		}

		f.SetCellValue(sheetName, cell("A", row), r.StartTime.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), r.StartTime.Format("15:04"))
		f.SetCellValue(sheetName, cell("C", row), r.EndTime().Format("15:04"))
		f.SetCellValue(sheetName, cell("D", row), r.PartySize)
		f.SetCellValue(sheetName, cell("E", row), tableText)
		f.SetCellValue(sheetName, cell("F", row), guestText)
		f.SetCellValue(sheetName, cell("G", row), statusNames[r.Status])
		f.SetCellValue(sheetName, cell("H", row), r.SpecialRequests)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("预订台账_%s_%s.xlsx", restaurant.Name, from.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
