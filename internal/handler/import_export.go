package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 把一年的饮酒记录导出为 CSV 或 XLSX
type ExportHandler struct {
	Records *service.RecordService
	Now     func() time.Time
}

func NewExportHandler(records *service.RecordService) *ExportHandler {
	return &ExportHandler{Records: records, Now: time.Now}
}

var exportHeaders = []string{"日期", "酒类", "数量(瓶)"}

var recordTypeText = map[string]string{
	"soju": "烧酒",
	"beer": "啤酒",
}

// rows 读取 ?year= 指定年份（默认今年）的记录
func (h *ExportHandler) rows(c *gin.Context) ([]service.RecordRow, int, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, 0, false
	}

	year := h.Now().Year()
	if s := c.Query("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "year 不合法")
			return nil, 0, false
		}
		year = n
	}

	rows, err := h.Records.ListByYear(c.Request.Context(), year, user.ID)
	if err != nil {
		respondError(c, err)
		return nil, 0, false
	}
	return rows, year, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ExportCSV 导出记录为 CSV
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	rows, year, ok := h.rows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"records_%d.csv\"", year))

	// UTF-8 BOM（让 Excel 正确识别中文）
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(exportHeaders)
	for _, r := range rows {
		_ = writer.Write([]string{r.Date, recordTypeText[string(r.RecordType)], formatAmount(r.Amount)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = c.Error(err)
	}
}

// ExportXLSX 导出记录为 XLSX
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	rows, year, ok := h.rows(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "饮酒记录"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		respondError(c, err)
		return
	}

	// 设置表头
	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, title)
	}

	// 写入数据
	for idx, r := range rows {
		row := idx + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Date)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), recordTypeText[string(r.RecordType)])
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("C%d", row), r.Amount, 1, 64)
	}

	// 设置列宽
	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 10)
	_ = f.SetColWidth(sheetName, "C", "C", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"records_%d.xlsx\"", year))

	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
