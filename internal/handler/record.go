package handler

import (
	"net/http"
	"strconv"

	"drink-ledger/internal/models"
	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// RecordHandler 负责饮酒记录相关接口
type RecordHandler struct {
	Records *service.RecordService
}

func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{Records: records}
}

type createRecordReq struct {
	Date       string  `json:"date" binding:"required"`
	RecordType string  `json:"recordType" binding:"required,oneof=soju beer"`
	Amount     float64 `json:"amount" binding:"required"`
}

type recordResp struct {
	ID         uint              `json:"id"`
	Date       string            `json:"date"`
	RecordType models.RecordType `json:"recordType"`
	Amount     float64           `json:"amount"`
}

// ---------- 记一笔 ----------

func (h *RecordHandler) CreateRecord(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	rec, err := h.Records.Create(c.Request.Context(), models.RecordType(req.RecordType), req.Amount, req.Date, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	util.Created(c, util.Response{
		"record": recordResp{ID: rec.ID, Date: req.Date, RecordType: rec.RecordType, Amount: rec.Amount},
	})
}

// DeleteRecord DELETE /records/:date/:recordType
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	day := c.Param("date")
	if err := util.ValidateDate(day); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "日期格式错误，应为 YYYY-MM-DD")
		return
	}
	recordType := models.RecordType(c.Param("recordType"))
	if !recordType.Valid() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "不支持的酒类")
		return
	}

	if err := h.Records.Delete(c.Request.Context(), day, recordType, user.ID); err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "删除成功"})
}

// ---------- 统计 ----------

// ByYear 返回一年内按月汇总的记录
func (h *RecordHandler) ByYear(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	year, ok := intParam(c, "year")
	if !ok {
		return
	}

	grouped, err := h.Records.GroupedByMonth(c.Request.Context(), year, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"records": grouped})
}

// ByMonth 返回当前用户某月按天分组的记录
func (h *RecordHandler) ByMonth(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	month, ok := intParam(c, "month")
	if !ok {
		return
	}

	grouped, err := h.Records.GroupedByDay(c.Request.Context(), year, month, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"records": grouped})
}

// ByMonthOfUser 查看其他用户某月的记录
func (h *RecordHandler) ByMonthOfUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	month, ok := intParam(c, "month")
	if !ok {
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}

	grouped, err := h.Records.OtherUserGroupedByDay(c.Request.Context(), year, month, uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"records": grouped})
}

// intParam 解析正整数路径参数，失败时返回 400
func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, name+" 不合法")
		return 0, false
	}
	return n, true
}
