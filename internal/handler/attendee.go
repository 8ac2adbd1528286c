package handler

import (
	"net/http"
	"strconv"

	"drink-ledger/internal/models"
	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// AttendeeHandler 负责同伴（一起喝酒的人）相关接口
type AttendeeHandler struct {
	Attendees    *service.AttendeeService
	RankingLimit int
}

func NewAttendeeHandler(attendees *service.AttendeeService, rankingLimit int) *AttendeeHandler {
	return &AttendeeHandler{Attendees: attendees, RankingLimit: rankingLimit}
}

type attendeeResp struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func toAttendeeResps(list []models.Attendee) []attendeeResp {
	out := make([]attendeeResp, 0, len(list))
	for _, a := range list {
		out = append(out, attendeeResp{ID: a.ID, Name: a.Name})
	}
	return out
}

// CreateAttendee POST /attendees/:date/:name
func (h *AttendeeHandler) CreateAttendee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	a, err := h.Attendees.Create(c.Request.Context(), c.Param("date"), c.Param("name"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Created(c, util.Response{"attendee": attendeeResp{ID: a.ID, Name: a.Name}})
}

// ListFriends 返回当前用户添加过的所有同伴
func (h *AttendeeHandler) ListFriends(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.Attendees.Friends(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"attendees": toAttendeeResps(list)})
}

// ListByDate 返回某天的同伴，日期不存在时为空列表
func (h *AttendeeHandler) ListByDate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	day := c.Param("date")
	if err := util.ValidateDate(day); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "日期格式错误，应为 YYYY-MM-DD")
		return
	}

	list, err := h.Attendees.ByDate(c.Request.Context(), day, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"attendees": toAttendeeResps(list)})
}

// DeleteAttendee DELETE /attendees/:date/:name
func (h *AttendeeHandler) DeleteAttendee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Attendees.Delete(c.Request.Context(), c.Param("date"), c.Param("name"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "删除成功"})
}

// Ranking GET /attendees/stats/:recordType/count?limit=
func (h *AttendeeHandler) Ranking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit := h.RankingLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "limit 不合法")
			return
		}
		limit = n
	}

	counts, err := h.Attendees.NameWithCount(c.Request.Context(), models.RecordType(c.Param("recordType")), user.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"ranking": counts})
}
