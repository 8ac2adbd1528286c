package handler

import (
	"net/http"

	"drink-ledger/internal/middleware"
	"drink-ledger/internal/models"
	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责当前用户信息、用户列表、修改密码和注销
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type userResp struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func toUserResp(u *models.User) userResp {
	return userResp{ID: u.ID, Username: u.Username}
}

// GetMe 返回当前登录用户信息（需要经过 AuthMiddleware）
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, util.Response{"user": toUserResp(user)})
}

// ListUsers 返回所有未注销的用户
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	list := make([]userResp, 0, len(users))
	for i := range users {
		list = append(list, toUserResp(&users[i]))
	}
	util.Success(c, util.Response{"users": list})
}

// currentUser 取出 AuthMiddleware 放入的用户，取不到时直接返回 401
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.CurrentUserKey)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return nil, false
	}
	return user, true
}

// respondError 按错误类别映射 HTTP 状态码。
// 未分类的错误交给 ErrorLog 记录，不把内部信息返回给客户端。
func respondError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case service.KindConflict:
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
	case service.KindLimit:
		util.Error(c, http.StatusForbidden, util.CodeLimit, err.Error())
	case service.KindCredential:
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, err.Error())
	case service.KindInvalid:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		_ = c.Error(err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "服务器内部错误")
	}
}
