package handler

import (
	"net/http"

	"drink-ledger/internal/middleware"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=4,max=72"`
}

// DeleteAccountReq 注销账户请求，refresh token 一并作废
type DeleteAccountReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePassword 修改当前用户密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	if err := h.Users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "密码已修改"})
}

// DeleteAccount 注销当前账户：作废两个 token，账户标记为已删除
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req DeleteAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	accessToken := c.GetString(middleware.AccessTokenKey)
	if err := h.Users.Delete(c.Request.Context(), user.ID, accessToken, req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "账户已注销"})
}
