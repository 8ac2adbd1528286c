package middleware

import (
	"net/http"
	"strings"

	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	// CurrentUserKey holds the *models.User of the caller.
	CurrentUserKey = "currentUser"
	// AccessTokenKey holds the raw bearer token of the request.
	AccessTokenKey = "accessToken"
)

// AuthMiddleware 校验 JWT（含黑名单），并在 context 里放入当前用户。
func AuthMiddleware(tokens *service.TokenService, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}

		// 2) URL 查询参数 ?token=xxx（用于导出下载等无法自定义 Header 的场景）
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		userID, err := tokens.UserIDFromToken(ctx, tokenStr, util.TokenTypeAccess)
		if err != nil {
			if service.KindOf(err) == service.KindCredential {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "登录已失效，请重新登录")
			} else {
				_ = c.Error(err)
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "服务器内部错误")
			}
			c.Abort()
			return
		}

		// 已注销的用户即使 token 没过期也不能再访问
		user, err := users.Get(ctx, userID)
		if err != nil {
			if service.KindOf(err) == service.KindNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "用户不存在")
			} else {
				_ = c.Error(err)
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查询用户失败")
			}
			c.Abort()
			return
		}

		c.Set(CurrentUserKey, user)
		c.Set(AccessTokenKey, tokenStr)
		c.Next()
	}
}
