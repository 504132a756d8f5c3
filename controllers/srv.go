// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"material_lending/app"
	"material_lending/db"
	"material_lending/lending"
	"material_lending/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserAdmin 是用户管理用到的仓储方法
type UserAdmin interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, q string, role models.Role, page, size int) (db.ListUsersResult, error)
	SetUserRole(ctx context.Context, userID uint, role models.Role) error
}

// SessionRevoker 删除单个会话或某用户的全部会话
type SessionRevoker interface {
	Delete(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
}

type Srv struct {
	Lending       *lending.Service
	Users         UserAdmin
	AppSess       SessionRevoker
	Log           *zap.Logger
	SecureCookies bool
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Lending:       a.Lending,
		Users:         a.Repo,
		AppSess:       a.AppSessions(),
		Log:           a.Log.Named("api"),
		SecureCookies: a.Config.SecureCookies(),
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie；maxAge < 0 表示删除
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	age := int(maxAge / time.Second)
	if maxAge < 0 {
		age = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.SecureCookies,
		MaxAge:   age,
	})
}

// 路径参数转 uint；失败时已写好 400
func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": app.H{
			"code":    lending.KindValidation,
			"message": "invalid " + name,
		}})
		return 0, false
	}
	return uint(n), true
}

// 查询参数转 uint，空值返回 0
func queryID(c *gin.Context, name string) (uint, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, lending.NewValidationError("", 0, "invalid "+name)
	}
	return uint(n), nil
}

// 解析 YYYY-MM-DD；endOfDay 为真时取当天最后一刻
func queryDate(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	return lending.ParseDay(c.Query(name), endOfDay)
}
