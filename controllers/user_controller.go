package controllers

import (
	"net/http"
	"strconv"

	"material_lending/app"
	"material_lending/lending"
	"material_lending/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/me
func (uc *UserController) WhoAmI(c *gin.Context) {
	u := app.CurrentUser(c)
	c.JSON(http.StatusOK, app.H{
		"user":        u,
		"isProfessor": u.IsProfessor(),
	})
}

// POST /api/logout：删 Redis 会话，Cookie 置空
func (uc *UserController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = uc.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	uc.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/admin/users?q=alice&role=student&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		uc.fail(c, lending.NewValidationError("", 0, "invalid role"))
		return
	}

	res, err := uc.Users.ListUsers(c.Request.Context(), c.Query("q"), role, page, size)
	if err != nil {
		uc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/admin/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := uc.Users.FindUser(c.Request.Context(), id)
	if err != nil {
		uc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// PUT /api/admin/users/:id/role
func (uc *UserController) SetRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		uc.badInput(c, err)
		return
	}
	if !in.Role.Valid() {
		uc.fail(c, lending.NewValidationError("user", id, "invalid role"))
		return
	}

	// 不允许给自己降级，避免锁死
	me := app.CurrentUser(c)
	if me != nil && me.ID == id && in.Role != models.RoleProfessor {
		uc.fail(c, lending.NewForbiddenError(me.ID, "cannot demote yourself"))
		return
	}

	if err := uc.Users.SetUserRole(c.Request.Context(), id, in.Role); err != nil {
		uc.fail(c, err)
		return
	}
	// ✅ 关键：撤销该用户的所有登录会话，下次登录按新角色
	if err := uc.AppSess.RevokeAllForUser(c.Request.Context(), id); err != nil {
		uc.Log.Warn("revoke sessions failed", zap.Uint("user_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
