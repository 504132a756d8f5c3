package routes

import (
	"net/http"

	"material_lending/app"
	"material_lending/controllers"
	"material_lending/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)

	// 复用的中间件
	authMW := app.AuthRequired(a.AppSessions(), a.Repo)
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, a.Config.SeenThrottle)

	Mount(r, s, authMW, seenMW)
}

// Mount 挂载全部接口；auth 链必须把当前用户写入 app.CtxUser
func Mount(r gin.IRouter, s *controllers.Srv, auth ...gin.HandlerFunc) {
	uc := controllers.NewUserController(s)
	reqCtl := controllers.NewRequisitionController(s)
	revCtl := controllers.NewReviewController(s)

	studentMW := app.RequireRole(models.RoleStudent)
	professorMW := app.RequireRole(models.RoleProfessor)

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	api := r.Group("/api", auth...)
	{
		api.GET("/me", uc.WhoAmI)
		api.POST("/logout", uc.Logout)

		// 目录：所有登录用户可看，学生额外带购物车余量
		api.GET("/categories", reqCtl.Categories)
		api.GET("/catalog", reqCtl.Catalog)
		api.GET("/catalog/:id", reqCtl.Material)

		// 单个申请：可见性由 lending 判断
		api.GET("/requests/:id", reqCtl.Show)
		api.GET("/requests/:id/history", reqCtl.History)
		api.POST("/requests/:id/cancel", reqCtl.Cancel)
	}

	// ------------------------------
	// 学生：购物车与下单
	// ------------------------------
	student := api.Group("", studentMW)
	{
		student.GET("/cart", reqCtl.Cart)
		student.POST("/cart/items", reqCtl.AddItem)
		student.DELETE("/cart/items/:materialId", reqCtl.RemoveItem)
		student.POST("/cart/place", reqCtl.PlaceOrder)
		student.GET("/my/requests", reqCtl.MyRequests)
	}

	// ------------------------------
	// 教授：审批、归还、统计、用户
	// ------------------------------
	admin := api.Group("/admin", professorMW)
	{
		admin.GET("/requests", revCtl.List)
		admin.POST("/requests/:id/confirm", revCtl.Confirm)
		admin.POST("/requests/:id/return", revCtl.Return)
		admin.POST("/requests/:id/cancel", reqCtl.Cancel)
		admin.GET("/overdue", revCtl.Overdue)
		admin.GET("/dashboard", revCtl.Dashboard)

		admin.GET("/users", uc.ListUsers) // ?q=&role=&page=&size=
		admin.GET("/users/:id", uc.GetUser)
		admin.PUT("/users/:id/role", uc.SetRole)
	}
}
