package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// 前端只用 JSON + 会话 Cookie；方法与 routes 中实际挂载的保持一致
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Content-Type"}
)

func useCORS(r *gin.Engine, origin string, extra []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     append([]string{origin}, extra...),
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
