package controllers

import (
	"errors"
	"net/http"

	"material_lending/app"
	"material_lending/lending"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(k lending.Kind) int {
	switch k {
	case lending.KindValidation:
		return http.StatusBadRequest
	case lending.KindNotFound:
		return http.StatusNotFound
	case lending.KindForbidden:
		return http.StatusForbidden
	case lending.KindEmptyCart, lending.KindInsufficientStock, lending.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// 领域错误按类型映射状态码；其他错误只记日志，返回 500
func (s *Srv) fail(c *gin.Context, err error) {
	k := lending.KindOf(err)
	if k == "" {
		s.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": app.H{
			"code":    "internal",
			"message": "internal error",
		}})
		return
	}

	body := app.H{"code": k, "message": err.Error()}
	var de *lending.Error
	var te *lending.TransitionError
	switch {
	case errors.As(err, &te):
		body["entity"] = "request"
		body["id"] = te.RequestID
		body["allowed"] = te.Expected
		body["status"] = te.Actual
	case errors.As(err, &de):
		body["message"] = de.Message
		if de.Entity != "" {
			body["entity"] = de.Entity
		}
		if de.EntityID != 0 {
			body["id"] = de.EntityID
		}
	}
	c.JSON(statusFor(k), app.H{"error": body})
}

// 绑定失败统一按 validation 返回
func (s *Srv) badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": app.H{
		"code":    lending.KindValidation,
		"message": err.Error(),
	}})
}
