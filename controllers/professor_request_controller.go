// controllers/professor_request_controller.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"material_lending/app"
	"material_lending/lending"
	"material_lending/models"

	"github.com/gin-gonic/gin"
)

// ReviewController 教授侧：审批、归还、逾期、统计
type ReviewController struct{ *Srv }

func NewReviewController(s *Srv) *ReviewController { return &ReviewController{Srv: s} }

// GET /api/admin/requests?status=pending,reserved&userId=&from=&to=
func (rc *ReviewController) List(c *gin.Context) {
	var f lending.RequestFilter
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, models.Status(s))
		}
	}
	var err error
	if f.UserID, err = queryID(c, "userId"); err != nil {
		rc.fail(c, err)
		return
	}
	if f.RequestedFrom, err = queryDate(c, "from", false); err != nil {
		rc.fail(c, err)
		return
	}
	if f.RequestedTo, err = queryDate(c, "to", true); err != nil {
		rc.fail(c, err)
		return
	}

	rs, err := rc.Lending.ListRequests(c.Request.Context(), app.CurrentUser(c), f)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": rs, "total": len(rs)})
}

// POST /api/admin/requests/:id/confirm
func (rc *ReviewController) Confirm(c *gin.Context) {
	rc.act(c, rc.Lending.ConfirmAndReserve)
}

// POST /api/admin/requests/:id/return
func (rc *ReviewController) Return(c *gin.Context) {
	rc.act(c, rc.Lending.MarkAsReturned)
}

type requestOp func(ctx context.Context, actor *models.User, id uint) (*models.Request, error)

// 状态变更的公共流程：解析 id、执行、返回新状态
func (rc *ReviewController) act(c *gin.Context, op requestOp) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := op(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/admin/overdue
func (rc *ReviewController) Overdue(c *gin.Context) {
	items, err := rc.Lending.Overdue(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items, "total": len(items)})
}

// GET /api/admin/dashboard?from=&to=&categoryIds=1,2
func (rc *ReviewController) Dashboard(c *gin.Context) {
	var f lending.DashboardFilter
	var err error
	if f.From, err = queryDate(c, "from", false); err != nil {
		rc.fail(c, err)
		return
	}
	if f.To, err = queryDate(c, "to", true); err != nil {
		rc.fail(c, err)
		return
	}
	for _, v := range strings.Split(c.Query("categoryIds"), ",") {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			rc.fail(c, lending.NewValidationError("", 0, "invalid categoryIds"))
			return
		}
		f.CategoryIDs = append(f.CategoryIDs, uint(n))
	}

	d, err := rc.Lending.Dashboard(c.Request.Context(), app.CurrentUser(c), f)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
