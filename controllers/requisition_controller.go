// controllers/requisition_controller.go
package controllers

import (
	"net/http"
	"strings"

	"material_lending/app"
	"material_lending/lending"

	"github.com/gin-gonic/gin"
)

// RequisitionController 学生侧：浏览目录、购物车、下单、我的申请
type RequisitionController struct{ *Srv }

func NewRequisitionController(s *Srv) *RequisitionController {
	return &RequisitionController{Srv: s}
}

// GET /api/catalog?categoryId=&q=
func (rc *RequisitionController) Catalog(c *gin.Context) {
	catID, err := queryID(c, "categoryId")
	if err != nil {
		rc.fail(c, err)
		return
	}
	views, err := rc.Lending.Catalog(c.Request.Context(), app.CurrentUser(c), lending.MaterialFilter{
		CategoryID: catID,
		Q:          strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"materials": views})
}

// GET /api/catalog/:id
func (rc *RequisitionController) Material(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := rc.Lending.Material(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/categories
func (rc *RequisitionController) Categories(c *gin.Context) {
	cs, err := rc.Lending.Categories(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cs})
}

// GET /api/cart
func (rc *RequisitionController) Cart(c *gin.Context) {
	cart, err := rc.Lending.CartFor(c.Request.Context(), app.CurrentUser(c))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /api/cart/items
func (rc *RequisitionController) AddItem(c *gin.Context) {
	// 1) 解析请求；数量和天数的业务校验交给 lending
	var in struct {
		MaterialID uint `json:"materialId" binding:"required"`
		Quantity   int  `json:"quantity"`
		Days       int  `json:"days"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		rc.badInput(c, err)
		return
	}

	// 2) 加入购物车
	cart, err := rc.Lending.AddToCart(c.Request.Context(), app.CurrentUser(c), in.MaterialID, in.Quantity, in.Days)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DELETE /api/cart/items/:materialId
func (rc *RequisitionController) RemoveItem(c *gin.Context) {
	id, ok := paramID(c, "materialId")
	if !ok {
		return
	}
	cart, err := rc.Lending.RemoveFromCart(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /api/cart/place
func (rc *RequisitionController) PlaceOrder(c *gin.Context) {
	req, err := rc.Lending.PlaceOrder(c.Request.Context(), app.CurrentUser(c))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/my/requests
func (rc *RequisitionController) MyRequests(c *gin.Context) {
	rs, err := rc.Lending.MyRequests(c.Request.Context(), app.CurrentUser(c))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": rs})
}

// GET /api/requests/:id（学生只能看自己的）
func (rc *RequisitionController) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := rc.Lending.GetRequest(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/requests/:id/history
func (rc *RequisitionController) History(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	evs, err := rc.Lending.History(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"events": evs})
}

// POST /api/requests/:id/cancel（学生取消自己的草稿/待审；教授可取消任意）
func (rc *RequisitionController) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := rc.Lending.Cancel(c.Request.Context(), app.CurrentUser(c), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
