package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sales-api/internal/api/middleware"
	"github.com/d60-Lab/sales-api/internal/service"
	"github.com/d60-Lab/sales-api/pkg/response"
)

type createOrderRequest struct {
	PaymentMethod  string `json:"payment_method"`
	BillingAddress string `json:"billing_address" binding:"required"`
}

type updateOrderRequest struct {
	BillingAddress string `json:"billing_address"`
}

// CreateOrder 购物车转订单
// @Summary 用 pending 购物车创建订单（购物车同时锁定）
// @Tags 订单
// @Accept json
// @Produce json
// @Param request body createOrderRequest true "下单信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	order, err := h.orderSvc.Create(c.Request.Context(), middleware.UserID(c), req.PaymentMethod, req.BillingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound), errors.Is(err, service.ErrCartEmpty):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrOpenOrderExists):
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, order)
}

// ListMyOrders 查询我的订单
// @Summary 查询当前用户订单列表（带行项）
// @Tags 订单
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/orders/my [get]
func (h *Handler) ListMyOrders(c *gin.Context) {
	orders, err := h.orderSvc.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, orders)
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid order id")
		return 0, false
	}
	return id, true
}

// GetOrder 查询单个订单
// @Summary 查询订单详情
// @Tags 订单
// @Param id path int true "订单ID"
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.orderSvc.Get(c.Request.Context(), id, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(c, "not your order")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, order)
}

// UpdateOrder 修改账单地址
// @Summary 修改订单账单地址（普通用户仅限 pending_payment）
// @Tags 订单
// @Accept json
// @Param id path int true "订单ID"
// @Param request body updateOrderRequest true "修改内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/orders/{id} [put]
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.orderSvc.UpdateBilling(c.Request.Context(), id, middleware.UserID(c), middleware.IsAdmin(c), req.BillingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(c, "not your order")
		case errors.Is(err, service.ErrInvalidState):
			response.BadRequest(c, "order is not editable any more")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, nil)
}

// CancelOrder 取消订单
// @Summary 取消订单（仅 pending_payment，成功后购物车解锁）
// @Tags 订单
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/orders/{id} [delete]
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	err := h.orderSvc.Cancel(c.Request.Context(), id, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(c, "not your order")
		case errors.Is(err, service.ErrInvalidState):
			response.BadRequest(c, "order is not cancellable")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, nil)
}
