package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sales-api/internal/api/middleware"
	"github.com/d60-Lab/sales-api/internal/service"
	"github.com/d60-Lab/sales-api/internal/vnpay"
	"github.com/d60-Lab/sales-api/pkg/response"
)

type createPaymentRequest struct {
	OrderID  int64  `json:"orderId" binding:"required,gt=0"`
	BankCode string `json:"bankCode" binding:"omitempty,bankcode"`
}

// ipnAck IPN 通道应答体。网关靠 RspCode 决定是否重发通知，
// 字段名与取值是对外契约，不能改。
type ipnAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// CreatePaymentURL 构建网关跳转地址
// @Summary 为 pending_payment 订单创建支付链接
// @Tags 支付
// @Accept json
// @Produce json
// @Param request body createPaymentRequest true "订单与可选银行代码"
// @Success 200 {object} response.Response{data=service.PaymentURLResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/payments/vnpay-create [post]
func (h *Handler) CreatePaymentURL(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.paymentSvc.BuildPaymentURL(c.Request.Context(), req.OrderID, req.BankCode, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrInvalidState):
			response.BadRequest(c, "order must be pending_payment")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, result)
}

// queryParams 把回调 query 摊平成 map（同名参数取第一个）
func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

// Return 浏览器回跳通道：只负责把用户带到成功/失败页，结算以 IPN 为准；
// 任何校验失败一律跳失败页。
// @Summary 网关浏览器回跳
// @Tags 支付
// @Success 302
// @Router /api/v1/payments/vnpay-return [get]
func (h *Handler) Return(c *gin.Context) {
	result, err := h.paymentSvc.HandleCallback(c.Request.Context(), queryParams(c))
	if err != nil || !result.Succeeded() {
		c.Redirect(http.StatusFound, h.gateway.FrontendFailURL())
		return
	}
	c.Redirect(http.StatusFound, h.gateway.FrontendSuccessURL(result.OrderID))
}

// IPN 服务端通知通道：永不重定向，按分支返回协议应答码。
// 非 00/02 类应答会触发网关按自己的节奏重发通知。
// @Summary 网关服务端通知
// @Tags 支付
// @Produce json
// @Success 200 {object} ipnAck
// @Router /api/v1/payments/vnpay-ipn [get]
func (h *Handler) IPN(c *gin.Context) {
	result, err := h.paymentSvc.HandleCallback(c.Request.Context(), queryParams(c))
	if err != nil {
		c.JSON(http.StatusOK, ipnAckFor(err))
		return
	}
	ack := ipnAck{RspCode: vnpay.IPNCodeOK, Message: "Payment failed"}
	if result.Succeeded() {
		// 重复通知同样应答成功码，网关停止重发
		ack.Message = "Payment success"
	}
	c.JSON(http.StatusOK, ack)
}

// ListOrderPayments 查询订单支付流水
// @Summary 查询订单的支付流水（append-only 审计记录）
// @Tags 支付
// @Param id path int true "订单ID"
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id}/payments [get]
func (h *Handler) ListOrderPayments(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	rows, err := h.paymentSvc.ListPayments(c.Request.Context(), id, middleware.UserID(c), middleware.IsAdmin(c))
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
	response.Success(c, rows)
}

func ipnAckFor(err error) ipnAck {
	switch {
	case errors.Is(err, vnpay.ErrSignatureMissing):
		return ipnAck{RspCode: vnpay.IPNCodeInvalidSignature, Message: "Missing signature"}
	case errors.Is(err, vnpay.ErrSignatureInvalid):
		return ipnAck{RspCode: vnpay.IPNCodeInvalidSignature, Message: "Invalid signature"}
	case errors.Is(err, vnpay.ErrOrderRefMalformed):
		return ipnAck{RspCode: vnpay.IPNCodeUnknownError, Message: "Invalid order"}
	case errors.Is(err, service.ErrOrderNotFound):
		return ipnAck{RspCode: vnpay.IPNCodeOrderNotFound, Message: "Order not found"}
	case errors.Is(err, service.ErrAmountMismatch):
		return ipnAck{RspCode: vnpay.IPNCodeAmountMismatch, Message: "Invalid amount"}
	default:
		return ipnAck{RspCode: vnpay.IPNCodeUnknownError, Message: "Server error"}
	}
}
