package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/sales-api/config"
	"github.com/d60-Lab/sales-api/internal/api/middleware"
	"github.com/d60-Lab/sales-api/internal/service"
	"github.com/d60-Lab/sales-api/internal/vnpay"
)

// Handler API 处理器集合
type Handler struct {
	userSvc    service.UserService
	orderSvc   service.OrderService
	paymentSvc service.PaymentService
	gateway    *vnpay.Gateway
}

// New 创建处理器并注册自定义校验规则
func New(userSvc service.UserService, orderSvc service.OrderService, paymentSvc service.PaymentService, gateway *vnpay.Gateway) *Handler {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// 银行代码：字母数字，最长 20（大小写在服务端统一转大写）
		_ = v.RegisterValidation("bankcode", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if len(s) > 20 {
				return false
			}
			for _, r := range s {
				if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
					return false
				}
			}
			return true
		})
	}
	return &Handler{userSvc: userSvc, orderSvc: orderSvc, paymentSvc: paymentSvc, gateway: gateway}
}

// RegisterRoutes 挂载路由；网关回调接口不鉴权（靠签名），其余业务接口走 JWT
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtCfg config.JWTConfig) {
	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("/vnpay-create",
			middleware.Auth(jwtCfg),
			middleware.RateLimit(10, 20),
			h.CreatePaymentURL)
		payments.GET("/vnpay-return", h.Return)
		payments.GET("/vnpay-ipn", h.IPN)
	}

	orders := v1.Group("/orders", middleware.Auth(jwtCfg))
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/my", h.ListMyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.CancelOrder)
		orders.GET("/:id/payments", h.ListOrderPayments)
	}
}
