package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/internal/repository"
	"github.com/d60-Lab/sales-api/internal/vnpay"
	"github.com/d60-Lab/sales-api/pkg/logger"
)

var (
	// ErrInvalidState 非 pending_payment 订单不能发起支付
	ErrInvalidState = errors.New("order is not pending payment")
	// ErrOrderNotFound 回调引用的订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrAmountMismatch 回调金额与购物车权威金额不一致
	ErrAmountMismatch = errors.New("callback amount does not match order total")
)

// PaymentURLResult 支付链接构建结果（只读操作，不落任何状态）
type PaymentURLResult struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    int64  `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// SettlementResult 一次回调处理的落库结果
type SettlementResult struct {
	OrderID int64
	Status  string // 终态（本次写入或此前已写入的）
	Applied bool   // 本次调用是否真正执行了状态流转并追加流水
}

// Succeeded 订单最终是否支付成功
func (r *SettlementResult) Succeeded() bool { return r.Status == model.OrderStatusPaid }

// PaymentService 支付网关集成与订单结算状态机
type PaymentService interface {
	// BuildPaymentURL 为 pending_payment 订单构建网关跳转地址
	BuildPaymentURL(ctx context.Context, orderID int64, bankCode, clientIP string) (*PaymentURLResult, error)

	// HandleCallback 处理回调（return 与 IPN 两个通道共用）：
	// 验签 -> 还原订单 -> 金额对账 -> 幂等结算
	HandleCallback(ctx context.Context, params map[string]string) (*SettlementResult, error)

	// ListPayments 查询订单的支付流水审计记录
	ListPayments(ctx context.Context, orderID, userID int64, isAdmin bool) ([]*model.Payment, error)
}

type paymentService struct {
	gateway     *vnpay.Gateway
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	cache       *OrderCache // 可为 nil
}

// NewPaymentService 创建支付服务；cache 传 nil 表示不做订单快照缓存
func NewPaymentService(gateway *vnpay.Gateway, orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, cache *OrderCache) PaymentService {
	return &paymentService{gateway: gateway, orderRepo: orderRepo, paymentRepo: paymentRepo, cache: cache}
}

// orderTotal 权威金额：下单时刻购物车行项的 sum(单价×数量)，四舍五入到整数。
// 不信任调用方或网关回传的任何金额。
func orderTotal(order *model.Order) int64 {
	if order.Cart == nil {
		return 0
	}
	var sum float64
	for _, item := range order.Cart.CartItems {
		sum += item.Price * float64(item.Quantity)
	}
	return int64(math.Round(sum))
}

func (s *paymentService) BuildPaymentURL(ctx context.Context, orderID int64, bankCode, clientIP string) (*PaymentURLResult, error) {
	order, err := s.orderRepo.GetWithCartItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if order.OrderStatus != model.OrderStatusPendingPayment {
		return nil, ErrInvalidState
	}

	amount := orderTotal(order)
	payURL := s.gateway.PaymentURL(order.OrderID, amount, clientIP, bankCode, time.Now())

	logger.Info("payment url built",
		zap.Int64("order_id", order.OrderID),
		zap.Int64("amount", amount))

	return &PaymentURLResult{PaymentURL: payURL, OrderID: order.OrderID, Amount: amount}, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, params map[string]string) (*SettlementResult, error) {
	if err := s.gateway.VerifySignature(params); err != nil {
		logger.Warn("callback signature rejected", zap.Error(err))
		return nil, err
	}

	orderID, err := vnpay.CallbackOrderID(params)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetWithCartItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	expected := orderTotal(order)
	got, err := strconv.ParseInt(params[vnpay.FieldAmount], 10, 64)
	if err != nil || got/100 != expected {
		logger.Warn("callback amount mismatch",
			zap.Int64("order_id", orderID),
			zap.String("vnp_amount", params[vnpay.FieldAmount]),
			zap.Int64("expected", expected))
		return nil, ErrAmountMismatch
	}

	rsp := params[vnpay.FieldResponseCode]
	var target, payStatus string
	switch rsp {
	case vnpay.ResponseCodeSuccess:
		target, payStatus = model.OrderStatusPaid, model.PaymentStatusSuccess
	case vnpay.ResponseCodeCustomerCancel:
		target, payStatus = model.OrderStatusCancelled, model.PaymentStatusFail
	default:
		target, payStatus = model.OrderStatusFailed, model.PaymentStatusFail
	}

	// 幂等：已到终态的订单不再流转、不再记流水（两个通道可能并发或重复到达）
	if order.OrderStatus != model.OrderStatusPendingPayment {
		return &SettlementResult{OrderID: orderID, Status: order.OrderStatus}, nil
	}

	payment := &model.Payment{
		OrderID:       orderID,
		Amount:        float64(expected),
		PaymentDate:   time.Now().UTC(),
		PaymentStatus: payStatus,
	}
	applied, err := s.orderRepo.Settle(ctx, orderID, target, payment)
	if err != nil {
		logger.Error("settlement persistence failed",
			zap.Int64("order_id", orderID),
			zap.String("target", target),
			zap.Error(err))
		return nil, fmt.Errorf("settle order %d: %w", orderID, err)
	}
	if !applied {
		// 并发回调抢先落库，回读对方写下的终态
		latest, err := s.orderRepo.GetByOrderID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("reload order %d: %w", orderID, err)
		}
		return &SettlementResult{OrderID: orderID, Status: latest.OrderStatus}, nil
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, order.UserID)
	}
	logger.Info("order settled",
		zap.Int64("order_id", orderID),
		zap.String("status", target),
		zap.String("response_code", rsp))

	return &SettlementResult{OrderID: orderID, Status: target, Applied: true}, nil
}

func (s *paymentService) ListPayments(ctx context.Context, orderID, userID int64, isAdmin bool) ([]*model.Payment, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, ErrNotOwner
	}
	return s.paymentRepo.ListByOrder(ctx, orderID)
}
