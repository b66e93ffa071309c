package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/internal/repository"
)

var (
	// ErrCartNotFound 用户没有 pending 购物车
	ErrCartNotFound = errors.New("no pending cart for user")
	// ErrCartEmpty 空购物车不能下单
	ErrCartEmpty = errors.New("cart is empty")
	// ErrOpenOrderExists 同一购物车已有未关闭订单
	ErrOpenOrderExists = errors.New("cart already has an open order")
	// ErrNotOwner 非订单归属人且非管理员
	ErrNotOwner = errors.New("order does not belong to user")
)

// OrderService 订单生命周期（创建/查询/编辑/取消），状态结算之外的唯一改动入口
type OrderService interface {
	// Create 把用户的 pending 购物车转成订单并锁定购物车
	Create(ctx context.Context, userID int64, paymentMethod, billingAddress string) (*model.Order, error)

	// ListByUser 查询我的订单（带行项，优先走缓存）
	ListByUser(ctx context.Context, userID int64) ([]*model.Order, error)

	// Get 查询单个订单（校验归属）
	Get(ctx context.Context, orderID, userID int64, isAdmin bool) (*model.Order, error)

	// UpdateBilling 修改账单地址；普通用户仅限 pending_payment 阶段
	UpdateBilling(ctx context.Context, orderID, userID int64, isAdmin bool, billingAddress string) error

	// Cancel 取消订单；仅 pending_payment 允许，成功后购物车解锁回 pending
	Cancel(ctx context.Context, orderID, userID int64, isAdmin bool) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	cache     *OrderCache // 可为 nil
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, cache *OrderCache) OrderService {
	return &orderService{orderRepo: orderRepo, cartRepo: cartRepo, cache: cache}
}

func (s *orderService) Create(ctx context.Context, userID int64, paymentMethod, billingAddress string) (*model.Order, error) {
	cart, err := s.cartRepo.GetPendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("load pending cart: %w", err)
	}
	if len(cart.CartItems) == 0 {
		return nil, ErrCartEmpty
	}

	open, err := s.orderRepo.HasOpenOrder(ctx, cart.CartID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrOpenOrderExists
	}

	if paymentMethod = strings.TrimSpace(paymentMethod); paymentMethod == "" {
		paymentMethod = "VNPAY"
	}
	order := &model.Order{
		CartID:         cart.CartID,
		UserID:         userID,
		PaymentMethod:  paymentMethod,
		BillingAddress: strings.TrimSpace(billingAddress),
		OrderStatus:    model.OrderStatusPendingPayment,
		OrderDate:      time.Now().UTC(),
	}
	if err := s.orderRepo.CreateFromCart(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	order.Cart = cart
	return order, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	if s.cache != nil {
		if orders, ok := s.cache.Get(ctx, userID); ok {
			return orders, nil
		}
	}
	orders, err := s.orderRepo.GetByUserID(ctx, userID, 100)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, orders)
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, orderID, userID int64, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetWithCartItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, ErrNotOwner
	}
	return order, nil
}

func (s *orderService) UpdateBilling(ctx context.Context, orderID, userID int64, isAdmin bool, billingAddress string) error {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.UserID != userID && !isAdmin {
		return ErrNotOwner
	}
	if !isAdmin && order.OrderStatus != model.OrderStatusPendingPayment {
		return ErrInvalidState
	}
	if billingAddress = strings.TrimSpace(billingAddress); billingAddress == "" {
		return nil
	}
	order.BillingAddress = billingAddress
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, order.UserID)
	}
	return nil
}

func (s *orderService) Cancel(ctx context.Context, orderID, userID int64, isAdmin bool) error {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.UserID != userID && !isAdmin {
		return ErrNotOwner
	}
	cancelled, err := s.orderRepo.CancelPending(ctx, orderID)
	if err != nil {
		return err
	}
	if !cancelled {
		// 已支付或已到其他终态，状态保持不变
		return ErrInvalidState
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, order.UserID)
	}
	return nil
}
