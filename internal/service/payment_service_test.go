package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/config"
	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/internal/repository"
	"github.com/d60-Lab/sales-api/internal/vnpay"
)

const testSecret = "TESTHASHSECRET"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Product{}, &model.Cart{}, &model.CartItem{},
		&model.Order{}, &model.Payment{},
	))
	return db
}

func testGateway(t *testing.T) *vnpay.Gateway {
	t.Helper()
	gw, err := vnpay.NewGateway(config.VnPayConfig{
		TmnCode:            "DEMOTMN1",
		HashSecret:         testSecret,
		PaymentURL:         "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:          "http://localhost:8080/api/v1/payments/vnpay-return",
		FrontendSuccessURL: "http://localhost:3000/payment/success",
		FrontendFailURL:    "http://localhost:3000/payment/fail",
		Locale:             "vn",
		CurrCode:           "VND",
		Version:            "2.1.0",
		Command:            "pay",
		TimeZone:           "Asia/Ho_Chi_Minh",
	})
	require.NoError(t, err)
	return gw
}

// seedOrder 种一个 #42 订单：购物车两行，权威金额 150000
func seedOrder(t *testing.T, db *gorm.DB, status string) *model.Order {
	t.Helper()
	user := model.User{UserID: 1, Username: "u1", Email: "u1@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	cart := model.Cart{CartID: 10, UserID: 1, Status: model.CartStatusLocked}
	require.NoError(t, db.Create(&cart).Error)
	items := []model.CartItem{
		{CartID: 10, ProductID: 1, Quantity: 2, Price: 50000},
		{CartID: 10, ProductID: 2, Quantity: 1, Price: 50000},
	}
	require.NoError(t, db.Create(&items).Error)
	order := model.Order{
		OrderID: 42, CartID: 10, UserID: 1,
		PaymentMethod: "VNPAY", BillingAddress: "1 Le Loi",
		OrderStatus: status,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func newPaymentService(t *testing.T, db *gorm.DB) PaymentService {
	t.Helper()
	return NewPaymentService(testGateway(t), repository.NewOrderRepository(db), repository.NewPaymentRepository(db), nil)
}

// signedNotification 模拟网关签名后的通知参数
func signedNotification(amountMinor int64, orderInfo, responseCode string) map[string]string {
	params := map[string]string{
		vnpay.FieldAmount:       strconv.FormatInt(amountMinor, 10),
		vnpay.FieldOrderInfo:    orderInfo,
		vnpay.FieldResponseCode: responseCode,
		vnpay.FieldTxnRef:       orderInfo + "_1700000000000",
		vnpay.FieldTmnCode:      "DEMOTMN1",
	}
	params[vnpay.FieldSecureHash] = vnpay.HmacSHA512Hex(testSecret, vnpay.BuildVerifyRaw(params))
	return params
}

func paymentRows(t *testing.T, db *gorm.DB, orderID int64) []model.Payment {
	t.Helper()
	var rows []model.Payment
	require.NoError(t, db.Where("order_id = ?", orderID).Find(&rows).Error)
	return rows
}

func orderStatus(t *testing.T, db *gorm.DB, orderID int64) string {
	t.Helper()
	var order model.Order
	require.NoError(t, db.First(&order, "order_id = ?", orderID).Error)
	return order.OrderStatus
}

func TestBuildPaymentURL(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)

	result, err := svc.BuildPaymentURL(context.Background(), 42, "ncb", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.OrderID)
	assert.Equal(t, int64(150000), result.Amount)
	assert.Contains(t, result.PaymentURL, "vnp_Amount=15000000")
	assert.Contains(t, result.PaymentURL, "vnp_OrderInfo=42")
	assert.Contains(t, result.PaymentURL, "vnp_BankCode=NCB")

	// 构建链接是只读操作
	assert.Equal(t, model.OrderStatusPendingPayment, orderStatus(t, db, 42))
	assert.Empty(t, paymentRows(t, db, 42))
}

func TestBuildPaymentURLInvalidState(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPaid)
	svc := newPaymentService(t, db)

	_, err := svc.BuildPaymentURL(context.Background(), 42, "", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBuildPaymentURLOrderNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(t, db)

	_, err := svc.BuildPaymentURL(context.Background(), 999, "", "127.0.0.1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestHandleCallbackSuccessAndIdempotence(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)
	ctx := context.Background()

	params := signedNotification(15000000, "42", vnpay.ResponseCodeSuccess)

	result, err := svc.HandleCallback(ctx, params)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.True(t, result.Succeeded())
	assert.Equal(t, model.OrderStatusPaid, orderStatus(t, db, 42))

	rows := paymentRows(t, db, 42)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusSuccess, rows[0].PaymentStatus)
	assert.Equal(t, float64(150000), rows[0].Amount)

	// 同一通知重放：状态不变，不追加流水，仍然应答成功
	again, err := svc.HandleCallback(ctx, params)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.True(t, again.Succeeded())
	assert.Len(t, paymentRows(t, db, 42), 1)
}

func TestHandleCallbackCustomerCancel(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)

	result, err := svc.HandleCallback(context.Background(),
		signedNotification(15000000, "42", vnpay.ResponseCodeCustomerCancel))
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.OrderStatusCancelled, result.Status)

	rows := paymentRows(t, db, 42)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusFail, rows[0].PaymentStatus)
}

func TestHandleCallbackGenericFailure(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)

	result, err := svc.HandleCallback(context.Background(),
		signedNotification(15000000, "42", "51")) // 余额不足等其他失败码
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, result.Status)

	rows := paymentRows(t, db, 42)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusFail, rows[0].PaymentStatus)
}

func TestHandleCallbackAmountMismatch(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)

	// 签名正确但金额不对：结算不得发生
	_, err := svc.HandleCallback(context.Background(),
		signedNotification(14999900, "42", vnpay.ResponseCodeSuccess))
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.OrderStatusPendingPayment, orderStatus(t, db, 42))
	assert.Empty(t, paymentRows(t, db, 42))
}

func TestHandleCallbackSignatureFailures(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)
	ctx := context.Background()

	// 缺签名
	noSig := signedNotification(15000000, "42", vnpay.ResponseCodeSuccess)
	delete(noSig, vnpay.FieldSecureHash)
	_, err := svc.HandleCallback(ctx, noSig)
	assert.ErrorIs(t, err, vnpay.ErrSignatureMissing)

	// 签名对不上：即使其他字段都合法也拒绝
	badSig := signedNotification(15000000, "42", vnpay.ResponseCodeSuccess)
	sig := badSig[vnpay.FieldSecureHash]
	flip := byte('f')
	if sig[0] == 'f' {
		flip = '0'
	}
	badSig[vnpay.FieldSecureHash] = string(flip) + sig[1:]
	_, err = svc.HandleCallback(ctx, badSig)
	assert.ErrorIs(t, err, vnpay.ErrSignatureInvalid)

	assert.Equal(t, model.OrderStatusPendingPayment, orderStatus(t, db, 42))
	assert.Empty(t, paymentRows(t, db, 42))
}

func TestHandleCallbackMalformedOrderRef(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(t, db)

	_, err := svc.HandleCallback(context.Background(),
		signedNotification(15000000, "not-an-id", vnpay.ResponseCodeSuccess))
	assert.ErrorIs(t, err, vnpay.ErrOrderRefMalformed)
}

func TestHandleCallbackOrderNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(t, db)

	_, err := svc.HandleCallback(context.Background(),
		signedNotification(15000000, "999", vnpay.ResponseCodeSuccess))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestHandleCallbackLateCallbackAfterTerminal(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusCancelled)
	svc := newPaymentService(t, db)

	// 已取消订单迟到的成功通知：状态保持，不记流水
	result, err := svc.HandleCallback(context.Background(),
		signedNotification(15000000, "42", vnpay.ResponseCodeSuccess))
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, model.OrderStatusCancelled, result.Status)
	assert.Empty(t, paymentRows(t, db, 42))
}

func TestOrderTotalRoundsToNearestUnit(t *testing.T) {
	order := &model.Order{Cart: &model.Cart{CartItems: []model.CartItem{
		{Quantity: 3, Price: 33333.4},
	}}}
	assert.Equal(t, int64(100000), orderTotal(order))

	empty := &model.Order{}
	assert.Equal(t, int64(0), orderTotal(empty))
}

func TestListPayments(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	svc := newPaymentService(t, db)
	ctx := context.Background()

	_, err := svc.HandleCallback(ctx, signedNotification(15000000, "42", vnpay.ResponseCodeSuccess))
	require.NoError(t, err)

	rows, err := svc.ListPayments(ctx, 42, 1, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusSuccess, rows[0].PaymentStatus)

	_, err = svc.ListPayments(ctx, 42, 2, false)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = svc.ListPayments(ctx, 999, 1, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSettleCASOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db, model.OrderStatusPendingPayment)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	// 两个竞争的结算只有一个 CAS 生效
	p1 := &model.Payment{OrderID: 42, Amount: 150000, PaymentStatus: model.PaymentStatusSuccess}
	applied, err := repo.Settle(ctx, 42, model.OrderStatusPaid, p1)
	require.NoError(t, err)
	assert.True(t, applied)

	p2 := &model.Payment{OrderID: 42, Amount: 150000, PaymentStatus: model.PaymentStatusFail}
	applied, err = repo.Settle(ctx, 42, model.OrderStatusFailed, p2)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, model.OrderStatusPaid, orderStatus(t, db, 42))
	assert.Len(t, paymentRows(t, db, 42), 1)
}
