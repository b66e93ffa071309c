package vnpay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/d60-Lab/sales-api/config"
)

// vnp_* 参数名（字段名与顺序是网关协议的一部分，不可改）
const (
	FieldVersion      = "vnp_Version"
	FieldCommand      = "vnp_Command"
	FieldTmnCode      = "vnp_TmnCode"
	FieldAmount       = "vnp_Amount"
	FieldCurrCode     = "vnp_CurrCode"
	FieldTxnRef       = "vnp_TxnRef"
	FieldOrderInfo    = "vnp_OrderInfo"
	FieldOrderType    = "vnp_OrderType"
	FieldLocale       = "vnp_Locale"
	FieldReturnURL    = "vnp_ReturnUrl"
	FieldIPAddr       = "vnp_IpAddr"
	FieldCreateDate   = "vnp_CreateDate"
	FieldBankCode     = "vnp_BankCode"
	FieldResponseCode = "vnp_ResponseCode"

	orderTypeBillPayment = "billpayment"
	createDateLayout     = "20060102150405"
)

// 网关回调的业务结果码
const (
	ResponseCodeSuccess        = "00" // 支付成功
	ResponseCodeCustomerCancel = "24" // 用户主动取消
)

// IPN 应答码（网关按应答码决定是否重发通知，属于对外契约）
const (
	IPNCodeOK               = "00"
	IPNCodeOrderNotFound    = "01"
	IPNCodeAmountMismatch   = "04"
	IPNCodeInvalidSignature = "97"
	IPNCodeUnknownError     = "99"
)

var (
	ErrSignatureMissing  = errors.New("vnpay: secure hash missing")
	ErrSignatureInvalid  = errors.New("vnpay: secure hash mismatch")
	ErrOrderRefMalformed = errors.New("vnpay: order info is not an order id")
)

// Gateway 封装网关侧不可变配置与商户时区
type Gateway struct {
	cfg config.VnPayConfig
	loc *time.Location
}

func NewGateway(cfg config.VnPayConfig) (*Gateway, error) {
	tz := cfg.TimeZone
	if tz == "" {
		tz = "Asia/Ho_Chi_Minh"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("vnpay: load time zone %q: %w", tz, err)
	}
	return &Gateway{cfg: cfg, loc: loc}, nil
}

// FrontendSuccessURL 成功页地址，带上订单号
func (g *Gateway) FrontendSuccessURL(orderID int64) string {
	return fmt.Sprintf("%s?orderId=%d", g.cfg.FrontendSuccessURL, orderID)
}

// FrontendFailURL 失败页地址
func (g *Gateway) FrontendFailURL() string {
	return g.cfg.FrontendFailURL
}

// NewTxnRef 生成每次请求唯一的交易号：订单号_毫秒时间戳。
// 重试会得到新的交易号，不会与上一笔未结束的请求撞号。
func NewTxnRef(orderID int64, now time.Time) string {
	return fmt.Sprintf("%d_%d", orderID, now.UnixMilli())
}

// PaymentURL 组装全部网关参数并签名，产出跳转地址。
// amount 为结算币种整数金额，上送网关时按协议乘 100。
func (g *Gateway) PaymentURL(orderID int64, amount int64, clientIP, bankCode string, now time.Time) string {
	params := map[string]string{
		FieldVersion:    g.cfg.Version,
		FieldCommand:    g.cfg.Command,
		FieldTmnCode:    g.cfg.TmnCode,
		FieldAmount:     strconv.FormatInt(amount*100, 10),
		FieldCurrCode:   g.cfg.CurrCode,
		FieldTxnRef:     NewTxnRef(orderID, now),
		FieldOrderInfo:  strconv.FormatInt(orderID, 10),
		FieldOrderType:  orderTypeBillPayment,
		FieldLocale:     g.cfg.Locale,
		FieldReturnURL:  g.cfg.ReturnURL,
		FieldIPAddr:     clientIP,
		FieldCreateDate: now.In(g.loc).Format(createDateLayout),
	}
	if bankCode = strings.ToUpper(strings.TrimSpace(bankCode)); bankCode != "" {
		params[FieldBankCode] = bankCode
	}

	params[FieldSecureHash] = HmacSHA512Hex(g.cfg.HashSecret, BuildRawToSign(params))
	return g.cfg.PaymentURL + "?" + BuildEncodedQuery(params)
}

// VerifySignature 校验回调签名。验签不通过时不得信任载荷里的任何字段。
func (g *Gateway) VerifySignature(params map[string]string) error {
	sig, ok := params[FieldSecureHash]
	if !ok || sig == "" {
		return ErrSignatureMissing
	}
	calc := HmacSHA512Hex(g.cfg.HashSecret, BuildVerifyRaw(params))
	if !strings.EqualFold(sig, calc) {
		return ErrSignatureInvalid
	}
	return nil
}

// CallbackOrderID 从 vnp_OrderInfo 还原订单号。
// 网关没有专用元数据字段，订单号借道这个自由文本字段传递；
// 如果以后协议提供了专用字段，只改这一个入口。
func CallbackOrderID(params map[string]string) (int64, error) {
	id, err := strconv.ParseInt(params[FieldOrderInfo], 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrOrderRefMalformed
	}
	return id, nil
}
