package vnpay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRawToSign(t *testing.T) {
	params := map[string]string{
		"vnp_TmnCode":        "DEMO",
		"vnp_Amount":         "1000000",
		"vnp_SecureHash":     "deadbeef",
		"vnp_SecureHashType": "HmacSHA512",
		"vnp_OrderInfo":      "42",
		"vnp_BankCode":       "", // 空值要丢弃
	}
	raw := BuildRawToSign(params)
	assert.Equal(t, "vnp_Amount=1000000&vnp_OrderInfo=42&vnp_TmnCode=DEMO", raw)
}

func TestBuildRawToSignOrdinalOrder(t *testing.T) {
	// 字节序：大写字母排在小写前面，数字在字母前面
	params := map[string]string{
		"b":     "2",
		"B":     "1",
		"a9":    "3",
		"a10":   "4",
		"vnp_A": "5",
	}
	assert.Equal(t, "B=1&a10=4&a9=3&b=2&vnp_A=5", BuildRawToSign(params))
}

func TestBuildRawToSignKeepsLiteralSeparators(t *testing.T) {
	// 签名原串不转义值里的 & 和 =
	params := map[string]string{
		"vnp_OrderInfo": "a=b&c",
	}
	assert.Equal(t, "vnp_OrderInfo=a=b&c", BuildRawToSign(params))
}

func TestBuildRawToSignEmpty(t *testing.T) {
	assert.Equal(t, "", BuildRawToSign(map[string]string{}))
	// 空串也要有确定的摘要
	assert.Len(t, HmacSHA512Hex("secret", ""), 128)
}

func TestBuildEncodedQuery(t *testing.T) {
	params := map[string]string{
		"vnp_OrderInfo": "don hang 42",
		"vnp_ReturnUrl": "https://shop.example/return?a=1",
	}
	q := BuildEncodedQuery(params)
	// 空格按网关惯例编码成 +
	assert.Equal(t, "vnp_OrderInfo=don+hang+42&vnp_ReturnUrl=https%3A%2F%2Fshop.example%2Freturn%3Fa%3D1", q)
}

func TestBuildEncodedQueryAppendsHashLast(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":     "100",
		"vnp_TmnCode":    "DEMO",
		"vnp_SecureHash": "abc123",
	}
	q := BuildEncodedQuery(params)
	assert.True(t, strings.HasSuffix(q, "&vnp_SecureHash=abc123"))
	assert.Equal(t, 1, strings.Count(q, "vnp_SecureHash"))
}

func TestBuildVerifyRaw(t *testing.T) {
	params := map[string]string{
		"vnp_OrderInfo":  "don hang 42",
		"vnp_Amount":     "100",
		"vnp_SecureHash": "abc",
	}
	// 不做百分号编码，只把空格换成 +
	assert.Equal(t, "vnp_Amount=100&vnp_OrderInfo=don+hang+42", BuildVerifyRaw(params))
}

func TestHmacSHA512HexRFC4231Vector(t *testing.T) {
	// RFC 4231 test case 1
	key := strings.Repeat("\x0b", 20)
	got := HmacSHA512Hex(key, "Hi There")
	want := "87aa7cdea5ef619d4ff0b4241a1d6cb02379f4e2ce4ec2787ad0b30545e17cde" +
		"daa833b7d6b8a702038b274eaea3f4e4be9d914eeb61f1702e696c203a126854"
	assert.Equal(t, want, got)
}

func TestSignThenVerifyRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	params := map[string]string{
		"vnp_Amount":       "15000000",
		"vnp_OrderInfo":    "42",
		"vnp_ResponseCode": "00",
		"vnp_TxnRef":       "42_1700000000000",
	}
	params[FieldSecureHash] = HmacSHA512Hex(testSecret, BuildVerifyRaw(params))
	assert.NoError(t, gw.VerifySignature(params))

	// 改任意一个值，验签必须失败
	tampered := cloneParams(params)
	tampered["vnp_Amount"] = "15000001"
	assert.ErrorIs(t, gw.VerifySignature(tampered), ErrSignatureInvalid)

	// 加一个参数，验签必须失败
	added := cloneParams(params)
	added["vnp_Extra"] = "x"
	assert.ErrorIs(t, gw.VerifySignature(added), ErrSignatureInvalid)

	// 签名翻转一个字符，验签必须失败
	flipped := cloneParams(params)
	sig := []byte(flipped[FieldSecureHash])
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	flipped[FieldSecureHash] = string(sig)
	assert.ErrorIs(t, gw.VerifySignature(flipped), ErrSignatureInvalid)
}

func TestVerifySignatureCaseInsensitive(t *testing.T) {
	gw := newTestGateway(t)
	params := map[string]string{"vnp_OrderInfo": "7"}
	params[FieldSecureHash] = strings.ToUpper(HmacSHA512Hex(testSecret, BuildVerifyRaw(params)))
	assert.NoError(t, gw.VerifySignature(params))
}

func TestVerifySignatureMissing(t *testing.T) {
	gw := newTestGateway(t)
	err := gw.VerifySignature(map[string]string{"vnp_OrderInfo": "42"})
	assert.ErrorIs(t, err, ErrSignatureMissing)
}

func cloneParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
