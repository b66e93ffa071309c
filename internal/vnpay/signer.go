package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// 签名字段本身不参与签名
const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// sortedKeys 过滤签名字段与空值后按字节序升序返回参数名。
// 网关按 ordinal 顺序计算签名，这里必须逐字节比较而不是 locale 排序。
func sortedKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == FieldSecureHash || k == FieldSecureHashType || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildRawToSign 待签名原串：name=value 用 & 连接，值不做任何转义。
// 值里的 & 和 = 也保持字面量，网关侧按同样规则拼串。
func BuildRawToSign(params map[string]string) string {
	keys := sortedKeys(params)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// BuildEncodedQuery 传输用 query：键值均 URL 编码，空格按网关惯例写成 +；
// vnp_SecureHash 若已存在则原样追加在末尾，不在这里重新计算。
func BuildEncodedQuery(params map[string]string) string {
	keys := sortedKeys(params)
	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	if sig := params[FieldSecureHash]; sig != "" {
		pairs = append(pairs, FieldSecureHash+"="+url.QueryEscape(sig))
	}
	return strings.Join(pairs, "&")
}

// BuildVerifyRaw 回调验签原串：与待签原串的区别是不做 URL 编码、
// 仅把空格替换为 +，以还原网关在线上实际签名的形态。
func BuildVerifyRaw(params map[string]string) string {
	keys := sortedKeys(params)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(params[k], " ", "+"))
	}
	return b.String()
}

// HmacSHA512Hex 出入两个方向共用的唯一签名原语，输出小写十六进制。
func HmacSHA512Hex(secret, message string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
