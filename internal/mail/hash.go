package mail

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"time"
)

// WebhookMaxSkew：webhook 时间戳允许的最大偏差
const WebhookMaxSkew = 15 * time.Second

// Signature：HMAC-SHA256 十六进制
func Signature(key, msg string) string {
	m := hmac.New(sha256.New, []byte(key))
	m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// Confirmer：退订确认码
type Confirmer struct {
	HMACKey string
	Secret  string
}

// MakeHash：HMAC(HMACKey, email + stallID + Secret)
func (c Confirmer) MakeHash(email string, stallID int) string {
	return Signature(c.HMACKey, email+strconv.Itoa(stallID)+c.Secret)
}

func (c Confirmer) CheckHash(email string, stallID int, code string) bool {
	return hmac.Equal([]byte(c.MakeHash(email, stallID)), []byte(code))
}

// VerifyWebhook：时间戳偏差超过 15s 直接拒绝；签名为 HMAC(apiKey, timestamp + token)
func VerifyWebhook(apiKey, token string, timestamp int64, signature string, now time.Time) bool {
	if math.Abs(float64(now.Unix()-timestamp)) > WebhookMaxSkew.Seconds() {
		return false
	}
	want := Signature(apiKey, strconv.FormatInt(timestamp, 10)+token)
	return hmac.Equal([]byte(want), []byte(signature))
}
