package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrSignatureMismatch = errors.New("signature mismatch")

// ゲートウェイの署名検証
type Verifier struct {
	keySecret     []byte
	webhookSecret []byte
}

func NewVerifier(keySecret string, webhookSecret string) *Verifier {
	return &Verifier{keySecret: []byte(keySecret), webhookSecret: []byte(webhookSecret)}
}

// 署名対象は "gateway_order_id|gateway_payment_id"
func (v *Verifier) SignCheckout(gatewayOrderID string, gatewayPaymentID string) string {
	return sign(v.keySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID))
}

func (v *Verifier) VerifyCheckout(gatewayOrderID string, gatewayPaymentID string, signature string) error {
	return compare(v.SignCheckout(gatewayOrderID, gatewayPaymentID), signature)
}

// webhookは生のbodyに対して署名される
func (v *Verifier) SignWebhook(body []byte) string {
	return sign(v.webhookSecret, body)
}

func (v *Verifier) VerifyWebhook(body []byte, signature string) error {
	return compare(v.SignWebhook(body), signature)
}

func sign(secret []byte, msg []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

// 定数時間で比較
func compare(expected string, got string) error {
	got = strings.ToLower(strings.TrimSpace(got))
	if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
		return ErrSignatureMismatch
	}
	return nil
}
