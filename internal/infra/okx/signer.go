package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// timestampLayout is the ISO-8601 millisecond UTC format OKX expects in OK-ACCESS-TIMESTAMP
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Signer handles OKX V5 API authentication signatures
type Signer struct {
	accessKey  string
	secretKey  string
	passphrase string
	now        func() time.Time
}

// NewSigner creates a new Signer instance
func NewSigner(accessKey, secretKey, passphrase string) *Signer {
	return &Signer{
		accessKey:  accessKey,
		secretKey:  secretKey,
		passphrase: passphrase,
		now:        time.Now,
	}
}

// HasCredentials reports whether private endpoints can be signed.
func (s *Signer) HasCredentials() bool {
	return s.accessKey != "" && s.secretKey != "" && s.passphrase != ""
}

// GenerateHeaders creates the authentication headers for a request.
// requestPath includes the query string, e.g. /api/v5/account/balance?ccy=USDT
// body is the raw JSON body ("" for GET).
func (s *Signer) GenerateHeaders(method, requestPath, body string) map[string]string {
	timestamp := s.now().UTC().Format(timestampLayout)

	// Prehash: timestamp + method + requestPath + body
	payload := timestamp + method + requestPath + body

	return map[string]string{
		"OK-ACCESS-KEY":        s.accessKey,
		"OK-ACCESS-SIGN":       computeHmacSha256(payload, s.secretKey),
		"OK-ACCESS-TIMESTAMP":  timestamp,
		"OK-ACCESS-PASSPHRASE": s.passphrase,
	}
}

func computeHmacSha256(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
