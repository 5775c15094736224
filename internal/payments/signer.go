package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Signer computes the gateway signature: HMAC-SHA512 over the
// URL-encoded parameters in lexical key order. The signature parameter
// itself is always excluded from the signed string.
type Signer struct {
	secret string
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex signature for the given parameters.
func (s *Signer) Sign(params url.Values) string {
	mac := hmac.New(sha512.New, []byte(s.secret))
	mac.Write([]byte(EncodeSorted(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received signature in constant time.
func (s *Signer) Verify(params url.Values, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.Sign(params)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// EncodeSorted renders params as "k1=v1&k2=v2" with keys sorted and
// values URL-escaped. Empty values and the signature key are skipped
// so both sides sign the same string.
func EncodeSorted(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamSignature || params.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}
