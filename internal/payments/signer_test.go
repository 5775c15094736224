package payments

import (
	"net/url"
	"strings"
	"testing"
)

func TestEncodeSorted(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		want   string
	}{
		{
			name: "keys sorted lexically",
			params: url.Values{
				ParamReference: {"PAY-1"},
				ParamAmount:    {"5000"},
				ParamMerchant:  {"MERCH"},
			},
			want: "pg_amount=5000&pg_merchant=MERCH&pg_reference=PAY-1",
		},
		{
			name: "signature and empty values excluded",
			params: url.Values{
				ParamReference: {"PAY-1"},
				ParamSignature: {"deadbeef"},
				ParamOrderInfo: {""},
			},
			want: "pg_reference=PAY-1",
		},
		{
			name: "values url escaped",
			params: url.Values{
				ParamOrderInfo: {"order 42 & co"},
			},
			want: "pg_order_info=order+42+%26+co",
		},
		{
			name:   "empty params",
			params: url.Values{},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeSorted(tt.params); got != tt.want {
				t.Errorf("EncodeSorted() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignerVerify(t *testing.T) {
	signer := NewSigner("merchant-secret")
	params := url.Values{
		ParamMerchant:  {"MERCH"},
		ParamReference: {"PAY-20260314-ABCD"},
		ParamAmount:    {"12500"},
	}
	signature := signer.Sign(params)

	if !signer.Verify(params, signature) {
		t.Error("expected valid signature to verify")
	}

	// Gateways may return the hex digest uppercased.
	if !signer.Verify(params, strings.ToUpper(signature)) {
		t.Error("expected uppercase signature to verify")
	}

	// The signature param itself must not affect the signed string.
	withSig := url.Values{}
	for k, v := range params {
		withSig[k] = v
	}
	withSig.Set(ParamSignature, signature)
	if signer.Sign(withSig) != signature {
		t.Error("expected signature param to be excluded from signing")
	}
}

func TestSignerVerifyRejects(t *testing.T) {
	signer := NewSigner("merchant-secret")
	params := url.Values{
		ParamReference: {"PAY-20260314-ABCD"},
		ParamAmount:    {"12500"},
	}
	signature := signer.Sign(params)

	t.Run("empty signature", func(t *testing.T) {
		if signer.Verify(params, "") {
			t.Error("expected empty signature to fail")
		}
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered.Set(ParamAmount, "1")
		if signer.Verify(tampered, signature) {
			t.Error("expected tampered params to fail")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSigner("other-secret")
		if other.Verify(params, signature) {
			t.Error("expected signature from another secret to fail")
		}
	})
}
