package payments

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func testGateway() Gateway {
	return NewRedirectGateway(Config{
		BaseURL:      "https://pay.example.com/checkout",
		MerchantCode: "MERCH01",
		Secret:       "merchant-secret",
		ReturnURL:    "https://tickets.example.com/api/v1/payments/callback",
	})
}

func TestBuildRedirectURL(t *testing.T) {
	gateway := testGateway()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	redirect, err := gateway.BuildRedirectURL("PAY-20260314-ABCD", 12500, "order 42", "203.0.113.7", now)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("redirect is not a valid url: %v", err)
	}
	if parsed.Host != "pay.example.com" {
		t.Errorf("unexpected host %q", parsed.Host)
	}

	query := parsed.Query()
	if got := query.Get(ParamReference); got != "PAY-20260314-ABCD" {
		t.Errorf("reference = %q", got)
	}
	if got := query.Get(ParamAmount); got != "12500" {
		t.Errorf("amount = %q", got)
	}
	if got := query.Get(ParamCreatedAt); got != "20260314120000" {
		t.Errorf("created_at = %q", got)
	}
	if query.Get(ParamSignature) == "" {
		t.Error("expected the redirect to carry a signature")
	}

	// The redirect must verify with the same secret once the gateway
	// echoes it back with a response code.
	query.Set(ParamResponseCode, ResponseCodeSuccess)
	query.Set(ParamSignature, NewSigner("merchant-secret").Sign(query))
	if _, err := gateway.VerifyCallback(query); err != nil {
		t.Errorf("expected echoed params to verify, got %v", err)
	}
}

func TestBuildRedirectURL_RequiresReference(t *testing.T) {
	gateway := testGateway()
	_, err := gateway.BuildRedirectURL("", 100, "", "", time.Now())
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
}

func signedCallback(secret, reference, amount, code string) url.Values {
	params := url.Values{
		ParamMerchant:     {"MERCH01"},
		ParamReference:    {reference},
		ParamAmount:       {amount},
		ParamResponseCode: {code},
	}
	params.Set(ParamSignature, NewSigner(secret).Sign(params))
	return params
}

func TestVerifyCallback(t *testing.T) {
	gateway := testGateway()

	t.Run("success code", func(t *testing.T) {
		result, err := gateway.VerifyCallback(signedCallback("merchant-secret", "PAY-1", "12500", "00"))
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !result.Succeeded {
			t.Error("expected code 00 to succeed")
		}
		if result.AmountCents != 12500 {
			t.Errorf("amount = %d, want 12500", result.AmountCents)
		}
	})

	t.Run("failure code", func(t *testing.T) {
		result, err := gateway.VerifyCallback(signedCallback("merchant-secret", "PAY-1", "12500", "05"))
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if result.Succeeded {
			t.Error("expected non-00 code to fail")
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		params := signedCallback("wrong-secret", "PAY-1", "12500", "00")
		if _, err := gateway.VerifyCallback(params); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("tampered amount", func(t *testing.T) {
		params := signedCallback("merchant-secret", "PAY-1", "12500", "00")
		params.Set(ParamAmount, "1")
		if _, err := gateway.VerifyCallback(params); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		params := url.Values{
			ParamAmount:       {"12500"},
			ParamResponseCode: {"00"},
		}
		params.Set(ParamSignature, NewSigner("merchant-secret").Sign(params))
		if _, err := gateway.VerifyCallback(params); !errors.Is(err, ErrMissingReference) {
			t.Errorf("expected ErrMissingReference, got %v", err)
		}
	})

	t.Run("bad amounts", func(t *testing.T) {
		for _, amount := range []string{"12.50", "abc", "-100", strconv.FormatUint(1<<63, 10)} {
			params := signedCallback("merchant-secret", "PAY-1", amount, "00")
			if _, err := gateway.VerifyCallback(params); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
	})
}
