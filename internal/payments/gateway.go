package payments

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid gateway signature")
	ErrMissingReference = errors.New("callback is missing the payment reference")
	ErrInvalidAmount    = errors.New("callback amount is not a valid integer")
)

// Config holds the merchant's gateway credentials.
type Config struct {
	BaseURL      string
	MerchantCode string
	Secret       string
	ReturnURL    string
}

// Gateway models the redirect-and-callback contract: build a signed
// URL the buyer is redirected to, then verify the signed parameters
// the gateway calls back with.
type Gateway interface {
	BuildRedirectURL(reference string, amountCents int64, orderInfo, clientIP string, now time.Time) (string, error)
	VerifyCallback(params url.Values) (*CallbackResult, error)
}

type redirectGateway struct {
	config Config
	signer *Signer
}

func NewRedirectGateway(config Config) Gateway {
	return &redirectGateway{
		config: config,
		signer: NewSigner(config.Secret),
	}
}

func (g *redirectGateway) BuildRedirectURL(reference string, amountCents int64, orderInfo, clientIP string, now time.Time) (string, error) {
	if reference == "" {
		return "", ErrMissingReference
	}

	params := url.Values{}
	params.Set(ParamMerchant, g.config.MerchantCode)
	params.Set(ParamReference, reference)
	params.Set(ParamAmount, strconv.FormatInt(amountCents, 10))
	params.Set(ParamOrderInfo, orderInfo)
	params.Set(ParamCreatedAt, now.UTC().Format(createdAtLayout))
	params.Set(ParamClientIP, clientIP)
	params.Set(ParamReturnURL, g.config.ReturnURL)
	params.Set(ParamSignature, g.signer.Sign(params))

	return fmt.Sprintf("%s?%s", g.config.BaseURL, params.Encode()), nil
}

// VerifyCallback is the validation gate. It recomputes the signature
// over everything but the signature parameter and parses the outcome.
// It never touches storage.
func (g *redirectGateway) VerifyCallback(params url.Values) (*CallbackResult, error) {
	if !g.signer.Verify(params, params.Get(ParamSignature)) {
		return nil, ErrInvalidSignature
	}

	reference := params.Get(ParamReference)
	if reference == "" {
		return nil, ErrMissingReference
	}

	amountCents, err := strconv.ParseInt(params.Get(ParamAmount), 10, 64)
	if err != nil || amountCents < 0 {
		return nil, ErrInvalidAmount
	}

	code := params.Get(ParamResponseCode)
	return &CallbackResult{
		Reference:    reference,
		AmountCents:  amountCents,
		ResponseCode: code,
		Succeeded:    code == ResponseCodeSuccess,
	}, nil
}
