package payments

import "time"

// Gateway protocol parameter names. The callback echoes the request
// parameters plus the response code, all signed the same way.
const (
	ParamMerchant     = "pg_merchant"
	ParamReference    = "pg_reference"
	ParamAmount       = "pg_amount"
	ParamOrderInfo    = "pg_order_info"
	ParamCreatedAt    = "pg_created_at"
	ParamClientIP     = "pg_client_ip"
	ParamReturnURL    = "pg_return_url"
	ParamResponseCode = "pg_response_code"
	ParamSignature    = "pg_signature"
)

// ResponseCodeSuccess is the only code that confirms payment; every
// other code is a gateway-reported failure.
const ResponseCodeSuccess = "00"

const createdAtLayout = "20060102150405"

// PaymentRequest is the built redirect the buyer is sent to.
type PaymentRequest struct {
	OrderID     string    `json:"order_id"`
	Reference   string    `json:"reference"`
	AmountCents int64     `json:"amount_cents"`
	RedirectURL string    `json:"redirect_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// CallbackResult is a signature-verified, parsed gateway callback.
type CallbackResult struct {
	Reference    string
	AmountCents  int64
	ResponseCode string
	Succeeded    bool
}

// CallbackResponse is what the callback endpoint reports back.
type CallbackResponse struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Replayed bool   `json:"replayed,omitempty"`
}
