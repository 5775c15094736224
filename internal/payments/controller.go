package payments

import (
	"errors"
	"net/http"

	"tickethub/internal/orders"
	"tickethub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreatePaymentURL handles POST /api/v1/payments/orders/:orderId/url
func (c *Controller) CreatePaymentURL(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("orderId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid order id", nil, nil)
		return
	}

	userIDInterface, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "user not authenticated", nil, nil)
		return
	}
	userIDStr, _ := userIDInterface.(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid user id", nil, nil)
		return
	}

	request, err := c.service.BuildPaymentURL(ctx.Request.Context(), orderID, userID, ctx.ClientIP())
	if err != nil {
		c.respondBuildError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment URL created successfully", request, nil)
}

// Callback handles GET /api/v1/payments/callback. The gateway redirects
// the buyer here (and retries server-to-server) with signed query
// parameters.
func (c *Controller) Callback(ctx *gin.Context) {
	result, err := c.service.HandleCallback(ctx.Request.Context(), ctx.Request.URL.Query())
	if err != nil {
		c.respondCallbackError(ctx, err)
		return
	}

	resp := CallbackResponse{
		OrderID:  result.Order.ID.String(),
		Status:   result.Order.Status.String(),
		Replayed: result.Replayed,
	}

	if result.Order.IsPaid() {
		data := gin.H{
			"confirmation": resp,
			"tickets":      ticketResponses(result.Tickets),
		}
		response.RespondJSON(ctx, "success", http.StatusOK, "Payment confirmed", data, nil)
		return
	}

	// Verified failure callback: the order moved to FAILED.
	response.RespondJSON(ctx, "success", http.StatusOK, "Payment failed, order closed", resp, nil)
}

func (c *Controller) respondBuildError(ctx *gin.Context, err error) {
	var invalidState *orders.InvalidOrderStateError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "order not found", nil, nil)
	case errors.Is(err, ErrNotOrderOwner):
		response.RespondJSON(ctx, "error", http.StatusForbidden, "access denied", nil, nil)
	case errors.As(err, &invalidState):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "failed to create payment url", nil, err.Error())
	}
}

func (c *Controller) respondCallbackError(ctx *gin.Context, err error) {
	var (
		invalidState *orders.InvalidOrderStateError
		mismatch     *orders.AmountMismatchError
	)
	switch {
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrMissingReference),
		errors.Is(err, ErrInvalidAmount):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.Is(err, orders.ErrUnknownReference):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "unknown payment reference", nil, nil)
	case errors.As(err, &mismatch):
		response.RespondJSON(ctx, "error", http.StatusConflict, "payment amount mismatch, order closed", nil, err.Error())
	case errors.As(err, &invalidState):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "failed to process callback", nil, err.Error())
	}
}

func ticketResponses(tickets []orders.Ticket) []orders.TicketResponse {
	out := make([]orders.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, tickets[i].ToResponse())
	}
	return out
}
