package orders

// CreateOrderRequest opens a checkout: hold the seats and create a
// pending order in one shot.
type CreateOrderRequest struct {
	EventID string   `json:"event_id" binding:"required,uuid"`
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=10,dive,uuid"`
}

// AvailabilityRequest asks whether specific seats can currently be
// held. Advisory only.
type AvailabilityRequest struct {
	EventID string   `json:"event_id" binding:"required,uuid"`
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=50,dive,uuid"`
}
