package model

// OrderRequest asks the gateway for a new payment order against a pending
// booking. Amount and Currency are optional; when set they must match the
// booking, otherwise the booking's own values are charged.
type OrderRequest struct {
	BookingID string  `json:"booking_id" validate:"required,mongodb"`
	Amount    float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Currency  string  `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Method    string  `json:"method,omitempty" validate:"omitempty,oneof=card upi netbanking wallet"`
}

// Order is returned to the client so it can open the gateway checkout.
type Order struct {
	OrderID   string  `json:"order_id"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	// AmountMinor is the amount in the currency's smallest unit, which is
	// what the gateway was charged with.
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
	Status      string `json:"status"`
}

// VerifyRequest is the client-submitted payment confirmation. Signature is
// an HMAC over "<order_id>|<payment_id>".
type VerifyRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type RefundRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	// Amount zero means a full refund.
	Amount float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason string  `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// WebhookEvent is the gateway's asynchronous notification envelope.
type WebhookEvent struct {
	Event     string         `json:"event"`
	Payload   WebhookPayload `json:"payload"`
	CreatedAt int64          `json:"created_at,omitempty"`
}

type WebhookPayload struct {
	Payment *WebhookEntity `json:"payment,omitempty"`
	Refund  *WebhookEntity `json:"refund,omitempty"`
}

type WebhookEntity struct {
	Entity GatewayEntity `json:"entity"`
}

// GatewayEntity is the payment or refund record inside a webhook payload.
// Refund entities reference the captured payment via PaymentID.
type GatewayEntity struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Status      string `json:"status,omitempty"`
	Method      string `json:"method,omitempty"`
	ErrorReason string `json:"error_description,omitempty"`
}
