package checkout

// Status is the state of a checkout session.
type Status string

const (
	// StatusIdle is the initial state before the order is created.
	StatusIdle Status = "IDLE"
	// StatusAwaitingOrder means an order-creation call is in flight.
	StatusAwaitingOrder Status = "AWAITING_ORDER"
	// StatusAwaitingPayment means the order exists and payment has not been
	// initiated yet.
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	// StatusAwaitingQRConfirm means a QR payload was issued and the operator
	// has not confirmed settlement yet.
	StatusAwaitingQRConfirm Status = "AWAITING_QR_CONFIRM"
	// StatusCompleted means payment is settled and the cart was cleared.
	StatusCompleted Status = "COMPLETED"
	// StatusError means the last remote call failed; the same trigger may be
	// retried without duplicating server-side effects.
	StatusError Status = "ERROR"
)

// IsTerminal reports whether the session is finished. A new session must be
// created for the next sale.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

func (s Status) String() string {
	return string(s)
}

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodQR     PaymentMethod = "qr_promptpay"
	MethodCredit PaymentMethod = "credit"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodQR, MethodCredit:
		return true
	}
	return false
}
