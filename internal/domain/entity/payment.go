package entity

import "github.com/FrostIris6/pub-ledger/internal/domain/enum"

// PaymentRecord is an immutable record of one settled (or pending) payment,
// appended to the payment ledger and never rewritten.
type PaymentRecord struct {
	PaymentID     string             `json:"payment_id"`
	TransactionID string             `json:"transaction_id"`
	TableID       string             `json:"table_id"`
	PayerID       string             `json:"payer_id"`
	TotalAmount   float64            `json:"total_amount"`
	AmountPaid    float64            `json:"amount_paid"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	PaymentStatus enum.PaymentStatus `json:"payment_status"`
	PaymentTime   string             `json:"payment_time"`
	Items         []PaymentItem      `json:"items"`
}

// PaymentItem is a snapshot of a line item at the moment it was paid.
type PaymentItem struct {
	ProductID     ProductID `json:"product_id"`
	Price         float64   `json:"price"`
	Amount        int       `json:"amount"`
	Specification string    `json:"specification"`
	Notes         *string   `json:"notes,omitempty"`
}

// PayerContext identifies who is paying. It is passed explicitly into
// checkout operations instead of being read from ambient session state.
type PayerContext struct {
	PayerID string
	IsVIP   bool
}
