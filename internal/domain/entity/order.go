package entity

import (
	"encoding/json"
	"time"

	"github.com/FrostIris6/pub-ledger/pkg/utils"
)

// TimeLayout is the timestamp format used across all persisted records.
const TimeLayout = "2006-01-02 15:04:05"

// Now returns the current time in the persisted record format.
func Now() string {
	return time.Now().Format(TimeLayout)
}

// Order represents one ticket for one seating.
type Order struct {
	TransactionID   string     `json:"transaction_id"`
	TableID         string     `json:"table_id"`
	TransactionTime string     `json:"transaction_time"`
	Breakdown       []LineItem `json:"breakdown"`
}

// LineItem represents a product line within an order. Optional fields are
// pointers so absent values are omitted from the persisted record.
type LineItem struct {
	ProductID          ProductID `json:"product_id"`
	Price              float64   `json:"price"`
	OriginalPrice      *float64  `json:"original_price,omitempty"`
	DiscountPercentage *float64  `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64  `json:"discount_amount,omitempty"`
	Amount             int       `json:"amount"`
	Specification      string    `json:"specification"`
	IsPaid             bool      `json:"is_paid"`
	Notes              *string   `json:"notes,omitempty"`
}

// UnmarshalJSON coerces numeric transaction and table ids, which legacy
// writers sometimes emit, to their string form.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw struct {
		TransactionID   utils.FlexString `json:"transaction_id"`
		TableID         utils.FlexString `json:"table_id"`
		TransactionTime string           `json:"transaction_time"`
		Breakdown       []LineItem       `json:"breakdown"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.TransactionID = string(raw.TransactionID)
	o.TableID = string(raw.TableID)
	o.TransactionTime = raw.TransactionTime
	o.Breakdown = raw.Breakdown
	return nil
}

// IsActive reports whether at least one line item is unpaid. The property is
// derived, never stored.
func (o *Order) IsActive() bool {
	for i := range o.Breakdown {
		if !o.Breakdown[i].IsPaid {
			return true
		}
	}
	return false
}

// IsHistory reports whether every line item is paid.
func (o *Order) IsHistory() bool {
	return !o.IsActive()
}

// UnpaidProductIDs returns the ids of all unpaid line items, in display order.
func (o *Order) UnpaidProductIDs() []string {
	ids := make([]string, 0, len(o.Breakdown))
	for i := range o.Breakdown {
		if !o.Breakdown[i].IsPaid {
			ids = append(ids, o.Breakdown[i].ProductID.String())
		}
	}
	return ids
}
