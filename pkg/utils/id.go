package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// NewTransactionID generates a globally unique order transaction id.
func NewTransactionID() string {
	return uuid.New().String()
}

// NewPaymentID generates a unique payment record id.
func NewPaymentID() string {
	return uuid.New().String()
}

// SyntheticTransactionID names an imported order that arrived without an id,
// keyed by its position in the source file.
func SyntheticTransactionID(index int) string {
	return fmt.Sprintf("unknown-%d", index)
}
