package repository

import (
	"context"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
)

// PaymentRepository defines the interface for the append-only payment ledger.
type PaymentRepository interface {
	Append(ctx context.Context, record *entity.PaymentRecord) error
	ListByTransactionID(ctx context.Context, transactionID string) ([]entity.PaymentRecord, error)
}
