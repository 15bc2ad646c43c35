package repository

import (
	"context"
	"time"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
)

// OrderRepository defines the interface for the canonical order store. Every
// mutating call performs a full read-modify-write of the backing store; no
// partial writes are exposed to callers.
type OrderRepository interface {
	// Load returns every order in the store. An absent store yields an empty
	// slice and no error; a malformed store yields an empty slice together
	// with a format error so the caller can warn and continue.
	Load(ctx context.Context) ([]entity.Order, error)
	// Upsert replaces the order with the same transaction id, or appends it.
	Upsert(ctx context.Context, order *entity.Order) error
	// FindByTransactionID returns nil without error when no order matches.
	FindByTransactionID(ctx context.Context, id string) (*entity.Order, error)
	// ListActive returns orders with at least one unpaid line item.
	ListActive(ctx context.Context) ([]entity.Order, error)
	// ListHistory returns orders whose every line item is paid.
	ListHistory(ctx context.Context) ([]entity.Order, error)
	// AppendAll appends orders without replacing existing records.
	AppendAll(ctx context.Context, orders []entity.Order) error
	// LastModified returns when the store last changed, or the zero time for
	// an empty or absent store.
	LastModified(ctx context.Context) (time.Time, error)
}
