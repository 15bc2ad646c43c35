package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/internal/domain/repository"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
	"github.com/FrostIris6/pub-ledger/pkg/utils"
)

// OrderService handles the line-item lifecycle of one order. It holds no
// storage of its own: every mutation is persisted through the order store
// before it returns.
type OrderService struct {
	orders repository.OrderRepository
	logger *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders repository.OrderRepository, log *logger.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: log.WithComponent("order_service"),
	}
}

// AddItemInput represents a new line item
type AddItemInput struct {
	ProductID     entity.ProductID
	Price         float64
	Amount        int
	Specification string
	Notes         *string
}

// CreateOrder opens a new ticket for a table with a generated transaction id.
func (s *OrderService) CreateOrder(ctx context.Context, tableID string) (*entity.Order, error) {
	order := &entity.Order{
		TransactionID:   utils.NewTransactionID(),
		TableID:         tableID,
		TransactionTime: entity.Now(),
		Breakdown:       []entity.LineItem{},
	}
	if err := s.orders.Upsert(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("created order", "transaction_id", order.TransactionID, "table_id", tableID)
	return order, nil
}

// AddItem appends a new unpaid line item to the order.
func (s *OrderService) AddItem(ctx context.Context, order *entity.Order, input AddItemInput) error {
	if input.Price < 0 {
		return apperror.NewValidationError("price cannot be negative")
	}
	amount := input.Amount
	if amount <= 0 {
		amount = 1
	}

	order.Breakdown = append(order.Breakdown, entity.LineItem{
		ProductID:     input.ProductID,
		Price:         input.Price,
		Amount:        amount,
		Specification: input.Specification,
		Notes:         input.Notes,
		IsPaid:        false,
	})
	return s.orders.Upsert(ctx, order)
}

// AdjustQuantity changes the amount of the first unpaid line item matching
// the product id. Decrementing below one returns ErrCannotDecrement so the
// caller can remove the item instead; incrementing is unconditional.
func (s *OrderService) AdjustQuantity(ctx context.Context, order *entity.Order, productID string, delta int) error {
	if delta == 0 {
		return apperror.NewValidationError("quantity delta cannot be zero")
	}

	item := findUnpaidItem(order, productID)
	if item == nil {
		return apperror.NewNotFoundError("Item")
	}

	if item.Amount+delta < 1 {
		return apperror.ErrCannotDecrement
	}
	item.Amount += delta
	return s.orders.Upsert(ctx, order)
}

// RemoveItem deletes every unpaid line item matching the product id. Paid
// items stay: they have already been charged and belong to the ledger.
// Removing an absent id is a no-op.
func (s *OrderService) RemoveItem(ctx context.Context, order *entity.Order, productID string) error {
	kept := order.Breakdown[:0]
	removed := 0
	for _, item := range order.Breakdown {
		if item.ProductID.String() == productID && !item.IsPaid {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		return nil
	}
	order.Breakdown = kept
	return s.orders.Upsert(ctx, order)
}

// SetSpecification updates the specification of unpaid items matching the id.
func (s *OrderService) SetSpecification(ctx context.Context, order *entity.Order, productID, specification string) error {
	changed := false
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if item.ProductID.String() == productID && !item.IsPaid {
			item.Specification = specification
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.orders.Upsert(ctx, order)
}

// SetNotes updates the notes of unpaid items matching the id.
func (s *OrderService) SetNotes(ctx context.Context, order *entity.Order, productID string, notes string) error {
	changed := false
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if item.ProductID.String() == productID && !item.IsPaid {
			n := notes
			item.Notes = &n
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.orders.Upsert(ctx, order)
}

// UpdateItem refreshes price, amount, specification and notes of unpaid
// items matching the id in one call.
func (s *OrderService) UpdateItem(ctx context.Context, order *entity.Order, productID string, input AddItemInput) error {
	if input.Price < 0 {
		return apperror.NewValidationError("price cannot be negative")
	}
	amount := input.Amount
	if amount <= 0 {
		amount = 1
	}

	changed := false
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if item.ProductID.String() == productID && !item.IsPaid {
			item.Price = input.Price
			item.Amount = amount
			item.Specification = input.Specification
			item.Notes = input.Notes
			changed = true
		}
	}
	if !changed {
		return apperror.NewNotFoundError("Item")
	}
	return s.orders.Upsert(ctx, order)
}

// ApplyDiscount re-prices the targeted unpaid line items. The original price
// is captured once, on first application, and every recomputation derives
// from it, so re-applying a rate never compounds. A nil target means every
// item in the order.
func (s *OrderService) ApplyDiscount(ctx context.Context, order *entity.Order, rate float64, productIDs []string) error {
	if rate < 0 || rate > 1 {
		return apperror.NewValidationError("discount rate must be between 0 and 1")
	}

	var target map[string]bool
	if productIDs != nil {
		target = make(map[string]bool, len(productIDs))
		for _, id := range productIDs {
			target[id] = true
		}
	}

	factor := decimal.NewFromFloat(1 - rate)
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if item.IsPaid {
			continue
		}
		if target != nil && !target[item.ProductID.String()] {
			continue
		}

		if item.OriginalPrice == nil {
			original := item.Price
			item.OriginalPrice = &original
		}

		base := decimal.NewFromFloat(*item.OriginalPrice)
		price := base.Mul(factor).Round(2)
		discountAmount, _ := base.Sub(price).Round(2).Float64()
		discountPercentage, _ := decimal.NewFromFloat(rate * 100).Round(1).Float64()

		item.Price, _ = price.Float64()
		item.DiscountAmount = &discountAmount
		item.DiscountPercentage = &discountPercentage
	}

	if err := s.orders.Upsert(ctx, order); err != nil {
		return err
	}
	s.logger.Info("applied discount", "transaction_id", order.TransactionID, "rate", rate, "targeted", len(productIDs))
	return nil
}

// ListActive returns orders with at least one unpaid line item.
func (s *OrderService) ListActive(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.orders.ListActive(ctx)
	if err != nil && apperror.IsKind(err, apperror.KindFormat) {
		s.logger.Warn("order store malformed, listing empty", "error", err)
		return orders, nil
	}
	return orders, err
}

// ListHistory returns orders whose every line item is paid.
func (s *OrderService) ListHistory(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.orders.ListHistory(ctx)
	if err != nil && apperror.IsKind(err, apperror.KindFormat) {
		s.logger.Warn("order store malformed, listing empty", "error", err)
		return orders, nil
	}
	return orders, err
}

// GetOrder retrieves an order by transaction id.
func (s *OrderService) GetOrder(ctx context.Context, transactionID string) (*entity.Order, error) {
	order, err := s.orders.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

func findUnpaidItem(order *entity.Order, productID string) *entity.LineItem {
	for i := range order.Breakdown {
		if order.Breakdown[i].ProductID.String() == productID && !order.Breakdown[i].IsPaid {
			return &order.Breakdown[i]
		}
	}
	return nil
}
