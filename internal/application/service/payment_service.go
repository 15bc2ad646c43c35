package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/internal/domain/enum"
	"github.com/FrostIris6/pub-ledger/internal/domain/repository"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
	"github.com/FrostIris6/pub-ledger/pkg/utils"
)

// VipBalancePolicy verifies that a VIP account can cover a charge. Real
// balance verification lives outside this module, so the check is pluggable.
type VipBalancePolicy interface {
	SufficientBalance(ctx context.Context, payerID string, required float64) (bool, error)
}

// AllowAllPolicy approves every balance check.
type AllowAllPolicy struct{}

func (AllowAllPolicy) SufficientBalance(ctx context.Context, payerID string, required float64) (bool, error) {
	return true, nil
}

// PaymentService computes totals and executes full, partial and split
// checkouts. Checkout is all-or-nothing at the operation level: validation
// failures leave order and item state unchanged.
type PaymentService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	balance  VipBalancePolicy
	logger   *logger.Logger
}

// NewPaymentService creates a new payment service. A nil balance policy
// defaults to approving every check.
func NewPaymentService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	balance VipBalancePolicy,
	log *logger.Logger,
) *PaymentService {
	if balance == nil {
		balance = AllowAllPolicy{}
	}
	return &PaymentService{
		orders:   orders,
		payments: payments,
		balance:  balance,
		logger:   log.WithComponent("payment_service"),
	}
}

// ComputeTotal sums price times amount over matching unpaid line items. Paid
// items never count toward a new total. A nil selection means every item.
func (s *PaymentService) ComputeTotal(order *entity.Order, itemIDs []string) float64 {
	var selected map[string]bool
	if itemIDs != nil {
		selected = make(map[string]bool, len(itemIDs))
		for _, id := range itemIDs {
			selected[id] = true
		}
	}

	total := decimal.Zero
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if item.IsPaid {
			continue
		}
		if selected != nil && !selected[item.ProductID.String()] {
			continue
		}
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Amount)))
		total = total.Add(line)
	}
	result, _ := total.Round(2).Float64()
	return result
}

// PartialCheckout marks every selected, currently-unpaid line item as paid
// and returns the amount charged. Selecting an already-paid item is a silent
// no-op for that item; a selection with no payable item at all is rejected.
func (s *PaymentService) PartialCheckout(ctx context.Context, order *entity.Order, selectedIDs []string) (float64, error) {
	if len(selectedIDs) == 0 {
		return 0, apperror.ErrNoProductSelected
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	payable := false
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if selected[item.ProductID.String()] && !item.IsPaid {
			payable = true
			break
		}
	}
	if !payable {
		return 0, apperror.ErrNoPayableItem
	}

	charged := s.ComputeTotal(order, selectedIDs)
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if selected[item.ProductID.String()] && !item.IsPaid {
			item.IsPaid = true
		}
	}

	if err := s.orders.Upsert(ctx, order); err != nil {
		return 0, err
	}
	s.logger.Info("partial checkout", "transaction_id", order.TransactionID, "charged", charged)
	return charged, nil
}

// FullCheckout pays every currently-unpaid line item. A fully paid order
// returns ErrNothingToPay together with a zero charge; callers treat it as a
// successful no-op.
func (s *PaymentService) FullCheckout(ctx context.Context, order *entity.Order) (float64, error) {
	unpaid := order.UnpaidProductIDs()
	if len(unpaid) == 0 {
		return 0, apperror.ErrNothingToPay
	}
	return s.PartialCheckout(ctx, order, unpaid)
}

// ResetPayments sets every line item back to unpaid. This is an
// administrative undo; the caller boundary must confirm it.
func (s *PaymentService) ResetPayments(ctx context.Context, order *entity.Order) error {
	for i := range order.Breakdown {
		order.Breakdown[i].IsPaid = false
	}
	if err := s.orders.Upsert(ctx, order); err != nil {
		return err
	}
	s.logger.Info("reset payment status", "transaction_id", order.TransactionID)
	return nil
}

// SplitPaymentInput describes one split payment.
type SplitPaymentInput struct {
	SelectedIDs []string
	Payer       entity.PayerContext
	Method      enum.PaymentMethod
	AmountPaid  float64
}

// SplitPayment settles the selected unpaid items for one payer and emits an
// immutable payment record. VIP payers settle from their account balance;
// everyone else pays cash or card and must tender at least the total due.
func (s *PaymentService) SplitPayment(ctx context.Context, order *entity.Order, input SplitPaymentInput) (*entity.PaymentRecord, error) {
	if len(input.SelectedIDs) == 0 {
		return nil, apperror.ErrNoProductSelected
	}
	if !input.Method.Valid() {
		return nil, apperror.NewValidationError("unknown payment method " + input.Method.String())
	}

	selected := make(map[string]bool, len(input.SelectedIDs))
	for _, id := range input.SelectedIDs {
		selected[id] = true
	}

	var snapshot []entity.PaymentItem
	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if !selected[item.ProductID.String()] || item.IsPaid {
			continue
		}
		snapshot = append(snapshot, entity.PaymentItem{
			ProductID:     item.ProductID,
			Price:         item.Price,
			Amount:        item.Amount,
			Specification: item.Specification,
			Notes:         item.Notes,
		})
	}
	if len(snapshot) == 0 {
		return nil, apperror.ErrNoPayableItem
	}

	totalDue := s.ComputeTotal(order, input.SelectedIDs)

	var status enum.PaymentStatus
	if input.Payer.IsVIP {
		if input.Method != enum.PaymentMethodVipBalance {
			return nil, apperror.NewValidationError("VIP payers settle from their account balance")
		}
		sufficient, err := s.balance.SufficientBalance(ctx, input.Payer.PayerID, totalDue)
		if err != nil {
			return nil, err
		}
		if !sufficient {
			return nil, apperror.ErrInsufficientBalance
		}
		status = enum.PaymentStatusPaid
	} else {
		if input.Method == enum.PaymentMethodVipBalance {
			return nil, apperror.NewValidationError("account balance is reserved for VIP payers")
		}
		if input.AmountPaid < totalDue {
			return nil, apperror.ErrInsufficientPayment
		}
		if input.Method == enum.PaymentMethodCash {
			status = enum.PaymentStatusPaid
		} else {
			status = enum.PaymentStatusPending
		}
	}

	record := &entity.PaymentRecord{
		PaymentID:     utils.NewPaymentID(),
		TransactionID: order.TransactionID,
		TableID:       order.TableID,
		PayerID:       input.Payer.PayerID,
		TotalAmount:   totalDue,
		AmountPaid:    input.AmountPaid,
		PaymentMethod: input.Method,
		PaymentStatus: status,
		PaymentTime:   entity.Now(),
		Items:         snapshot,
	}

	for i := range order.Breakdown {
		item := &order.Breakdown[i]
		if selected[item.ProductID.String()] && !item.IsPaid {
			item.IsPaid = true
		}
	}

	if err := s.orders.Upsert(ctx, order); err != nil {
		return nil, err
	}
	if err := s.payments.Append(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("split payment",
		"transaction_id", order.TransactionID,
		"payer_id", input.Payer.PayerID,
		"method", input.Method.String(),
		"total", totalDue,
	)
	return record, nil
}

// PaymentHistory returns the payment records recorded for one order.
func (s *PaymentService) PaymentHistory(ctx context.Context, transactionID string) ([]entity.PaymentRecord, error) {
	return s.payments.ListByTransactionID(ctx, transactionID)
}
