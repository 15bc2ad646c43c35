package service

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/internal/domain/repository"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
	"github.com/FrostIris6/pub-ledger/pkg/utils"
)

// MergeService imports orders from an external legacy source file, remaps
// their product keys to stable internal ids and appends them into the
// canonical store. A run never repeats for an unchanged source.
type MergeService struct {
	orders     repository.OrderRepository
	productIDs repository.ProductIDMap
	sourcePath string
	targetPath string
	logger     *logger.Logger
}

// NewMergeService creates a merge service. targetPath names the canonical
// order file used by Validate; it may be empty for non-file backends.
func NewMergeService(
	orders repository.OrderRepository,
	productIDs repository.ProductIDMap,
	sourcePath, targetPath string,
	log *logger.Logger,
) *MergeService {
	return &MergeService{
		orders:     orders,
		productIDs: productIDs,
		sourcePath: sourcePath,
		targetPath: targetPath,
		logger:     log.WithComponent("merge_service"),
	}
}

// MergeReport summarizes one merge run. Per-order transform failures are
// collected here rather than aborting the run.
type MergeReport struct {
	Merged  int
	Skipped []SkippedOrder
}

// SkippedOrder records one source order that could not be transformed.
type SkippedOrder struct {
	Index int
	Err   error
}

// AutoMerge merges the legacy source when it holds something new. It returns
// a nil report when there was nothing to do: the source file is absent, or
// the canonical store changed at or after the source did.
func (s *MergeService) AutoMerge(ctx context.Context) (*MergeReport, error) {
	info, err := os.Stat(s.sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("source file does not exist, nothing to merge", "path", s.sourcePath)
			return nil, nil
		}
		return nil, apperror.NewPersistenceError("failed to stat source file", err)
	}

	targetModified, err := s.orders.LastModified(ctx)
	if err != nil {
		return nil, err
	}
	if !targetModified.IsZero() && !targetModified.Before(info.ModTime()) {
		s.logger.Info("source has not changed, no need to merge")
		return nil, nil
	}

	s.logger.Info("detected updates in source, starting merge", "path", s.sourcePath)
	return s.Merge(ctx)
}

// legacy wire shapes. Ids may arrive as strings or numbers; prices and
// amounts may be missing entirely.
type legacyOrder struct {
	TransactionID   utils.FlexString `json:"transaction_id"`
	TableID         utils.FlexString `json:"table_id"`
	TransactionTime string           `json:"transaction_time"`
	Breakdown       json.RawMessage  `json:"breakdown"`
}

type legacyItem struct {
	ProductID     utils.FlexString `json:"product_id"`
	Price         *float64         `json:"price"`
	Amount        *int             `json:"amount"`
	Specification string           `json:"specification"`
	Notes         string           `json:"notes"`
	Note          string           `json:"note"`
	IsPaid        bool             `json:"is_paid"`
}

// Merge runs one full reconciliation pass: parse, transform per order,
// append, persist the identifier map.
func (s *MergeService) Merge(ctx context.Context) (*MergeReport, error) {
	data, err := os.ReadFile(s.sourcePath)
	if err != nil {
		return nil, apperror.NewPersistenceError("failed to read source file", err)
	}

	rawOrders, err := splitSourceOrders(data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("processing source orders", "count", len(rawOrders))

	report := &MergeReport{}
	transformed := make([]entity.Order, 0, len(rawOrders))
	for i, raw := range rawOrders {
		order, err := s.transform(ctx, i, raw)
		if err != nil {
			s.logger.Error("failed to process source order", "index", i, "error", err)
			report.Skipped = append(report.Skipped, SkippedOrder{Index: i, Err: err})
			continue
		}
		transformed = append(transformed, order)
		s.logger.Info("processed order", "transaction_id", order.TransactionID, "items", len(order.Breakdown))
	}

	if len(transformed) == 0 {
		// keep the per-order diagnostics for the caller
		return report, apperror.NewFormatError("no valid orders found for conversion", nil)
	}

	if err := s.orders.AppendAll(ctx, transformed); err != nil {
		return nil, err
	}
	if err := s.productIDs.Save(ctx); err != nil {
		return nil, err
	}

	report.Merged = len(transformed)
	s.logger.Info("merge complete", "merged", report.Merged, "skipped", len(report.Skipped))
	return report, nil
}

// splitSourceOrders accepts either a JSON array of orders or a single order
// object, which is promoted to a one-element list. Any other shape is a hard
// failure for the run.
func splitSourceOrders(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperror.NewFormatError("source file is empty", nil)
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, apperror.NewFormatError("source file has invalid JSON format", err)
		}
		return raw, nil
	case '{':
		// single order object, promote to a one-element list
		if !json.Valid(trimmed) {
			return nil, apperror.NewFormatError("source file has invalid JSON format", nil)
		}
		return []json.RawMessage{trimmed}, nil
	default:
		return nil, apperror.NewFormatError("unexpected source data format, expected object or array", nil)
	}
}

// transform builds a canonical order from one source order. The legacy
// product key and free-text qualifiers fold into a single descriptive
// specification, and the key resolves to an internal numeric id.
func (s *MergeService) transform(ctx context.Context, index int, raw json.RawMessage) (entity.Order, error) {
	var src legacyOrder
	if err := json.Unmarshal(raw, &src); err != nil {
		return entity.Order{}, apperror.NewFormatError("order is not an object", err)
	}

	order := entity.Order{
		TransactionID:   string(src.TransactionID),
		TableID:         string(src.TableID),
		TransactionTime: src.TransactionTime,
		Breakdown:       []entity.LineItem{},
	}
	if order.TransactionID == "" {
		order.TransactionID = utils.SyntheticTransactionID(index)
	}
	if order.TransactionTime == "" {
		order.TransactionTime = entity.Now()
	}

	var items []legacyItem
	if len(src.Breakdown) > 0 {
		if err := json.Unmarshal(src.Breakdown, &items); err != nil {
			return entity.Order{}, apperror.NewFormatError("order has an invalid breakdown section", err)
		}
	}
	if len(items) == 0 {
		s.logger.Warn("order has no product details", "transaction_id", order.TransactionID)
	}

	for _, item := range items {
		legacyKey := string(item.ProductID)

		specification := legacyKey
		if item.Specification != "" {
			specification += " - " + item.Specification
		}
		note := item.Notes
		if note == "" {
			note = item.Note
		}
		if note != "" {
			specification += " (" + note + ")"
		}

		productID, err := s.productIDs.Resolve(ctx, legacyKey)
		if err != nil {
			return entity.Order{}, err
		}

		price := 0.0
		if item.Price != nil {
			price = *item.Price
		}
		amount := 1
		if item.Amount != nil {
			amount = *item.Amount
		}

		order.Breakdown = append(order.Breakdown, entity.LineItem{
			ProductID:     entity.ProductIDFromInt(productID),
			Price:         price,
			Amount:        amount,
			Specification: specification,
			IsPaid:        item.IsPaid,
		})
	}

	return order, nil
}

// Validate confirms the canonical order file is an array of orders carrying
// the four required order fields, each line item carrying its four required
// item fields. Failures are reported, never repaired.
func (s *MergeService) Validate(ctx context.Context) error {
	if s.targetPath == "" {
		return apperror.NewValidationError("store validation requires the file-backed order store")
	}

	data, err := os.ReadFile(s.targetPath)
	if err != nil {
		return apperror.NewPersistenceError("failed to read order file", err)
	}

	var orders []map[string]json.RawMessage
	if err := json.Unmarshal(data, &orders); err != nil {
		return apperror.NewFormatError("root data is not an order array", err)
	}

	orderFields := []string{"transaction_id", "table_id", "transaction_time", "breakdown"}
	itemFields := []string{"product_id", "price", "amount", "specification"}

	for i, order := range orders {
		for _, field := range orderFields {
			if _, ok := order[field]; !ok {
				return apperror.NewFormatError(
					"order "+strconv.Itoa(i)+" is missing required field '"+field+"'", nil)
			}
		}

		var items []map[string]json.RawMessage
		if err := json.Unmarshal(order["breakdown"], &items); err != nil {
			return apperror.NewFormatError("order "+strconv.Itoa(i)+"'s breakdown is not an array", err)
		}
		for j, item := range items {
			for _, field := range itemFields {
				if _, ok := item[field]; !ok {
					return apperror.NewFormatError(
						"item "+strconv.Itoa(j)+" in order "+strconv.Itoa(i)+" is missing field '"+field+"'", nil)
				}
			}
		}
	}

	s.logger.Info("validation passed", "orders", len(orders))
	return nil
}

