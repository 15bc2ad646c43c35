package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
)

// FileOrderRepository stores the canonical order list as a single JSON array.
// Every mutation is a full load-modify-save; the save writes a temp file and
// renames it so readers never observe a partial write. A mutex serializes access
// within the process; concurrent processes race last-writer-wins, which is
// accepted for a single-terminal deployment.
type FileOrderRepository struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewFileOrderRepository creates a file-backed order repository.
func NewFileOrderRepository(path string, log *logger.Logger) *FileOrderRepository {
	return &FileOrderRepository{
		path:   path,
		logger: log.WithComponent("order_repository"),
	}
}

// Load reads the backing file. An absent file yields an empty slice; a
// malformed file yields an empty slice plus a format error so the caller can
// warn and continue with an empty store.
func (r *FileOrderRepository) Load(ctx context.Context) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileOrderRepository) load() ([]entity.Order, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entity.Order{}, nil
		}
		return []entity.Order{}, apperror.NewPersistenceError("failed to read order file", err)
	}
	if len(data) == 0 {
		return []entity.Order{}, nil
	}

	var orders []entity.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		r.logger.Warn("order file is not a well-formed order list", "path", r.path, "error", err)
		return []entity.Order{}, apperror.NewFormatError("order data format incorrect", err)
	}
	return orders, nil
}

func (r *FileOrderRepository) save(orders []entity.Order) error {
	data, err := json.MarshalIndent(orders, "", "    ")
	if err != nil {
		return apperror.NewPersistenceError("failed to marshal order data", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperror.NewPersistenceError("failed to create data directory", err)
		}
	}

	tempFile := r.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return apperror.NewPersistenceError("failed to write temporary order file", err)
	}
	if err := os.Rename(tempFile, r.path); err != nil {
		return apperror.NewPersistenceError("failed to replace order file", err)
	}
	return nil
}

// Upsert replaces the record with the same transaction id or appends a new
// one, then writes the full list back.
func (r *FileOrderRepository) Upsert(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil && !apperror.IsKind(err, apperror.KindFormat) {
		return err
	}

	replaced := false
	for i := range orders {
		if orders[i].TransactionID == order.TransactionID {
			orders[i] = *order
			replaced = true
			break
		}
	}
	if !replaced {
		orders = append(orders, *order)
	}

	if err := r.save(orders); err != nil {
		r.logger.Error("failed to save orders after upsert", "transaction_id", order.TransactionID, "error", err)
		return err
	}
	r.logger.Debug("upserted order", "transaction_id", order.TransactionID, "replaced", replaced)
	return nil
}

// FindByTransactionID returns nil without error when no order matches.
func (r *FileOrderRepository) FindByTransactionID(ctx context.Context, id string) (*entity.Order, error) {
	orders, err := r.Load(ctx)
	if err != nil && !apperror.IsKind(err, apperror.KindFormat) {
		return nil, err
	}
	for i := range orders {
		if orders[i].TransactionID == id {
			order := orders[i]
			return &order, nil
		}
	}
	return nil, nil
}

// ListActive returns orders with at least one unpaid line item.
func (r *FileOrderRepository) ListActive(ctx context.Context) ([]entity.Order, error) {
	return r.filter(ctx, func(o *entity.Order) bool { return o.IsActive() })
}

// ListHistory returns orders whose every line item is paid.
func (r *FileOrderRepository) ListHistory(ctx context.Context) ([]entity.Order, error) {
	return r.filter(ctx, func(o *entity.Order) bool { return o.IsHistory() })
}

func (r *FileOrderRepository) filter(ctx context.Context, keep func(*entity.Order) bool) ([]entity.Order, error) {
	orders, err := r.Load(ctx)
	if err != nil && !apperror.IsKind(err, apperror.KindFormat) {
		return nil, err
	}
	matched := make([]entity.Order, 0, len(orders))
	for i := range orders {
		if keep(&orders[i]) {
			matched = append(matched, orders[i])
		}
	}
	return matched, err
}

// AppendAll appends orders without replacing existing records. A malformed
// existing store is treated as empty, matching the merge engine's recovery
// behavior.
func (r *FileOrderRepository) AppendAll(ctx context.Context, orders []entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.load()
	if err != nil {
		if !apperror.IsKind(err, apperror.KindFormat) {
			return err
		}
		r.logger.Warn("existing order store unreadable, starting a new one", "path", r.path)
	}

	merged := append(existing, orders...)
	if err := r.save(merged); err != nil {
		return err
	}
	r.logger.Info("appended orders", "count", len(orders), "total", len(merged))
	return nil
}

// LastModified returns the backing file's modification time, or the zero
// time when the file does not exist yet.
func (r *FileOrderRepository) LastModified(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, apperror.NewPersistenceError("failed to stat order file", err)
	}
	return info.ModTime(), nil
}
