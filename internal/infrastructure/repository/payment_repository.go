package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
)

// FilePaymentRepository stores payment records as an append-only JSON array.
type FilePaymentRepository struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewFilePaymentRepository creates a file-backed payment ledger.
func NewFilePaymentRepository(path string, log *logger.Logger) *FilePaymentRepository {
	return &FilePaymentRepository{
		path:   path,
		logger: log.WithComponent("payment_repository"),
	}
}

func (r *FilePaymentRepository) load() ([]entity.PaymentRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entity.PaymentRecord{}, nil
		}
		return nil, apperror.NewPersistenceError("failed to read payment file", err)
	}
	if len(data) == 0 {
		return []entity.PaymentRecord{}, nil
	}

	var records []entity.PaymentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []entity.PaymentRecord{}, apperror.NewFormatError("payment data format incorrect", err)
	}
	return records, nil
}

// Append adds a record to the ledger. Records are never rewritten.
func (r *FilePaymentRepository) Append(ctx context.Context, record *entity.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		if !apperror.IsKind(err, apperror.KindFormat) {
			return err
		}
		r.logger.Warn("payment ledger unreadable, starting a new one", "path", r.path)
	}

	records = append(records, *record)

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return apperror.NewPersistenceError("failed to marshal payment data", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperror.NewPersistenceError("failed to create data directory", err)
		}
	}
	tempFile := r.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return apperror.NewPersistenceError("failed to write temporary payment file", err)
	}
	if err := os.Rename(tempFile, r.path); err != nil {
		return apperror.NewPersistenceError("failed to replace payment file", err)
	}

	r.logger.Info("appended payment record", "payment_id", record.PaymentID, "transaction_id", record.TransactionID)
	return nil
}

// ListByTransactionID returns every record for one order.
func (r *FilePaymentRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]entity.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil && !apperror.IsKind(err, apperror.KindFormat) {
		return nil, err
	}

	matched := make([]entity.PaymentRecord, 0)
	for i := range records {
		if records[i].TransactionID == transactionID {
			matched = append(matched, records[i])
		}
	}
	return matched, nil
}
