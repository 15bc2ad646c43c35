package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.LevelError, Format: "text", Output: "stderr"})
}

func testOrder(txid string, paid ...bool) entity.Order {
	items := make([]entity.LineItem, len(paid))
	for i, p := range paid {
		items[i] = entity.LineItem{ProductID: entity.ProductIDFromInt(100 + i), Price: 10, Amount: 1, IsPaid: p}
	}
	return entity.Order{
		TransactionID:   txid,
		TableID:         "5",
		TransactionTime: "2024-03-01 19:30:00",
		Breakdown:       items,
	}
}

func TestFileOrderRepositoryLoadAbsent(t *testing.T) {
	repo := NewFileOrderRepository(filepath.Join(t.TempDir(), "OrderDB.json"), testLogger())

	orders, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("absent file must yield an empty store, got %d orders", len(orders))
	}
}

func TestFileOrderRepositoryLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OrderDB.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"`), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileOrderRepository(path, testLogger())

	orders, err := repo.Load(context.Background())
	if !apperror.IsKind(err, apperror.KindFormat) {
		t.Fatalf("malformed file must report a format error, got %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("malformed file must still yield an empty store, got %v", orders)
	}
}

func TestFileOrderRepositoryLoadNumericIdentifiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OrderDB.json")
	contents := `[{
        "transaction_id": 1001,
        "table_id": 5,
        "transaction_time": "2024-03-01 19:30:00",
        "breakdown": [{"product_id": 101, "price": 32.0, "amount": 1, "specification": "", "is_paid": false}]
    }]`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileOrderRepository(path, testLogger())

	orders, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("numeric identifiers must not break the store, got %v", err)
	}
	if len(orders) != 1 || orders[0].TransactionID != "1001" || orders[0].TableID != "5" {
		t.Errorf("orders = %v, want one order with string ids 1001/5", orders)
	}

	found, err := repo.FindByTransactionID(context.Background(), "1001")
	if err != nil || found == nil {
		t.Errorf("coerced id must be matchable, got %v, %v", found, err)
	}
}

func TestFileOrderRepositoryUpsert(t *testing.T) {
	repo := NewFileOrderRepository(filepath.Join(t.TempDir(), "OrderDB.json"), testLogger())
	ctx := context.Background()

	order := testOrder("1001", false)
	if err := repo.Upsert(ctx, &order); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// same id replaces, never duplicates
	order.TableID = "7"
	if err := repo.Upsert(ctx, &order); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	orders, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order after replacing upsert, got %d", len(orders))
	}
	if orders[0].TableID != "7" {
		t.Errorf("upsert did not replace the record, table_id = %q", orders[0].TableID)
	}

	other := testOrder("1002", false)
	if err := repo.Upsert(ctx, &other); err != nil {
		t.Fatalf("Upsert append: %v", err)
	}
	orders, _ = repo.Load(ctx)
	if len(orders) != 2 {
		t.Errorf("expected 2 orders after appending upsert, got %d", len(orders))
	}
}

func TestFileOrderRepositoryPartition(t *testing.T) {
	repo := NewFileOrderRepository(filepath.Join(t.TempDir(), "OrderDB.json"), testLogger())
	ctx := context.Background()

	active := testOrder("1001", false, true)
	settled := testOrder("1002", true, true)
	for _, o := range []entity.Order{active, settled} {
		if err := repo.Upsert(ctx, &o); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].TransactionID != "1001" {
		t.Errorf("ListActive = %v, want order 1001 only", got)
	}

	got, err = repo.ListHistory(ctx)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 1 || got[0].TransactionID != "1002" {
		t.Errorf("ListHistory = %v, want order 1002 only", got)
	}
}

func TestFileOrderRepositoryAppendAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OrderDB.json")
	repo := NewFileOrderRepository(path, testLogger())
	ctx := context.Background()

	first := testOrder("1001", false)
	if err := repo.Upsert(ctx, &first); err != nil {
		t.Fatal(err)
	}
	if err := repo.AppendAll(ctx, []entity.Order{testOrder("1002", false), testOrder("1003", true)}); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	orders, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 3 {
		t.Errorf("expected 3 orders after append, got %d", len(orders))
	}
}

func TestFileOrderRepositoryAppendAllOverMalformedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OrderDB.json")
	if err := os.WriteFile(path, []byte(`garbage`), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileOrderRepository(path, testLogger())
	ctx := context.Background()

	if err := repo.AppendAll(ctx, []entity.Order{testOrder("1001", false)}); err != nil {
		t.Fatalf("AppendAll over malformed store: %v", err)
	}
	orders, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load after recovery: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected a fresh store with 1 order, got %d", len(orders))
	}
}

func TestFileOrderRepositoryFindByTransactionID(t *testing.T) {
	repo := NewFileOrderRepository(filepath.Join(t.TempDir(), "OrderDB.json"), testLogger())
	ctx := context.Background()

	order := testOrder("1001", false)
	if err := repo.Upsert(ctx, &order); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByTransactionID(ctx, "1001")
	if err != nil {
		t.Fatalf("FindByTransactionID: %v", err)
	}
	if found == nil || found.TransactionID != "1001" {
		t.Errorf("FindByTransactionID = %v, want order 1001", found)
	}

	missing, err := repo.FindByTransactionID(ctx, "9999")
	if err != nil {
		t.Fatalf("FindByTransactionID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing id must return nil without error, got %v", missing)
	}
}

func TestFileOrderRepositoryLastModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OrderDB.json")
	repo := NewFileOrderRepository(path, testLogger())
	ctx := context.Background()

	mtime, err := repo.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified absent: %v", err)
	}
	if !mtime.IsZero() {
		t.Errorf("absent store must report the zero time, got %v", mtime)
	}

	order := testOrder("1001", false)
	if err := repo.Upsert(ctx, &order); err != nil {
		t.Fatal(err)
	}
	mtime, err = repo.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	if mtime.IsZero() {
		t.Error("written store must report a non-zero modification time")
	}
}
