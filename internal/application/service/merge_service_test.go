package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	infraRepo "github.com/FrostIris6/pub-ledger/internal/infrastructure/repository"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

type mergeFixture struct {
	svc        *MergeService
	orders     *infraRepo.FileOrderRepository
	sourcePath string
	targetPath string
}

func newMergeFixture(t *testing.T) *mergeFixture {
	t.Helper()
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "legacy", "OrderDB.json")
	targetPath := filepath.Join(dir, "OrderDB.json")
	if err := os.MkdirAll(filepath.Dir(sourcePath), 0o755); err != nil {
		t.Fatal(err)
	}

	log := testLogger()
	orders := infraRepo.NewFileOrderRepository(targetPath, log)
	productIDs := infraRepo.NewFileProductIDMap(filepath.Join(dir, "product_id_mapping.json"), log)
	return &mergeFixture{
		svc:        NewMergeService(orders, productIDs, sourcePath, targetPath, log),
		orders:     orders,
		sourcePath: sourcePath,
		targetPath: targetPath,
	}
}

const legacySource = `[
    {
        "transaction_id": "1001",
        "table_id": 5,
        "transaction_time": "2024-03-01 19:30:00",
        "breakdown": [
            {
                "product_id": "mojito",
                "price": 32.0,
                "amount": 2,
                "specification": "extra mint",
                "note": "no ice"
            },
            {
                "product_id": "negroni"
            }
        ]
    }
]`

func TestMergeTransformsLegacyOrders(t *testing.T) {
	f := newMergeFixture(t)
	writeFile(t, f.sourcePath, legacySource)

	report, err := f.svc.Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Merged != 1 || len(report.Skipped) != 0 {
		t.Fatalf("report = %+v, want 1 merged, 0 skipped", report)
	}

	orders, err := f.orders.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order in the store, got %d", len(orders))
	}

	order := orders[0]
	if order.TransactionID != "1001" || order.TableID != "5" {
		t.Errorf("order header = %q/%q, want 1001/5", order.TransactionID, order.TableID)
	}
	if len(order.Breakdown) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Breakdown))
	}

	first := order.Breakdown[0]
	if first.ProductID != entity.ProductIDFromInt(100) {
		t.Errorf("first product id = %v, want 100", first.ProductID)
	}
	if first.Specification != "mojito - extra mint (no ice)" {
		t.Errorf("specification = %q, want legacy key folded with qualifiers", first.Specification)
	}
	if first.Price != 32.0 || first.Amount != 2 {
		t.Errorf("first item = %+v, want price 32.0 amount 2", first)
	}

	// the bare item falls back to price 0, amount 1, key-only specification
	second := order.Breakdown[1]
	if second.ProductID != entity.ProductIDFromInt(101) {
		t.Errorf("second product id = %v, want 101", second.ProductID)
	}
	if second.Price != 0 || second.Amount != 1 || second.Specification != "negroni" {
		t.Errorf("second item = %+v, want defaults", second)
	}
}

func TestMergePromotesSingleObject(t *testing.T) {
	f := newMergeFixture(t)
	writeFile(t, f.sourcePath, `{
        "table_id": "3",
        "breakdown": [{"product_id": "spritz", "price": 12.0, "amount": 1}]
    }`)

	report, err := f.svc.Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Merged != 1 {
		t.Fatalf("report = %+v, want 1 merged", report)
	}

	orders, _ := f.orders.Load(context.Background())
	if orders[0].TransactionID != "unknown-0" {
		t.Errorf("missing transaction id must be synthesized, got %q", orders[0].TransactionID)
	}
	if orders[0].TransactionTime == "" {
		t.Error("missing transaction time must be filled in")
	}
}

func TestMergeSkipsBrokenOrders(t *testing.T) {
	f := newMergeFixture(t)
	writeFile(t, f.sourcePath, `[
        {"transaction_id": "1001", "table_id": "5", "breakdown": "not an array"},
        {"transaction_id": "1002", "table_id": "6", "breakdown": [{"product_id": "mojito", "price": 30.0, "amount": 1}]}
    ]`)

	report, err := f.svc.Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Merged != 1 {
		t.Errorf("merged = %d, want 1", report.Merged)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Index != 0 {
		t.Errorf("skipped = %+v, want the first order", report.Skipped)
	}
}

func TestMergeRejectsUnusableSource(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"empty file", ""},
		{"not json", "hello"},
		{"scalar root", `42`},
		{"all orders broken", `[{"breakdown": "nope"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMergeFixture(t)
			writeFile(t, f.sourcePath, tt.contents)

			_, err := f.svc.Merge(context.Background())
			if !apperror.IsKind(err, apperror.KindFormat) {
				t.Errorf("expected a format error, got %v", err)
			}
		})
	}
}

func TestAutoMergeWithoutSource(t *testing.T) {
	f := newMergeFixture(t)

	report, err := f.svc.AutoMerge(context.Background())
	if err != nil {
		t.Fatalf("AutoMerge: %v", err)
	}
	if report != nil {
		t.Errorf("absent source must merge nothing, got %+v", report)
	}
}

func TestAutoMergeRunsOncePerSourceChange(t *testing.T) {
	f := newMergeFixture(t)
	ctx := context.Background()
	writeFile(t, f.sourcePath, legacySource)

	report, err := f.svc.AutoMerge(ctx)
	if err != nil {
		t.Fatalf("AutoMerge: %v", err)
	}
	if report == nil || report.Merged != 1 {
		t.Fatalf("first run must merge, got %+v", report)
	}

	// the store is now at least as fresh as the source
	report, err = f.svc.AutoMerge(ctx)
	if err != nil {
		t.Fatalf("AutoMerge rerun: %v", err)
	}
	if report != nil {
		t.Errorf("unchanged source must not merge again, got %+v", report)
	}

	// touching the source past the store triggers another run
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(f.sourcePath, future, future); err != nil {
		t.Fatal(err)
	}
	report, err = f.svc.AutoMerge(ctx)
	if err != nil {
		t.Fatalf("AutoMerge after touch: %v", err)
	}
	if report == nil || report.Merged != 1 {
		t.Errorf("updated source must merge again, got %+v", report)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  bool
	}{
		{
			name: "well-formed store",
			contents: `[{
                "transaction_id": "1001",
                "table_id": "5",
                "transaction_time": "2024-03-01 19:30:00",
                "breakdown": [{"product_id": 101, "price": 32.0, "amount": 1, "specification": "mojito", "is_paid": false}]
            }]`,
			wantErr: false,
		},
		{
			name:     "empty array",
			contents: `[]`,
			wantErr:  false,
		},
		{
			name:     "root is not an array",
			contents: `{"transaction_id": "1001"}`,
			wantErr:  true,
		},
		{
			name: "order missing a required field",
			contents: `[{
                "transaction_id": "1001",
                "table_id": "5",
                "breakdown": []
            }]`,
			wantErr: true,
		},
		{
			name: "item missing a required field",
			contents: `[{
                "transaction_id": "1001",
                "table_id": "5",
                "transaction_time": "2024-03-01 19:30:00",
                "breakdown": [{"product_id": 101, "price": 32.0}]
            }]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMergeFixture(t)
			writeFile(t, f.targetPath, tt.contents)

			err := f.svc.Validate(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsLedgerWrittenStore(t *testing.T) {
	f := newMergeFixture(t)
	ctx := context.Background()

	// an order written by the ledger itself, items without a qualifier
	orders := NewOrderService(f.orders, testLogger())
	order, err := orders.CreateOrder(ctx, "5")
	if err != nil {
		t.Fatal(err)
	}
	if err := orders.AddItem(ctx, order, AddItemInput{ProductID: "101", Price: 32.0}); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Validate(ctx); err != nil {
		t.Errorf("store written by the ledger must validate, got %v", err)
	}
}

func TestMergeKeepsDiagnosticsWhenNothingConverted(t *testing.T) {
	f := newMergeFixture(t)
	writeFile(t, f.sourcePath, `[
        {"transaction_id": "1001", "breakdown": "nope"},
        {"transaction_id": "1002", "breakdown": 42}
    ]`)

	report, err := f.svc.Merge(context.Background())
	if !apperror.IsKind(err, apperror.KindFormat) {
		t.Fatalf("expected a format error, got %v", err)
	}
	if report == nil {
		t.Fatal("failed run must still return the per-order diagnostics")
	}
	if report.Merged != 0 || len(report.Skipped) != 2 {
		t.Errorf("report = %+v, want 0 merged, 2 skipped", report)
	}
	if report.Skipped[0].Index != 0 || report.Skipped[1].Index != 1 {
		t.Errorf("skipped indexes = %+v, want 0 and 1", report.Skipped)
	}
}

func TestValidateRequiresFileStore(t *testing.T) {
	f := newMergeFixture(t)
	f.svc.targetPath = ""

	err := f.svc.Validate(context.Background())
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("validation without a file store must be rejected, got %v", err)
	}
}
