package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
)

// orderRow is the relational shape of an order. The breakdown keeps the
// canonical JSON form so both backends share one line-item codec.
type orderRow struct {
	TransactionID   string         `gorm:"primaryKey;size:64"`
	TableID         string         `gorm:"size:32;index"`
	TransactionTime string         `gorm:"size:32"`
	Breakdown       datatypes.JSON `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (orderRow) TableName() string {
	return "orders"
}

func newOrderRow(order *entity.Order) (*orderRow, error) {
	breakdown, err := json.Marshal(order.Breakdown)
	if err != nil {
		return nil, apperror.NewPersistenceError("failed to marshal breakdown", err)
	}
	return &orderRow{
		TransactionID:   order.TransactionID,
		TableID:         order.TableID,
		TransactionTime: order.TransactionTime,
		Breakdown:       datatypes.JSON(breakdown),
	}, nil
}

func (r *orderRow) toOrder() (entity.Order, error) {
	order := entity.Order{
		TransactionID:   r.TransactionID,
		TableID:         r.TableID,
		TransactionTime: r.TransactionTime,
		Breakdown:       []entity.LineItem{},
	}
	if len(r.Breakdown) > 0 {
		if err := json.Unmarshal(r.Breakdown, &order.Breakdown); err != nil {
			return order, apperror.NewFormatError("order breakdown format incorrect", err)
		}
	}
	return order, nil
}

// GormOrderRepository implements OrderRepository over a relational store.
// Selected when the storage driver is "postgres".
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a database-backed order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate runs migrations for the order tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&orderRow{})
}

// Load returns every order in the store.
func (r *GormOrderRepository) Load(ctx context.Context) ([]entity.Order, error) {
	var rows []orderRow
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, apperror.NewPersistenceError("failed to load orders", err)
	}

	orders := make([]entity.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toOrder()
		if err != nil {
			return []entity.Order{}, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Upsert replaces the row with the same transaction id or inserts a new one.
func (r *GormOrderRepository) Upsert(ctx context.Context, order *entity.Order) error {
	row, err := newOrderRow(order)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return apperror.NewPersistenceError("failed to upsert order", err)
	}
	return nil
}

// FindByTransactionID returns nil without error when no order matches.
func (r *GormOrderRepository) FindByTransactionID(ctx context.Context, id string) (*entity.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.NewPersistenceError("failed to find order", err)
	}
	order, err := row.toOrder()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListActive returns orders with at least one unpaid line item. Active state
// is derived from the breakdown, so filtering happens after decode.
func (r *GormOrderRepository) ListActive(ctx context.Context) ([]entity.Order, error) {
	return r.filter(ctx, func(o *entity.Order) bool { return o.IsActive() })
}

// ListHistory returns orders whose every line item is paid.
func (r *GormOrderRepository) ListHistory(ctx context.Context) ([]entity.Order, error) {
	return r.filter(ctx, func(o *entity.Order) bool { return o.IsHistory() })
}

func (r *GormOrderRepository) filter(ctx context.Context, keep func(*entity.Order) bool) ([]entity.Order, error) {
	orders, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]entity.Order, 0, len(orders))
	for i := range orders {
		if keep(&orders[i]) {
			matched = append(matched, orders[i])
		}
	}
	return matched, nil
}

// AppendAll inserts orders without replacing existing records.
func (r *GormOrderRepository) AppendAll(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	rows := make([]orderRow, 0, len(orders))
	for i := range orders {
		row, err := newOrderRow(&orders[i])
		if err != nil {
			return err
		}
		rows = append(rows, *row)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return apperror.NewPersistenceError("failed to append orders", err)
	}
	return nil
}

// LastModified returns the latest row update time, or the zero time for an
// empty store.
func (r *GormOrderRepository) LastModified(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.db.WithContext(ctx).Model(&orderRow{}).Select("max(updated_at)").Scan(&latest).Error
	if err != nil {
		return time.Time{}, apperror.NewPersistenceError("failed to read store modification time", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
