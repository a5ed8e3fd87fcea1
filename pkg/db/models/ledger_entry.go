package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// LedgerEntry records an immutable quantity or cost change applied to a stock aggregate.
// QuantityDelta is always non-negative; Kind carries the direction.
type LedgerEntry struct {
	ID                int64                       `gorm:"column:id;primaryKey;autoIncrement"`
	StockAggregateID  uuid.UUID                   `gorm:"column:stock_aggregate_id;type:uuid;not null;index"`
	Kind              enums.LedgerTransactionKind `gorm:"column:kind;type:ledger_transaction_kind;not null"`
	QuantityDelta     int                         `gorm:"column:quantity_delta;not null;check:chk_ledger_delta_non_negative,quantity_delta >= 0"`
	UnitCost          decimal.Decimal             `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	TotalCost         decimal.Decimal             `gorm:"column:total_cost;type:numeric(14,2);not null"`
	PerformedByUserID string                      `gorm:"column:performed_by_user_id;not null"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string {
	return "inventory_ledger_entries"
}
