package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAggregate holds the on-hand quantity, cost and reorder thresholds for one inventory item.
// Version is bumped on every write and guards read-modify-write cycles.
type StockAggregate struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID       `gorm:"column:inventory_item_id;type:uuid;not null;uniqueIndex"`
	QuantityOnHand  int             `gorm:"column:quantity_on_hand;not null;default:0;check:chk_stock_quantity_non_negative,quantity_on_hand >= 0"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	MinStockLevel   int             `gorm:"column:min_stock_level;not null;default:0"`
	MaxStockLevel   int             `gorm:"column:max_stock_level;not null;default:0;check:chk_stock_levels_ordered,max_stock_level >= min_stock_level"`
	NeedsReorder    bool            `gorm:"column:needs_reorder;not null;default:false"`
	LastRestockedAt *time.Time      `gorm:"column:last_restocked_at"`
	Version         int64           `gorm:"column:version;not null;default:1"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StockAggregate) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
