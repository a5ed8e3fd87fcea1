package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// RegisterItemInput carries the fields needed to stock a new part.
type RegisterItemInput struct {
	PartNumber        string
	Name              string
	Description       *string
	UnitCost          decimal.Decimal
	MinStockLevel     int
	MaxStockLevel     int
	PerformedByUserID string
}

// UpdateStockInput requests a new on-hand quantity and unit cost.
type UpdateStockInput struct {
	NewQuantity          int
	NewUnitCost          decimal.Decimal
	IsExplicitAdjustment bool
	PerformedByUserID    string
}

// StockLevelsInput replaces the reorder thresholds.
type StockLevelsInput struct {
	MinStockLevel     int
	MaxStockLevel     int
	PerformedByUserID string
}

// ItemDTO is the API shape of a registered inventory item.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	PartNumber  string    `json:"part_number"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Stock       *StockDTO `json:"stock,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockDTO is the API shape of a stock aggregate. Money is rendered with two decimals.
type StockDTO struct {
	ID                     uuid.UUID  `json:"id"`
	InventoryItemID        uuid.UUID  `json:"inventory_item_id"`
	QuantityOnHand         int        `json:"quantity_on_hand"`
	UnitCost               string     `json:"unit_cost"`
	MinStockLevel          int        `json:"min_stock_level"`
	MaxStockLevel          int        `json:"max_stock_level"`
	NeedsReorder           bool       `json:"needs_reorder"`
	SuggestedOrderQuantity int        `json:"suggested_order_quantity"`
	LastRestockedAt        *time.Time `json:"last_restocked_at,omitempty"`
	Version                int64      `json:"version"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// LedgerEntryDTO is the API shape of a ledger entry.
type LedgerEntryDTO struct {
	ID                int64                       `json:"id"`
	StockAggregateID  uuid.UUID                   `json:"stock_aggregate_id"`
	Kind              enums.LedgerTransactionKind `json:"kind"`
	QuantityDelta     int                         `json:"quantity_delta"`
	UnitCost          string                      `json:"unit_cost"`
	TotalCost         string                      `json:"total_cost"`
	PerformedByUserID string                      `json:"performed_by_user_id"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// StockUpdateResult reports the aggregate after an update and the entry it produced, if any.
type StockUpdateResult struct {
	Stock            StockDTO        `json:"stock"`
	Entry            *LedgerEntryDTO `json:"entry,omitempty"`
	Changed          bool            `json:"changed"`
	ReorderTriggered bool            `json:"reorder_triggered"`
}

func newItemDTO(item *models.InventoryItem) *ItemDTO {
	dto := &ItemDTO{
		ID:          item.ID,
		PartNumber:  item.PartNumber,
		Name:        item.Name,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
	}
	if item.Stock != nil {
		stock := newStockDTO(*item.Stock)
		dto.Stock = &stock
	}
	return dto
}

func newStockDTO(agg models.StockAggregate) StockDTO {
	return StockDTO{
		ID:                     agg.ID,
		InventoryItemID:        agg.InventoryItemID,
		QuantityOnHand:         agg.QuantityOnHand,
		UnitCost:               agg.UnitCost.StringFixed(2),
		MinStockLevel:          agg.MinStockLevel,
		MaxStockLevel:          agg.MaxStockLevel,
		NeedsReorder:           agg.NeedsReorder,
		SuggestedOrderQuantity: SuggestedOrderQuantity(agg),
		LastRestockedAt:        agg.LastRestockedAt,
		Version:                agg.Version,
		UpdatedAt:              agg.UpdatedAt,
	}
}

func newLedgerEntryDTO(entry models.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:                entry.ID,
		StockAggregateID:  entry.StockAggregateID,
		Kind:              entry.Kind,
		QuantityDelta:     entry.QuantityDelta,
		UnitCost:          entry.UnitCost.StringFixed(2),
		TotalCost:         entry.TotalCost.StringFixed(2),
		PerformedByUserID: entry.PerformedByUserID,
		CreatedAt:         entry.CreatedAt,
	}
}
