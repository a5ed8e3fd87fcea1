package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
)

// ErrVersionConflict is returned when a stock write loses the version race.
var ErrVersionConflict = errors.New("stock aggregate version conflict")

// Repository persists inventory items and their stock aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	CreateStock(ctx context.Context, stock *models.StockAggregate) error
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
	FindStockByItemID(ctx context.Context, itemID uuid.UUID) (*models.StockAggregate, error)
	SaveStockIfVersion(ctx context.Context, stock *models.StockAggregate, expectedVersion int64) error
	ListReorderCandidates(ctx context.Context, limit int) ([]models.StockAggregate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds an inventory repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *repository) CreateStock(ctx context.Context, stock *models.StockAggregate) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Preload("Stock").
		Where("id = ?", itemID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindStockByItemID(ctx context.Context, itemID uuid.UUID) (*models.StockAggregate, error) {
	var stock models.StockAggregate
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// SaveStockIfVersion writes every mutable column and bumps the version, but only
// when the stored version still equals expectedVersion.
func (r *repository) SaveStockIfVersion(ctx context.Context, stock *models.StockAggregate, expectedVersion int64) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.StockAggregate{}).
		Where("id = ? AND version = ?", stock.ID, expectedVersion).
		Updates(map[string]any{
			"quantity_on_hand":  stock.QuantityOnHand,
			"unit_cost":         stock.UnitCost,
			"min_stock_level":   stock.MinStockLevel,
			"max_stock_level":   stock.MaxStockLevel,
			"needs_reorder":     stock.NeedsReorder,
			"last_restocked_at": stock.LastRestockedAt,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	stock.Version = expectedVersion + 1
	stock.UpdatedAt = now
	return nil
}

// ListReorderCandidates returns aggregates flagged for reorder, lowest stock first.
func (r *repository) ListReorderCandidates(ctx context.Context, limit int) ([]models.StockAggregate, error) {
	var rows []models.StockAggregate
	if err := r.db.WithContext(ctx).
		Where("needs_reorder = ?", true).
		Order("quantity_on_hand ASC").
		Order("inventory_item_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
