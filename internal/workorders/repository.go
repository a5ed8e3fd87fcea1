package workorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

var closedStatuses = []enums.WorkOrderStatus{enums.WorkOrderStatusCompleted, enums.WorkOrderStatusCanceled}

// Repository persists work orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWorkOrder(ctx context.Context, order *models.WorkOrder) error
	FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	LockOpenWorkOrder(ctx context.Context, id uuid.UUID) (int64, error)
	UpdateStatusIfOpen(ctx context.Context, id uuid.UUID, status enums.WorkOrderStatus) (int64, error)
	CreateLineItem(ctx context.Context, item *models.WorkOrderLineItem) error
	SaveLineItem(ctx context.Context, item *models.WorkOrderLineItem) error
	DeleteLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID) (int64, error)
	FindLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID) (*models.WorkOrderLineItem, error)
	ListLineItems(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderLineItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a work order repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateWorkOrder(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOpenWorkOrder touches the work order row only while it is still open. The write
// holds the row lock until the surrounding transaction ends, so a concurrent status
// change either lands first (0 rows) or waits for the line item write.
func (r *repository) LockOpenWorkOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("id = ? AND status NOT IN ?", id, closedStatuses).
		Update("updated_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatusIfOpen(ctx context.Context, id uuid.UUID, status enums.WorkOrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("id = ? AND status NOT IN ?", id, closedStatuses).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateLineItem(ctx context.Context, item *models.WorkOrderLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveLineItem writes every column, including nil pointers, so cleared fields become NULL.
func (r *repository) SaveLineItem(ctx context.Context, item *models.WorkOrderLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND work_order_id = ?", lineItemID, workOrderID).
		Delete(&models.WorkOrderLineItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID) (*models.WorkOrderLineItem, error) {
	var item models.WorkOrderLineItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND work_order_id = ?", lineItemID, workOrderID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLineItems returns the lines of a work order in creation order.
func (r *repository) ListLineItems(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderLineItem, error) {
	var items []models.WorkOrderLineItem
	if err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
