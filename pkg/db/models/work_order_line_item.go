package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// WorkOrderLineItem is the flattened storage shape of a billable work order entry.
// Parts columns are set only for parts/both lines and labor columns only for labor/both lines.
// Costs are never stored; they are derived from these columns on read.
type WorkOrderLineItem struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	WorkOrderID      uuid.UUID          `gorm:"column:work_order_id;type:uuid;not null;index"`
	ServiceTaskID    uuid.UUID          `gorm:"column:service_task_id;type:uuid;not null"`
	ItemType         enums.LineItemType `gorm:"column:item_type;type:line_item_type;not null"`
	InventoryItemID  *uuid.UUID         `gorm:"column:inventory_item_id;type:uuid"`
	UnitPrice        *decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2)"`
	HourlyRate       *decimal.Decimal   `gorm:"column:hourly_rate;type:numeric(12,2)"`
	LaborHours       *decimal.Decimal   `gorm:"column:labor_hours;type:numeric(5,2)"`
	Quantity         int                `gorm:"column:quantity;not null;check:chk_line_item_quantity_positive,quantity > 0"`
	AssignedToUserID string             `gorm:"column:assigned_to_user_id;not null"`
	Description      *string            `gorm:"column:description"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *WorkOrderLineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
