package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// WorkOrder is the minimal projection of a maintenance work order the costing engine needs.
type WorkOrder struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number    string                `gorm:"column:number;not null;uniqueIndex"`
	VehicleID uuid.UUID             `gorm:"column:vehicle_id;type:uuid;not null"`
	Status    enums.WorkOrderStatus `gorm:"column:status;type:work_order_status;not null;default:'open'"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
	LineItems []WorkOrderLineItem   `gorm:"foreignKey:WorkOrderID;references:ID"`
}

func (w *WorkOrder) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
