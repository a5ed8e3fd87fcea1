package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is a stocked part that work orders can consume.
type InventoryItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PartNumber  string          `gorm:"column:part_number;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	Stock       *StockAggregate `gorm:"foreignKey:InventoryItemID;references:ID"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
