package workorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/internal/costing"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// OpenWorkOrderInput registers a work order so line items can be attached.
type OpenWorkOrderInput struct {
	Number    string
	VehicleID uuid.UUID
}

// LineItemInput is a line item write request in its flat boundary shape.
type LineItemInput struct {
	ServiceTaskID     uuid.UUID
	Draft             costing.Draft
	PerformedByUserID string
}

type WorkOrderDTO struct {
	ID        uuid.UUID             `json:"id"`
	Number    string                `json:"number"`
	VehicleID uuid.UUID             `json:"vehicle_id"`
	Status    enums.WorkOrderStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

// CostDTO renders derived costs with two decimals.
type CostDTO struct {
	ItemCost  string `json:"item_cost"`
	LaborCost string `json:"labor_cost"`
	TotalCost string `json:"total_cost"`
}

type LineItemDTO struct {
	ID               uuid.UUID          `json:"id"`
	WorkOrderID      uuid.UUID          `json:"work_order_id"`
	ServiceTaskID    uuid.UUID          `json:"service_task_id"`
	ItemType         enums.LineItemType `json:"item_type"`
	InventoryItemID  *uuid.UUID         `json:"inventory_item_id,omitempty"`
	UnitPrice        *string            `json:"unit_price,omitempty"`
	HourlyRate       *string            `json:"hourly_rate,omitempty"`
	LaborHours       *string            `json:"labor_hours,omitempty"`
	Quantity         int                `json:"quantity"`
	AssignedToUserID string             `json:"assigned_to_user_id"`
	Description      *string            `json:"description,omitempty"`
	CostDTO
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreviewDTO is a priced draft that was not persisted.
type PreviewDTO struct {
	ItemType enums.LineItemType `json:"item_type"`
	Quantity int                `json:"quantity"`
	CostDTO
}

// CostSummaryDTO is what invoicing reads: every costed line plus the totals.
type CostSummaryDTO struct {
	WorkOrderID    uuid.UUID     `json:"work_order_id"`
	LineItems      []LineItemDTO `json:"line_items"`
	TotalItemCost  string        `json:"total_item_cost"`
	TotalLaborCost string        `json:"total_labor_cost"`
	TotalCost      string        `json:"total_cost"`
}

func newWorkOrderDTO(order *models.WorkOrder) *WorkOrderDTO {
	return &WorkOrderDTO{
		ID:        order.ID,
		Number:    order.Number,
		VehicleID: order.VehicleID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}
}

func newCostDTO(c costing.Costs) CostDTO {
	return CostDTO{
		ItemCost:  c.ItemCost.StringFixed(2),
		LaborCost: c.LaborCost.StringFixed(2),
		TotalCost: c.TotalCost.StringFixed(2),
	}
}

func newLineItemDTO(row models.WorkOrderLineItem, costed costing.CostedLineItem) LineItemDTO {
	return LineItemDTO{
		ID:               row.ID,
		WorkOrderID:      row.WorkOrderID,
		ServiceTaskID:    row.ServiceTaskID,
		ItemType:         row.ItemType,
		InventoryItemID:  row.InventoryItemID,
		UnitPrice:        fixed(row.UnitPrice),
		HourlyRate:       fixed(row.HourlyRate),
		LaborHours:       fixed(row.LaborHours),
		Quantity:         row.Quantity,
		AssignedToUserID: row.AssignedToUserID,
		Description:      row.Description,
		CostDTO:          newCostDTO(costed.Costs),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func fixed(v *decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	s := v.StringFixed(2)
	return &s
}

func draftFromModel(row models.WorkOrderLineItem) costing.Draft {
	return costing.Draft{
		ItemType:         row.ItemType,
		InventoryItemID:  row.InventoryItemID,
		UnitPrice:        row.UnitPrice,
		HourlyRate:       row.HourlyRate,
		LaborHours:       row.LaborHours,
		Quantity:         row.Quantity,
		AssignedToUserID: row.AssignedToUserID,
		Description:      row.Description,
	}
}

// applyLineItem copies a validated line onto its storage row.
func applyLineItem(row *models.WorkOrderLineItem, serviceTaskID uuid.UUID, item costing.LineItem) {
	d := item.Flatten()
	row.ServiceTaskID = serviceTaskID
	row.ItemType = d.ItemType
	row.InventoryItemID = d.InventoryItemID
	row.UnitPrice = d.UnitPrice
	row.HourlyRate = d.HourlyRate
	row.LaborHours = d.LaborHours
	row.Quantity = d.Quantity
	row.AssignedToUserID = d.AssignedToUserID
	row.Description = d.Description
}
