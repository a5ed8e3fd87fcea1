package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
)

// Payload is the type-specific part of a line item. The concrete type decides
// which cost components apply.
type Payload interface {
	Type() enums.LineItemType
	payload()
}

// PartsPayload bills stocked parts.
type PartsPayload struct {
	InventoryItemID uuid.UUID
	UnitPrice       decimal.Decimal
	Quantity        int
}

// LaborPayload bills technician time. Quantity is always one.
type LaborPayload struct {
	HourlyRate decimal.Decimal
	LaborHours decimal.Decimal
}

// BothPayload bills parts and the labor to fit them.
type BothPayload struct {
	PartsPayload
	LaborPayload
}

func (PartsPayload) Type() enums.LineItemType { return enums.LineItemTypeParts }
func (LaborPayload) Type() enums.LineItemType { return enums.LineItemTypeLabor }
func (BothPayload) Type() enums.LineItemType  { return enums.LineItemTypeBoth }

func (PartsPayload) payload() {}
func (LaborPayload) payload() {}
func (BothPayload) payload()  {}

// LineItem is a validated work order line.
type LineItem struct {
	AssignedToUserID string
	Description      *string
	Payload          Payload
}

// Type returns the payload's line item type.
func (l LineItem) Type() enums.LineItemType {
	if l.Payload == nil {
		return ""
	}
	return l.Payload.Type()
}

// Quantity is the billed unit count; labor lines always bill one.
func (l LineItem) Quantity() int {
	switch p := l.Payload.(type) {
	case PartsPayload:
		return p.Quantity
	case BothPayload:
		return p.Quantity
	default:
		return 1
	}
}

// InventoryItemID returns the referenced part, if the line carries one.
func (l LineItem) InventoryItemID() (uuid.UUID, bool) {
	switch p := l.Payload.(type) {
	case PartsPayload:
		return p.InventoryItemID, true
	case BothPayload:
		return p.InventoryItemID, true
	}
	return uuid.Nil, false
}

// Draft is the flat, nullable shape line items take at the API and storage boundary.
type Draft struct {
	ItemType         enums.LineItemType
	InventoryItemID  *uuid.UUID
	UnitPrice        *decimal.Decimal
	HourlyRate       *decimal.Decimal
	LaborHours       *decimal.Decimal
	Quantity         int
	AssignedToUserID string
	Description      *string
}

// Flatten converts a validated line item back to its boundary shape.
func (l LineItem) Flatten() Draft {
	d := Draft{
		ItemType:         l.Type(),
		Quantity:         l.Quantity(),
		AssignedToUserID: l.AssignedToUserID,
		Description:      l.Description,
	}
	switch p := l.Payload.(type) {
	case PartsPayload:
		d.setParts(p)
	case LaborPayload:
		d.setLabor(p)
	case BothPayload:
		d.setParts(p.PartsPayload)
		d.setLabor(p.LaborPayload)
	}
	return d
}

func (d *Draft) setParts(p PartsPayload) {
	id := p.InventoryItemID
	price := p.UnitPrice
	d.InventoryItemID = &id
	d.UnitPrice = &price
}

func (d *Draft) setLabor(p LaborPayload) {
	rate := p.HourlyRate
	hours := p.LaborHours
	d.HourlyRate = &rate
	d.LaborHours = &hours
}
