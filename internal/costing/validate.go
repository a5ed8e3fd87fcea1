package costing

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
)

const MaxDescriptionLength = 500

// MoneyPlaces is the scale of the stored price, rate and hours columns.
const MoneyPlaces = 2

var maxLaborHours = decimal.NewFromInt(24)

type rule int

const (
	forbidden rule = iota
	required
)

// fieldRules is the per-type presence matrix for the nullable draft columns.
var fieldRules = map[enums.LineItemType]struct {
	inventoryItem, unitPrice, hourlyRate, laborHours rule
}{
	enums.LineItemTypeParts: {inventoryItem: required, unitPrice: required, hourlyRate: forbidden, laborHours: forbidden},
	enums.LineItemTypeLabor: {inventoryItem: forbidden, unitPrice: forbidden, hourlyRate: required, laborHours: required},
	enums.LineItemTypeBoth:  {inventoryItem: required, unitPrice: required, hourlyRate: required, laborHours: required},
}

// Validate checks a draft against the line item matrix and returns the typed line.
// Every violation is reported, keyed by field.
func Validate(d Draft) (LineItem, error) {
	var errs error

	if d.AssignedToUserID == "" {
		errs = multierr.Append(errs, pkgerrors.Field("assigned_to_user_id", "is required"))
	}
	if d.Description != nil && utf8.RuneCountInString(*d.Description) > MaxDescriptionLength {
		errs = multierr.Append(errs, pkgerrors.Field("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)))
	}

	rules, ok := fieldRules[d.ItemType]
	if !ok {
		errs = multierr.Append(errs, pkgerrors.Field("item_type", fmt.Sprintf("must be one of parts, labor, both; got %q", d.ItemType)))
		return LineItem{}, pkgerrors.FromFieldErrors(errs)
	}

	errs = multierr.Append(errs, checkUUID("inventory_item_id", d.InventoryItemID, rules.inventoryItem))
	errs = multierr.Append(errs, checkPositive("unit_price", d.UnitPrice, rules.unitPrice))
	errs = multierr.Append(errs, checkPositive("hourly_rate", d.HourlyRate, rules.hourlyRate))
	errs = multierr.Append(errs, checkLaborHours(d.LaborHours, rules.laborHours))

	switch {
	case d.Quantity <= 0:
		errs = multierr.Append(errs, pkgerrors.Field("quantity", "must be positive"))
	case d.ItemType == enums.LineItemTypeLabor && d.Quantity != 1:
		errs = multierr.Append(errs, pkgerrors.Field("quantity", "must equal 1 for labor"))
	}

	if errs != nil {
		return LineItem{}, pkgerrors.FromFieldErrors(errs)
	}

	item := LineItem{
		AssignedToUserID: d.AssignedToUserID,
		Description:      d.Description,
	}
	switch d.ItemType {
	case enums.LineItemTypeParts:
		item.Payload = partsOf(d)
	case enums.LineItemTypeLabor:
		item.Payload = laborOf(d)
	case enums.LineItemTypeBoth:
		item.Payload = BothPayload{PartsPayload: partsOf(d), LaborPayload: laborOf(d)}
	}
	return item, nil
}

func partsOf(d Draft) PartsPayload {
	return PartsPayload{InventoryItemID: *d.InventoryItemID, UnitPrice: *d.UnitPrice, Quantity: d.Quantity}
}

func laborOf(d Draft) LaborPayload {
	return LaborPayload{HourlyRate: *d.HourlyRate, LaborHours: *d.LaborHours}
}

func checkUUID(field string, v *uuid.UUID, r rule) error {
	present := v != nil && *v != uuid.Nil
	if r == forbidden {
		if v != nil {
			return pkgerrors.Field(field, "must be absent")
		}
		return nil
	}
	if !present {
		return pkgerrors.Field(field, "is required")
	}
	return nil
}

func checkPositive(field string, v *decimal.Decimal, r rule) error {
	if r == forbidden {
		if v != nil {
			return pkgerrors.Field(field, "must be absent")
		}
		return nil
	}
	if v == nil {
		return pkgerrors.Field(field, "is required")
	}
	if !v.IsPositive() {
		return pkgerrors.Field(field, "must be positive")
	}
	if !v.Equal(v.Truncate(MoneyPlaces)) {
		return pkgerrors.Field(field, fmt.Sprintf("must have at most %d decimal places", MoneyPlaces))
	}
	return nil
}

func checkLaborHours(v *decimal.Decimal, r rule) error {
	if err := checkPositive("labor_hours", v, r); err != nil || v == nil {
		return err
	}
	if v.GreaterThan(maxLaborHours) {
		return pkgerrors.Field("labor_hours", "must be at most 24")
	}
	return nil
}
