package enums

import "fmt"

// LineItemType identifies which pricing fields a work order line item carries.
type LineItemType string

const (
	LineItemTypeParts LineItemType = "parts"
	LineItemTypeLabor LineItemType = "labor"
	LineItemTypeBoth  LineItemType = "both"
)

var validLineItemTypes = []LineItemType{
	LineItemTypeParts,
	LineItemTypeLabor,
	LineItemTypeBoth,
}

// String implements fmt.Stringer.
func (t LineItemType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LineItemType.
func (t LineItemType) IsValid() bool {
	for _, candidate := range validLineItemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// HasParts reports whether lines of this type bill inventory parts.
func (t LineItemType) HasParts() bool {
	return t == LineItemTypeParts || t == LineItemTypeBoth
}

// HasLabor reports whether lines of this type bill technician labor.
func (t LineItemType) HasLabor() bool {
	return t == LineItemTypeLabor || t == LineItemTypeBoth
}

// ParseLineItemType converts raw input into a LineItemType.
func ParseLineItemType(value string) (LineItemType, error) {
	for _, candidate := range validLineItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item type %q", value)
}
