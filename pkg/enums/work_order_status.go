package enums

import "fmt"

// WorkOrderStatus tracks where a work order sits in the shop workflow.
type WorkOrderStatus string

const (
	WorkOrderStatusOpen       WorkOrderStatus = "open"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCanceled   WorkOrderStatus = "canceled"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusOpen,
	WorkOrderStatusInProgress,
	WorkOrderStatusCompleted,
	WorkOrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s WorkOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (s WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether line items may no longer change.
func (s WorkOrderStatus) IsClosed() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCanceled
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}
