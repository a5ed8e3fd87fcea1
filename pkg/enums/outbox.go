package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInventoryItem  OutboxAggregateType = "inventory_item"
	AggregateStockAggregate OutboxAggregateType = "stock_aggregate"
	AggregateWorkOrder      OutboxAggregateType = "work_order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInventoryItem,
	AggregateStockAggregate,
	AggregateWorkOrder,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInventoryItemRegistered   OutboxEventType = "inventory_item_registered"
	EventInventoryReorderNeeded    OutboxEventType = "inventory_reorder_needed"
	EventInventoryAdjusted         OutboxEventType = "inventory_adjusted"
	EventWorkOrderLineItemsChanged OutboxEventType = "work_order_line_items_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInventoryItemRegistered,
	EventInventoryReorderNeeded,
	EventInventoryAdjusted,
	EventWorkOrderLineItemsChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
