package models

// All lists the persisted models in dependency order, for gorm AutoMigrate on
// databases that cannot run the goose SQL migrations.
func All() []any {
	return []any{
		&InventoryItem{},
		&StockAggregate{},
		&LedgerEntry{},
		&WorkOrder{},
		&WorkOrderLineItem{},
		&OutboxEvent{},
	}
}
