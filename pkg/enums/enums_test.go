package enums

import "testing"

func TestLedgerTransactionKinds(t *testing.T) {
	for _, k := range validLedgerTransactionKinds {
		parsed, err := ParseLedgerTransactionKind(string(k))
		if err != nil || parsed != k {
			t.Fatalf("expected %s to parse, got %v %v", k, parsed, err)
		}
	}
	if _, err := ParseLedgerTransactionKind("transfer"); err == nil {
		t.Fatal("expected unknown kind to be rejected")
	}

	adjustments := map[LedgerTransactionKind]bool{
		LedgerKindRestock:            false,
		LedgerKindConsumption:        false,
		LedgerKindAdjustmentIncrease: true,
		LedgerKindAdjustmentDecrease: true,
		LedgerKindAdjustment:         true,
	}
	for k, want := range adjustments {
		if k.IsAdjustment() != want {
			t.Fatalf("%s: expected IsAdjustment=%v", k, want)
		}
	}
}

func TestLineItemTypeFields(t *testing.T) {
	tests := []struct {
		typ   LineItemType
		parts bool
		labor bool
	}{
		{LineItemTypeParts, true, false},
		{LineItemTypeLabor, false, true},
		{LineItemTypeBoth, true, true},
	}
	for _, tt := range tests {
		if tt.typ.HasParts() != tt.parts || tt.typ.HasLabor() != tt.labor {
			t.Fatalf("%s: unexpected field flags", tt.typ)
		}
	}
	if LineItemType("misc").IsValid() {
		t.Fatal("expected misc to be invalid")
	}
}

func TestWorkOrderStatusClosed(t *testing.T) {
	if WorkOrderStatusOpen.IsClosed() || WorkOrderStatusInProgress.IsClosed() {
		t.Fatal("open and in_progress orders accept line items")
	}
	if !WorkOrderStatusCompleted.IsClosed() || !WorkOrderStatusCanceled.IsClosed() {
		t.Fatal("completed and canceled orders are closed")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventInventoryReorderNeeded.IsValid() || OutboxEventType("order_paid").IsValid() {
		t.Fatal("unexpected event type validity")
	}
	if _, err := ParseOutboxAggregateType("stock_aggregate"); err != nil {
		t.Fatalf("expected stock_aggregate to parse: %v", err)
	}
}
