package enums

import "fmt"

// LedgerTransactionKind maps to the ledger_transaction_kind enum in Postgres.
type LedgerTransactionKind string

const (
	LedgerKindRestock            LedgerTransactionKind = "restock"
	LedgerKindConsumption        LedgerTransactionKind = "consumption"
	LedgerKindAdjustmentIncrease LedgerTransactionKind = "adjustment_increase"
	LedgerKindAdjustmentDecrease LedgerTransactionKind = "adjustment_decrease"
	// LedgerKindAdjustment records a cost-only correction; quantity is unchanged.
	LedgerKindAdjustment LedgerTransactionKind = "adjustment"
)

var validLedgerTransactionKinds = []LedgerTransactionKind{
	LedgerKindRestock,
	LedgerKindConsumption,
	LedgerKindAdjustmentIncrease,
	LedgerKindAdjustmentDecrease,
	LedgerKindAdjustment,
}

// String implements fmt.Stringer.
func (k LedgerTransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value matches the canonical ledger kind enum.
func (k LedgerTransactionKind) IsValid() bool {
	for _, candidate := range validLedgerTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsAdjustment reports whether the kind was produced by an explicit operator correction.
func (k LedgerTransactionKind) IsAdjustment() bool {
	switch k {
	case LedgerKindAdjustmentIncrease, LedgerKindAdjustmentDecrease, LedgerKindAdjustment:
		return true
	}
	return false
}

// ParseLedgerTransactionKind converts raw input into LedgerTransactionKind.
func ParseLedgerTransactionKind(value string) (LedgerTransactionKind, error) {
	for _, candidate := range validLedgerTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger transaction kind %q", value)
}
