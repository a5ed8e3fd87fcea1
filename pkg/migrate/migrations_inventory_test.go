package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/fleetmaint-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestStockMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory_items"), []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CREATE TABLE IF NOT EXISTS stock_aggregates",
		"FOREIGN KEY (inventory_item_id) REFERENCES inventory_items(id) ON DELETE RESTRICT",
		"CHECK (quantity_on_hand >= 0)",
		"CHECK (max_stock_level >= min_stock_level)",
		"version bigint NOT NULL DEFAULT 1",
		"DROP TABLE IF EXISTS stock_aggregates",
	})
}

func TestLedgerMigrationIsAppendOnly(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory_ledger_entries"), []string{
		"kind ledger_transaction_kind NOT NULL",
		"REFERENCES stock_aggregates(id) ON DELETE RESTRICT",
		"CHECK (quantity_delta >= 0)",
		"CHECK (total_cost = unit_cost * quantity_delta)",
		"BEFORE UPDATE OR DELETE ON inventory_ledger_entries",
	})
}

func TestWorkOrderMigrationEncodesFieldMatrix(t *testing.T) {
	assertContains(t, readMigration(t, "create_work_orders"), []string{
		"item_type line_item_type NOT NULL",
		"CHECK (quantity > 0)",
		"labor_hours <= 24",
		"CHECK (item_type <> 'labor' OR quantity = 1)",
	})
}

func TestEnumMigrationMatchesLedgerKinds(t *testing.T) {
	assertContains(t, readMigration(t, "create_enums"), []string{
		"'restock'",
		"'consumption'",
		"'adjustment_increase'",
		"'adjustment_decrease'",
		"'adjustment'",
		"'inventory_reorder_needed'",
	})
}
