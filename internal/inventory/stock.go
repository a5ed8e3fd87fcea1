package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
)

type direction int

const (
	directionDown direction = iota - 1
	directionFlat
	directionUp
)

func directionOf(newQuantity, oldQuantity int) direction {
	switch {
	case newQuantity > oldQuantity:
		return directionUp
	case newQuantity < oldQuantity:
		return directionDown
	default:
		return directionFlat
	}
}

type kindKey struct {
	explicit bool
	dir      direction
}

// transactionKinds is total over (explicit, direction). A flat move only reaches
// the table when the unit cost changed, and is recorded as a cost-only adjustment.
var transactionKinds = map[kindKey]enums.LedgerTransactionKind{
	{explicit: true, dir: directionUp}:    enums.LedgerKindAdjustmentIncrease,
	{explicit: true, dir: directionDown}:  enums.LedgerKindAdjustmentDecrease,
	{explicit: true, dir: directionFlat}:  enums.LedgerKindAdjustment,
	{explicit: false, dir: directionUp}:   enums.LedgerKindRestock,
	{explicit: false, dir: directionDown}: enums.LedgerKindConsumption,
	{explicit: false, dir: directionFlat}: enums.LedgerKindAdjustment,
}

// DecideTransactionType classifies a quantity move for the ledger.
func DecideTransactionType(isExplicitAdjustment bool, newQuantity, oldQuantity int) (enums.LedgerTransactionKind, error) {
	key := kindKey{explicit: isExplicitAdjustment, dir: directionOf(newQuantity, oldQuantity)}
	kind, ok := transactionKinds[key]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("no ledger kind for explicit=%t direction=%d", key.explicit, key.dir))
	}
	return kind, nil
}

// unitCostPlaces matches the numeric(12,2) cost columns. A finer cost would be
// rounded on write and never compare equal to the request again.
const unitCostPlaces = 2

func checkUnitCost(cost decimal.Decimal) error {
	if !cost.IsPositive() {
		return pkgerrors.Field("unit_cost", "must be positive")
	}
	if !cost.Equal(cost.Truncate(unitCostPlaces)) {
		return pkgerrors.Field("unit_cost", fmt.Sprintf("must have at most %d decimal places", unitCostPlaces))
	}
	return nil
}

// NeedsReorder reports whether on-hand stock has fallen to or below the minimum.
func NeedsReorder(quantityOnHand, minStockLevel int) bool {
	return quantityOnHand <= minStockLevel
}

// StockUpdate is the requested new state for an aggregate.
type StockUpdate struct {
	NewQuantity          int
	NewUnitCost          decimal.Decimal
	IsExplicitAdjustment bool
	PerformedByUserID    string
}

// StockChange is the result of applying a StockUpdate. Entry is nil when nothing changed.
type StockChange struct {
	Aggregate        models.StockAggregate
	Entry            *models.LedgerEntry
	ReorderTriggered bool
}

// Changed reports whether the update produced a ledger entry.
func (c StockChange) Changed() bool {
	return c.Entry != nil
}

// ApplyStockUpdate computes the next aggregate state and the ledger entry describing it.
// It does not bump Version; the repository does that when the write lands.
func ApplyStockUpdate(current models.StockAggregate, update StockUpdate, now time.Time) (StockChange, error) {
	var errs error
	if update.NewQuantity < 0 {
		errs = multierr.Append(errs, pkgerrors.Field("quantity_on_hand", "must not be negative"))
	}
	errs = multierr.Append(errs, checkUnitCost(update.NewUnitCost))
	if update.PerformedByUserID == "" {
		errs = multierr.Append(errs, pkgerrors.Field("performed_by_user_id", "is required"))
	}
	if current.MaxStockLevel < current.MinStockLevel {
		errs = multierr.Append(errs, pkgerrors.Field("max_stock_level", "must be greater than or equal to min_stock_level"))
	}
	if errs != nil {
		return StockChange{}, pkgerrors.FromFieldErrors(errs)
	}

	delta := update.NewQuantity - current.QuantityOnHand
	if delta == 0 && update.NewUnitCost.Equal(current.UnitCost) {
		return StockChange{Aggregate: current}, nil
	}

	kind, err := DecideTransactionType(update.IsExplicitAdjustment, update.NewQuantity, current.QuantityOnHand)
	if err != nil {
		return StockChange{}, err
	}

	absDelta := delta
	if absDelta < 0 {
		absDelta = -absDelta
	}

	next := current
	next.QuantityOnHand = update.NewQuantity
	next.UnitCost = update.NewUnitCost
	next.NeedsReorder = NeedsReorder(next.QuantityOnHand, next.MinStockLevel)
	if delta != 0 {
		restockedAt := now
		next.LastRestockedAt = &restockedAt
	}

	entry := &models.LedgerEntry{
		StockAggregateID:  current.ID,
		Kind:              kind,
		QuantityDelta:     absDelta,
		UnitCost:          update.NewUnitCost,
		TotalCost:         update.NewUnitCost.Mul(decimal.NewFromInt(int64(absDelta))),
		PerformedByUserID: update.PerformedByUserID,
		CreatedAt:         now,
	}

	return StockChange{
		Aggregate:        next,
		Entry:            entry,
		ReorderTriggered: next.NeedsReorder && !current.NeedsReorder,
	}, nil
}

// ApplyStockLevels replaces the reorder thresholds and recomputes the reorder flag.
func ApplyStockLevels(current models.StockAggregate, minStockLevel, maxStockLevel int) (StockChange, error) {
	var errs error
	if minStockLevel < 0 {
		errs = multierr.Append(errs, pkgerrors.Field("min_stock_level", "must not be negative"))
	}
	if maxStockLevel < 0 {
		errs = multierr.Append(errs, pkgerrors.Field("max_stock_level", "must not be negative"))
	}
	if maxStockLevel < minStockLevel {
		errs = multierr.Append(errs, pkgerrors.Field("max_stock_level", "must be greater than or equal to min_stock_level"))
	}
	if errs != nil {
		return StockChange{}, pkgerrors.FromFieldErrors(errs)
	}

	next := current
	next.MinStockLevel = minStockLevel
	next.MaxStockLevel = maxStockLevel
	next.NeedsReorder = NeedsReorder(next.QuantityOnHand, minStockLevel)
	return StockChange{
		Aggregate:        next,
		ReorderTriggered: next.NeedsReorder && !current.NeedsReorder,
	}, nil
}

// SuggestedOrderQuantity is how many units bring the aggregate back up to its maximum.
func SuggestedOrderQuantity(agg models.StockAggregate) int {
	if gap := agg.MaxStockLevel - agg.QuantityOnHand; gap > 0 {
		return gap
	}
	return 0
}
