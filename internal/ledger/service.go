package ledger

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service defines operations that append and read stock ledger entries.
type Service interface {
	RecordEntry(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, aggregateID uuid.UUID, limit int) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordEntry appends entry inside tx so it commits with the aggregate write it describes.
func (s *service) RecordEntry(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if entry == nil {
		return fmt.Errorf("ledger entry required")
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return nil
}

func (s *service) ListEntries(ctx context.Context, aggregateID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if aggregateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock aggregate id is required")
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	entries, err := s.repo.ListByAggregateID(ctx, aggregateID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func validateEntry(entry *models.LedgerEntry) error {
	var errs error
	if entry.StockAggregateID == uuid.Nil {
		errs = multierr.Append(errs, pkgerrors.Field("stock_aggregate_id", "is required"))
	}
	if !entry.Kind.IsValid() {
		errs = multierr.Append(errs, pkgerrors.Field("kind", fmt.Sprintf("unknown kind %q", entry.Kind)))
	}
	if entry.QuantityDelta < 0 {
		errs = multierr.Append(errs, pkgerrors.Field("quantity_delta", "must not be negative"))
	}
	if entry.Kind == enums.LedgerKindAdjustment && entry.QuantityDelta != 0 {
		errs = multierr.Append(errs, pkgerrors.Field("quantity_delta", "must be zero for a cost-only adjustment"))
	}
	if entry.Kind.IsValid() && entry.Kind != enums.LedgerKindAdjustment && entry.QuantityDelta == 0 {
		errs = multierr.Append(errs, pkgerrors.Field("quantity_delta", "must be positive for a quantity change"))
	}
	if !entry.UnitCost.IsPositive() {
		errs = multierr.Append(errs, pkgerrors.Field("unit_cost", "must be positive"))
	}
	if entry.PerformedByUserID == "" {
		errs = multierr.Append(errs, pkgerrors.Field("performed_by_user_id", "is required"))
	}
	if errs == nil && !entry.TotalCost.Equal(entry.UnitCost.Mul(decimal.NewFromInt(int64(entry.QuantityDelta)))) {
		errs = multierr.Append(errs, pkgerrors.Field("total_cost", "must equal unit_cost * quantity_delta"))
	}
	return pkgerrors.FromFieldErrors(errs)
}
