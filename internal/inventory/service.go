package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/fleetmaint-backend/internal/ledger"
	"github.com/angelmondragon/fleetmaint-backend/pkg/config"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
	"github.com/angelmondragon/fleetmaint-backend/pkg/metrics"
	"github.com/angelmondragon/fleetmaint-backend/pkg/outbox"
)

const (
	opUpdateStock    = "update_stock"
	opSetStockLevels = "set_stock_levels"

	DefaultListLimit = 50
	MaxListLimit     = 200

	maxPartNumberLen = 64
	maxNameLen       = 200
	maxDescLen       = 500
)

// Service exposes stock aggregate and ledger operations.
type Service interface {
	RegisterItem(ctx context.Context, input RegisterItemInput) (*ItemDTO, error)
	UpdateStock(ctx context.Context, itemID uuid.UUID, input UpdateStockInput) (*StockUpdateResult, error)
	SetStockLevels(ctx context.Context, itemID uuid.UUID, input StockLevelsInput) (*StockDTO, error)
	GetStock(ctx context.Context, itemID uuid.UUID) (*StockDTO, error)
	ListTransactions(ctx context.Context, itemID uuid.UUID, limit int) ([]LedgerEntryDTO, error)
	ListReorderCandidates(ctx context.Context, limit int) ([]StockDTO, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     Repository
	ledger   ledger.Service
	dbClient *db.Client
	events   eventEmitter
	metrics  *metrics.StockMetrics
	logg     *logger.Logger
	cfg      config.StockConfig
	now      func() time.Time
}

// ServiceParams groups the collaborators of the inventory service.
type ServiceParams struct {
	Repo     Repository
	Ledger   ledger.Service
	DBClient *db.Client
	Events   eventEmitter
	Metrics  *metrics.StockMetrics
	Logger   *logger.Logger
	Config   config.StockConfig
}

// NewService constructs an inventory service instance.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if p.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if p.Events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Config.MaxRetries < 1 {
		return nil, fmt.Errorf("stock max retries must be at least 1")
	}
	if p.Config.RetryBackoff <= 0 {
		return nil, fmt.Errorf("stock retry backoff must be positive")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     p.Repo,
		ledger:   p.Ledger,
		dbClient: p.DBClient,
		events:   p.Events,
		metrics:  p.Metrics,
		logg:     logg,
		cfg:      p.Config,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RegisterItem creates the item and its empty stock aggregate in one transaction.
func (s *service) RegisterItem(ctx context.Context, input RegisterItemInput) (*ItemDTO, error) {
	input.PartNumber = strings.TrimSpace(input.PartNumber)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		PartNumber:  input.PartNumber,
		Name:        input.Name,
		Description: input.Description,
	}
	stock := &models.StockAggregate{
		QuantityOnHand: 0,
		UnitCost:       input.UnitCost,
		MinStockLevel:  input.MinStockLevel,
		MaxStockLevel:  input.MaxStockLevel,
		NeedsReorder:   NeedsReorder(0, input.MinStockLevel),
		Version:        1,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "part number already registered").
					WithDetails(map[string]string{"part_number": input.PartNumber})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory item")
		}
		stock.InventoryItemID = item.ID
		if err := txRepo.CreateStock(ctx, stock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert stock aggregate")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryItemRegistered,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   item.ID,
			Actor:         actor(input.PerformedByUserID),
			Data: map[string]any{
				"part_number":     item.PartNumber,
				"name":            item.Name,
				"unit_cost":       stock.UnitCost.StringFixed(2),
				"min_stock_level": stock.MinStockLevel,
				"max_stock_level": stock.MaxStockLevel,
			},
		})
	}); err != nil {
		return nil, err
	}

	item.Stock = stock
	logCtx := s.logg.WithInventoryItemID(ctx, item.ID.String())
	s.logg.Info(logCtx, "inventory.item_registered")
	return newItemDTO(item), nil
}

// UpdateStock applies a quantity/cost change, appends the ledger entry, and retries
// the whole read-modify-write when another writer bumps the version first.
func (s *service) UpdateStock(ctx context.Context, itemID uuid.UUID, input UpdateStockInput) (*StockUpdateResult, error) {
	start := time.Now()
	logCtx := s.logg.WithInventoryItemID(ctx, itemID.String())
	update := StockUpdate(input)

	var (
		result   *StockUpdateResult
		appended *models.LedgerEntry
	)
	err := s.withVersionRetry(logCtx, opUpdateStock, func(ctx context.Context) error {
		appended = nil
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.loadStock(ctx, s.repo.WithTx(tx), itemID)
			if err != nil {
				return err
			}

			change, err := ApplyStockUpdate(*current, update, s.now())
			if err != nil {
				return err
			}
			if !change.Changed() {
				result = &StockUpdateResult{Stock: newStockDTO(change.Aggregate)}
				return nil
			}

			if err := s.repo.WithTx(tx).SaveStockIfVersion(ctx, &change.Aggregate, current.Version); err != nil {
				if errors.Is(err, ErrVersionConflict) {
					return err
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock aggregate")
			}
			if err := s.ledger.RecordEntry(ctx, tx, change.Entry); err != nil {
				return err
			}
			if err := s.emitStockEvents(ctx, tx, change, input.PerformedByUserID); err != nil {
				return err
			}

			entry := newLedgerEntryDTO(*change.Entry)
			appended = change.Entry
			result = &StockUpdateResult{
				Stock:            newStockDTO(change.Aggregate),
				Entry:            &entry,
				Changed:          true,
				ReorderTriggered: change.ReorderTriggered,
			}
			return nil
		})
	})
	s.metrics.ObserveDuration(opUpdateStock, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if appended != nil {
		s.metrics.IncLedgerEntry(appended.Kind.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"kind":           appended.Kind,
			"quantity_delta": appended.QuantityDelta,
			"version":        result.Stock.Version,
		})
		s.logg.Info(logCtx, "stock.updated")
	}
	if result.ReorderTriggered {
		s.metrics.IncReorderTriggered()
		s.logg.Info(logCtx, "stock.reorder_triggered")
	}
	return result, nil
}

// SetStockLevels replaces the thresholds under the same version guard. No ledger entry is written.
func (s *service) SetStockLevels(ctx context.Context, itemID uuid.UUID, input StockLevelsInput) (*StockDTO, error) {
	start := time.Now()
	logCtx := s.logg.WithInventoryItemID(ctx, itemID.String())

	var (
		result    StockDTO
		triggered bool
	)
	err := s.withVersionRetry(logCtx, opSetStockLevels, func(ctx context.Context) error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.loadStock(ctx, s.repo.WithTx(tx), itemID)
			if err != nil {
				return err
			}
			change, err := ApplyStockLevels(*current, input.MinStockLevel, input.MaxStockLevel)
			if err != nil {
				return err
			}
			if err := s.repo.WithTx(tx).SaveStockIfVersion(ctx, &change.Aggregate, current.Version); err != nil {
				if errors.Is(err, ErrVersionConflict) {
					return err
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock levels")
			}
			if err := s.emitStockEvents(ctx, tx, change, input.PerformedByUserID); err != nil {
				return err
			}
			result = newStockDTO(change.Aggregate)
			triggered = change.ReorderTriggered
			return nil
		})
	})
	s.metrics.ObserveDuration(opSetStockLevels, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.logg.Info(logCtx, "stock.levels_updated")
	if triggered {
		s.metrics.IncReorderTriggered()
		s.logg.Info(logCtx, "stock.reorder_triggered")
	}
	return &result, nil
}

func (s *service) GetStock(ctx context.Context, itemID uuid.UUID) (*StockDTO, error) {
	stock, err := s.loadStock(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	dto := newStockDTO(*stock)
	return &dto, nil
}

// ListTransactions returns the item's ledger, newest first.
func (s *service) ListTransactions(ctx context.Context, itemID uuid.UUID, limit int) ([]LedgerEntryDTO, error) {
	stock, err := s.loadStock(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListEntries(ctx, stock.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LedgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, newLedgerEntryDTO(entry))
	}
	return out, nil
}

func (s *service) ListReorderCandidates(ctx context.Context, limit int) ([]StockDTO, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	rows, err := s.repo.ListReorderCandidates(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reorder candidates")
	}
	out := make([]StockDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newStockDTO(row))
	}
	return out, nil
}

func (s *service) withVersionRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewConstant(s.cfg.RetryBackoff))
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := fn(ctx)
		if errors.Is(err, ErrVersionConflict) {
			s.metrics.IncConflict(op)
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempts), "stock.conflict_retry")
			return retry.RetryableError(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrVersionConflict):
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "stock was modified concurrently").
			WithDetails(map[string]any{"attempts": attempts})
	case pkgerrors.As(err) != nil:
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// cancelled mid-backoff; nothing from the interrupted attempt was committed
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock write interrupted").
			WithDetails(map[string]any{"attempts": attempts})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: stock transaction")
	}
}

func (s *service) loadStock(ctx context.Context, repo Repository, itemID uuid.UUID) (*models.StockAggregate, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory item id is required")
	}
	stock, err := repo.FindStockByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock aggregate")
	}
	return stock, nil
}

func (s *service) emitStockEvents(ctx context.Context, tx *gorm.DB, change StockChange, performedBy string) error {
	agg := change.Aggregate
	if change.ReorderTriggered {
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryReorderNeeded,
			AggregateType: enums.AggregateStockAggregate,
			AggregateID:   agg.ID,
			Actor:         actor(performedBy),
			Data: map[string]any{
				"inventory_item_id":        agg.InventoryItemID,
				"quantity_on_hand":         agg.QuantityOnHand,
				"min_stock_level":          agg.MinStockLevel,
				"max_stock_level":          agg.MaxStockLevel,
				"suggested_order_quantity": SuggestedOrderQuantity(agg),
				"unit_cost":                agg.UnitCost.StringFixed(2),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: reorder needed")
		}
	}
	if change.Entry != nil && change.Entry.Kind.IsAdjustment() {
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryAdjusted,
			AggregateType: enums.AggregateStockAggregate,
			AggregateID:   agg.ID,
			Actor:         actor(performedBy),
			Data: map[string]any{
				"inventory_item_id": agg.InventoryItemID,
				"ledger_entry_id":   change.Entry.ID,
				"kind":              change.Entry.Kind,
				"quantity_delta":    change.Entry.QuantityDelta,
				"unit_cost":         change.Entry.UnitCost.StringFixed(2),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: inventory adjusted")
		}
	}
	return nil
}

func validateRegistration(input RegisterItemInput) error {
	var errs error
	if input.PartNumber == "" {
		errs = multierr.Append(errs, pkgerrors.Field("part_number", "is required"))
	} else if len(input.PartNumber) > maxPartNumberLen {
		errs = multierr.Append(errs, pkgerrors.Field("part_number", fmt.Sprintf("must be at most %d characters", maxPartNumberLen)))
	}
	if input.Name == "" {
		errs = multierr.Append(errs, pkgerrors.Field("name", "is required"))
	} else if len(input.Name) > maxNameLen {
		errs = multierr.Append(errs, pkgerrors.Field("name", fmt.Sprintf("must be at most %d characters", maxNameLen)))
	}
	if input.Description != nil && len(*input.Description) > maxDescLen {
		errs = multierr.Append(errs, pkgerrors.Field("description", fmt.Sprintf("must be at most %d characters", maxDescLen)))
	}
	errs = multierr.Append(errs, checkUnitCost(input.UnitCost))
	if input.MinStockLevel < 0 {
		errs = multierr.Append(errs, pkgerrors.Field("min_stock_level", "must not be negative"))
	}
	if input.MaxStockLevel < input.MinStockLevel {
		errs = multierr.Append(errs, pkgerrors.Field("max_stock_level", "must be greater than or equal to min_stock_level"))
	}
	return pkgerrors.FromFieldErrors(errs)
}

func actor(userID string) *outbox.ActorRef {
	if userID == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: userID}
}
