package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fleetmaint-backend/internal/costing"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
	"github.com/angelmondragon/fleetmaint-backend/pkg/outbox"
)

const (
	actionAdded   = "added"
	actionUpdated = "updated"
	actionDeleted = "deleted"
)

// Service manages work order line items and prices them through the costing engine.
type Service interface {
	OpenWorkOrder(ctx context.Context, input OpenWorkOrderInput) (*WorkOrderDTO, error)
	SetStatus(ctx context.Context, workOrderID uuid.UUID, status enums.WorkOrderStatus) (*WorkOrderDTO, error)
	AddLineItem(ctx context.Context, workOrderID uuid.UUID, input LineItemInput) (*LineItemDTO, error)
	UpdateLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID, input LineItemInput) (*LineItemDTO, error)
	DeleteLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID, performedByUserID string) error
	ListLineItems(ctx context.Context, workOrderID uuid.UUID) ([]LineItemDTO, error)
	CostSummary(ctx context.Context, workOrderID uuid.UUID) (*CostSummaryDTO, error)
	PreviewCost(ctx context.Context, draft costing.Draft) (*PreviewDTO, error)
}

type partLookup interface {
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     Repository
	parts    partLookup
	dbClient *db.Client
	events   eventEmitter
	logg     *logger.Logger
}

// NewService constructs a work order service instance.
func NewService(repo Repository, parts partLookup, dbClient *db.Client, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("work order repository required")
	}
	if parts == nil {
		return nil, fmt.Errorf("inventory lookup required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, parts: parts, dbClient: dbClient, events: events, logg: logg}, nil
}

func (s *service) OpenWorkOrder(ctx context.Context, input OpenWorkOrderInput) (*WorkOrderDTO, error) {
	number := strings.TrimSpace(input.Number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number is required").
			WithDetails(map[string]string{"number": "is required"})
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id is required").
			WithDetails(map[string]string{"vehicle_id": "is required"})
	}

	order := &models.WorkOrder{Number: number, VehicleID: input.VehicleID, Status: enums.WorkOrderStatusOpen}
	if err := s.repo.CreateWorkOrder(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "work order number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert work order")
	}
	return newWorkOrderDTO(order), nil
}

// SetStatus moves a work order through its workflow. Completed and canceled are
// terminal: line items freeze and only a repeat of the same status is accepted.
func (s *service) SetStatus(ctx context.Context, workOrderID uuid.UUID, status enums.WorkOrderStatus) (*WorkOrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order status").
			WithDetails(map[string]string{"status": "must be one of open, in_progress, completed, canceled"})
	}
	if workOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id is required")
	}

	var order *models.WorkOrder
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		updated, err := txRepo.UpdateStatusIfOpen(ctx, workOrderID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update work order status")
		}
		order, err = s.loadWorkOrder(ctx, txRepo, workOrderID)
		if err != nil {
			return err
		}
		if updated == 0 && order.Status != status {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("work order is %s", order.Status))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(s.logg.WithWorkOrderID(ctx, workOrderID.String()), "status", status)
	s.logg.Info(logCtx, "workorder.status_changed")
	return newWorkOrderDTO(order), nil
}

func (s *service) AddLineItem(ctx context.Context, workOrderID uuid.UUID, input LineItemInput) (*LineItemDTO, error) {
	if input.ServiceTaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service_task_id is required").
			WithDetails(map[string]string{"service_task_id": "is required"})
	}
	costed, err := costing.ValidateAndCost(input.Draft)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePartExists(ctx, costed.LineItem); err != nil {
		return nil, err
	}

	row := &models.WorkOrderLineItem{WorkOrderID: workOrderID}
	applyLineItem(row, input.ServiceTaskID, costed.LineItem)

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := s.lockOpenWorkOrder(ctx, txRepo, workOrderID); err != nil {
			return err
		}
		if err := txRepo.CreateLineItem(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert line item")
		}
		return s.emitChanged(ctx, tx, workOrderID, row.ID, actionAdded, input.PerformedByUserID)
	}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithWorkOrderID(ctx, workOrderID.String()), "workorder.line_item_added")
	dto := newLineItemDTO(*row, costed)
	return &dto, nil
}

// UpdateLineItem replaces a line's fields. The item type is fixed at creation.
func (s *service) UpdateLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID, input LineItemInput) (*LineItemDTO, error) {
	costed, err := costing.ValidateAndCost(input.Draft)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePartExists(ctx, costed.LineItem); err != nil {
		return nil, err
	}

	var row *models.WorkOrderLineItem
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := s.lockOpenWorkOrder(ctx, txRepo, workOrderID); err != nil {
			return err
		}

		current, err := txRepo.FindLineItem(ctx, workOrderID, lineItemID)
		if err != nil {
			return notFoundOr(err, "line item not found", "db: load line item")
		}
		if current.ItemType != costed.Type() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item_type cannot change after creation").
				WithDetails(map[string]string{"item_type": fmt.Sprintf("must remain %s", current.ItemType)})
		}

		serviceTaskID := input.ServiceTaskID
		if serviceTaskID == uuid.Nil {
			serviceTaskID = current.ServiceTaskID
		}
		applyLineItem(current, serviceTaskID, costed.LineItem)
		if err := txRepo.SaveLineItem(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update line item")
		}
		row = current
		return s.emitChanged(ctx, tx, workOrderID, current.ID, actionUpdated, input.PerformedByUserID)
	}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithWorkOrderID(ctx, workOrderID.String()), "workorder.line_item_updated")
	dto := newLineItemDTO(*row, costed)
	return &dto, nil
}

func (s *service) DeleteLineItem(ctx context.Context, workOrderID, lineItemID uuid.UUID, performedByUserID string) error {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := s.lockOpenWorkOrder(ctx, txRepo, workOrderID); err != nil {
			return err
		}
		deleted, err := txRepo.DeleteLineItem(ctx, workOrderID, lineItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete line item")
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return s.emitChanged(ctx, tx, workOrderID, lineItemID, actionDeleted, performedByUserID)
	}); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithWorkOrderID(ctx, workOrderID.String()), "workorder.line_item_deleted")
	return nil
}

func (s *service) ListLineItems(ctx context.Context, workOrderID uuid.UUID) ([]LineItemDTO, error) {
	lines, _, err := s.loadCosted(ctx, s.repo, workOrderID)
	return lines, err
}

func (s *service) CostSummary(ctx context.Context, workOrderID uuid.UUID) (*CostSummaryDTO, error) {
	lines, rollup, err := s.loadCosted(ctx, s.repo, workOrderID)
	if err != nil {
		return nil, err
	}
	return &CostSummaryDTO{
		WorkOrderID:    workOrderID,
		LineItems:      lines,
		TotalItemCost:  rollup.TotalItemCost.StringFixed(2),
		TotalLaborCost: rollup.TotalLaborCost.StringFixed(2),
		TotalCost:      rollup.TotalCost.StringFixed(2),
	}, nil
}

// PreviewCost prices a draft without persisting anything.
func (s *service) PreviewCost(_ context.Context, draft costing.Draft) (*PreviewDTO, error) {
	costed, err := costing.ValidateAndCost(draft)
	if err != nil {
		return nil, err
	}
	return &PreviewDTO{
		ItemType: costed.Type(),
		Quantity: costed.Quantity(),
		CostDTO:  newCostDTO(costed.Costs),
	}, nil
}

func (s *service) loadCosted(ctx context.Context, repo Repository, workOrderID uuid.UUID) ([]LineItemDTO, costing.WorkOrderCostRollup, error) {
	if _, err := s.loadWorkOrder(ctx, repo, workOrderID); err != nil {
		return nil, costing.WorkOrderCostRollup{}, err
	}
	rows, err := repo.ListLineItems(ctx, workOrderID)
	if err != nil {
		return nil, costing.WorkOrderCostRollup{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list line items")
	}

	lines := make([]LineItemDTO, 0, len(rows))
	items := make([]costing.LineItem, 0, len(rows))
	for _, row := range rows {
		costed, err := costing.ValidateAndCost(draftFromModel(row))
		if err != nil {
			return nil, costing.WorkOrderCostRollup{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("stored line item %s is invalid", row.ID))
		}
		lines = append(lines, newLineItemDTO(row, costed))
		items = append(items, costed.LineItem)
	}
	return lines, costing.Rollup(items), nil
}

func (s *service) loadWorkOrder(ctx context.Context, repo Repository, workOrderID uuid.UUID) (*models.WorkOrder, error) {
	if workOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id is required")
	}
	order, err := repo.FindWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, notFoundOr(err, "work order not found", "db: load work order")
	}
	return order, nil
}

// lockOpenWorkOrder must run inside the write transaction so a concurrent close
// cannot slip between the status check and the line item write.
func (s *service) lockOpenWorkOrder(ctx context.Context, repo Repository, workOrderID uuid.UUID) error {
	if workOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "work order id is required")
	}
	touched, err := repo.LockOpenWorkOrder(ctx, workOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock work order")
	}
	if touched > 0 {
		return nil
	}
	return s.closedOrMissing(ctx, repo, workOrderID)
}

func (s *service) closedOrMissing(ctx context.Context, repo Repository, workOrderID uuid.UUID) error {
	order, err := s.loadWorkOrder(ctx, repo, workOrderID)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("work order is %s", order.Status))
}

func (s *service) ensurePartExists(ctx context.Context, item costing.LineItem) error {
	partID, ok := item.InventoryItemID()
	if !ok {
		return nil
	}
	if _, err := s.parts.FindItemByID(ctx, partID); err != nil {
		return notFoundOr(err, "inventory item not found", "db: load inventory item")
	}
	return nil
}

func (s *service) emitChanged(ctx context.Context, tx *gorm.DB, workOrderID, lineItemID uuid.UUID, action, performedBy string) error {
	_, rollup, err := s.loadCosted(ctx, s.repo.WithTx(tx), workOrderID)
	if err != nil {
		return err
	}
	var actor *outbox.ActorRef
	if performedBy != "" {
		actor = &outbox.ActorRef{UserID: performedBy}
	}
	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWorkOrderLineItemsChanged,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   workOrderID,
		Actor:         actor,
		Data: map[string]any{
			"line_item_id":     lineItemID,
			"action":           action,
			"total_item_cost":  rollup.TotalItemCost.StringFixed(2),
			"total_labor_cost": rollup.TotalLaborCost.StringFixed(2),
			"total_cost":       rollup.TotalCost.StringFixed(2),
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: line items changed")
	}
	return nil
}

func notFoundOr(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}
