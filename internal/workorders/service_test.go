package workorders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fleetmaint-backend/internal/costing"
	"github.com/angelmondragon/fleetmaint-backend/internal/inventory"
	"github.com/angelmondragon/fleetmaint-backend/pkg/config"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/outbox"
)

type testEnv struct {
	svc    Service
	client *db.Client
	outbox *outbox.Repository
	part   *models.InventoryItem
	order  *WorkOrderDTO
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{
		DSN:    "file:workorders_" + uuid.NewString() + "?mode=memory&cache=shared",
		Driver: db.DriverSQLite,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.InventoryItem{},
		&models.StockAggregate{},
		&models.WorkOrder{},
		&models.WorkOrderLineItem{},
		&models.OutboxEvent{},
	))

	part := &models.InventoryItem{PartNumber: "BP-220", Name: "Brake pad set"}
	require.NoError(t, client.DB().Create(part).Error)

	outboxRepo := outbox.NewRepository(client.DB())
	svc, err := NewService(
		NewRepository(client.DB()),
		inventory.NewRepository(client.DB()),
		client,
		outbox.NewService(outboxRepo, nil),
		nil,
	)
	require.NoError(t, err)

	order, err := svc.OpenWorkOrder(ctx, OpenWorkOrderInput{Number: "WO-1001", VehicleID: uuid.New()})
	require.NoError(t, err)

	return &testEnv{svc: svc, client: client, outbox: outboxRepo, part: part, order: order}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *testEnv) bothDraft() costing.Draft {
	partID := e.part.ID
	return costing.Draft{
		ItemType:         enums.LineItemTypeBoth,
		InventoryItemID:  &partID,
		UnitPrice:        dec("10"),
		Quantity:         3,
		HourlyRate:       dec("50"),
		LaborHours:       dec("2"),
		AssignedToUserID: "tech-1",
	}
}

func laborDraft(hours string) costing.Draft {
	return costing.Draft{
		ItemType:         enums.LineItemTypeLabor,
		HourlyRate:       dec("80"),
		LaborHours:       dec(hours),
		Quantity:         1,
		AssignedToUserID: "tech-2",
	}
}

func TestAddLineItemCostsAndPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	line, err := env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{
		ServiceTaskID:     uuid.New(),
		Draft:             env.bothDraft(),
		PerformedByUserID: "tech-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "30.00", line.ItemCost)
	assert.Equal(t, "100.00", line.LaborCost)
	assert.Equal(t, "130.00", line.TotalCost)
	assert.Equal(t, "10.00", *line.UnitPrice)

	events, err := env.outbox.ListByAggregate(ctx, enums.AggregateWorkOrder, env.order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "added", data["action"])
	assert.Equal(t, "130.00", data["total_cost"])
}

func TestCostSummaryRollsUpLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: env.bothDraft()})
	require.NoError(t, err)
	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1.5")})
	require.NoError(t, err)

	summary, err := env.svc.CostSummary(ctx, env.order.ID)
	require.NoError(t, err)
	require.Len(t, summary.LineItems, 2)
	assert.Equal(t, "30.00", summary.TotalItemCost)
	assert.Equal(t, "220.00", summary.TotalLaborCost)
	assert.Equal(t, "250.00", summary.TotalCost)

	lines, err := env.svc.ListLineItems(ctx, env.order.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestCostSummaryEmptyWorkOrder(t *testing.T) {
	env := newTestEnv(t)
	summary, err := env.svc.CostSummary(context.Background(), env.order.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.LineItems)
	assert.Equal(t, "0.00", summary.TotalCost)
}

func TestAddLineItemRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddLineItem(ctx, uuid.New(), LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "missing work order: %v", err)

	draft := env.bothDraft()
	unknown := uuid.New()
	draft.InventoryItemID = &unknown
	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: draft})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unknown part: %v", err)

	bad := laborDraft("1")
	bad.Quantity = 2
	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: bad})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{Draft: laborDraft("1")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, env.client.DB().Model(&models.WorkOrderLineItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddLineItemClosedWorkOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	line, err := env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	require.NoError(t, err)

	closed, err := env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusCompleted, closed.Status)

	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "add: %v", err)
	_, err = env.svc.UpdateLineItem(ctx, env.order.ID, line.ID, LineItemInput{Draft: laborDraft("3")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "update: %v", err)
	err = env.svc.DeleteLineItem(ctx, env.order.ID, line.ID, "tech-2")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "delete: %v", err)

	summary, err := env.svc.CostSummary(ctx, env.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "80.00", summary.TotalCost)
}

func TestSetStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusInProgress, started.Status)

	_, err = env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	require.NoError(t, err)

	_, err = env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatusCanceled)
	require.NoError(t, err)

	again, err := env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusCanceled, again.Status)

	_, err = env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatusOpen)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "reopen: %v", err)

	_, err = env.svc.SetStatus(ctx, env.order.ID, enums.WorkOrderStatus("archived"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.SetStatus(ctx, uuid.New(), enums.WorkOrderStatusCompleted)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateLineItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	line, err := env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	require.NoError(t, err)

	updated, err := env.svc.UpdateLineItem(ctx, env.order.ID, line.ID, LineItemInput{Draft: laborDraft("2.25")})
	require.NoError(t, err)
	assert.Equal(t, "180.00", updated.LaborCost)
	assert.Equal(t, line.ServiceTaskID, updated.ServiceTaskID)

	_, err = env.svc.UpdateLineItem(ctx, env.order.ID, line.ID, LineItemInput{Draft: env.bothDraft()})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details(), "item_type")

	_, err = env.svc.UpdateLineItem(ctx, env.order.ID, uuid.New(), LineItemInput{Draft: laborDraft("1")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	summary, err := env.svc.CostSummary(ctx, env.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "180.00", summary.TotalCost)
}

func TestDeleteLineItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	line, err := env.svc.AddLineItem(ctx, env.order.ID, LineItemInput{ServiceTaskID: uuid.New(), Draft: laborDraft("1")})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteLineItem(ctx, env.order.ID, line.ID, "tech-2"))
	err = env.svc.DeleteLineItem(ctx, env.order.ID, line.ID, "tech-2")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	events, err := env.outbox.ListByAggregate(ctx, enums.AggregateWorkOrder, env.order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestPreviewCost(t *testing.T) {
	env := newTestEnv(t)
	preview, err := env.svc.PreviewCost(context.Background(), env.bothDraft())
	require.NoError(t, err)
	assert.Equal(t, enums.LineItemTypeBoth, preview.ItemType)
	assert.Equal(t, 3, preview.Quantity)
	assert.Equal(t, "130.00", preview.TotalCost)

	var count int64
	require.NoError(t, env.client.DB().Model(&models.WorkOrderLineItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOpenWorkOrderDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.OpenWorkOrder(context.Background(), OpenWorkOrderInput{Number: "WO-1001", VehicleID: uuid.New()})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	_, err = env.svc.OpenWorkOrder(context.Background(), OpenWorkOrderInput{Number: " "})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
