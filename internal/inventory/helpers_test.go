package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fleetmaint-backend/internal/ledger"
	"github.com/angelmondragon/fleetmaint-backend/pkg/config"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db"
	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/metrics"
	"github.com/angelmondragon/fleetmaint-backend/pkg/outbox"
)

type testEnv struct {
	svc      Service
	client   *db.Client
	repo     *staleRepository
	outbox   *outbox.Repository
	registry *prometheus.Registry
}

// staleRepository hands out aggregates with an old version for the first n reads,
// forcing the version guard in SaveStockIfVersion to reject the write.
type staleRepository struct {
	Repository
	staleReads *int
}

func (r *staleRepository) WithTx(tx *gorm.DB) Repository {
	return &staleRepository{Repository: r.Repository.WithTx(tx), staleReads: r.staleReads}
}

func (r *staleRepository) FindStockByItemID(ctx context.Context, itemID uuid.UUID) (*models.StockAggregate, error) {
	stock, err := r.Repository.FindStockByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if *r.staleReads > 0 {
		*r.staleReads--
		stock.Version--
	}
	return stock, nil
}

func newTestEnv(t *testing.T, maxRetries int) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.StockConfig{MaxRetries: maxRetries, RetryBackoff: time.Millisecond})
}

func newTestEnvWithConfig(t *testing.T, stockCfg config.StockConfig) *testEnv {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{
		DSN:    "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared",
		Driver: db.DriverSQLite,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.InventoryItem{},
		&models.StockAggregate{},
		&models.LedgerEntry{},
		&models.OutboxEvent{},
	))

	stale := 0
	repo := &staleRepository{Repository: NewRepository(client.DB()), staleReads: &stale}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	outboxRepo := outbox.NewRepository(client.DB())
	registry := prometheus.NewRegistry()

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Ledger:   ledgerSvc,
		DBClient: client,
		Events:   outbox.NewService(outboxRepo, nil),
		Metrics:  metrics.NewStockMetrics(registry),
		Config:   stockCfg,
	})
	require.NoError(t, err)

	return &testEnv{svc: svc, client: client, repo: repo, outbox: outboxRepo, registry: registry}
}

func (e *testEnv) register(t *testing.T, partNumber string, min, max int) *ItemDTO {
	t.Helper()
	item, err := e.svc.RegisterItem(context.Background(), RegisterItemInput{
		PartNumber:        partNumber,
		Name:              "Oil filter",
		UnitCost:          decimal.RequireFromString("4.25"),
		MinStockLevel:     min,
		MaxStockLevel:     max,
		PerformedByUserID: "admin",
	})
	require.NoError(t, err)
	return item
}

// seedQuantity restocks a freshly registered item to qty.
func (e *testEnv) seedQuantity(t *testing.T, itemID uuid.UUID, qty int) {
	t.Helper()
	_, err := e.svc.UpdateStock(context.Background(), itemID, UpdateStockInput{
		NewQuantity:       qty,
		NewUnitCost:       decimal.RequireFromString("4.25"),
		PerformedByUserID: "receiving",
	})
	require.NoError(t, err)
}

// counterValue reads a single-label counter from the test registry.
func (e *testEnv) counterValue(t *testing.T, name, labelValue string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
