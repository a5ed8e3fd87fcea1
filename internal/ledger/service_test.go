package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/fleetmaint-backend/pkg/db/models"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.LedgerEntry) error
	listFn   func(ctx context.Context, aggregateID uuid.UUID, limit int) ([]models.LedgerEntry, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByAggregateID(ctx context.Context, aggregateID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, aggregateID, limit)
	}
	return nil, nil
}

func validEntry() *models.LedgerEntry {
	return &models.LedgerEntry{
		StockAggregateID:  uuid.New(),
		Kind:              enums.LedgerKindRestock,
		QuantityDelta:     10,
		UnitCost:          decimal.RequireFromString("4.25"),
		TotalCost:         decimal.RequireFromString("42.50"),
		PerformedByUserID: "tech-1",
	}
}

func TestService_RecordEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	entry := validEntry()
	if err := svc.RecordEntry(context.Background(), &gorm.DB{}, entry); err != nil {
		t.Fatalf("RecordEntry error: %v", err)
	}
	if created != entry {
		t.Fatalf("expected entry to be persisted")
	}
}

func TestService_RecordEntryValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	cases := []struct {
		name   string
		mutate func(e *models.LedgerEntry)
		field  string
	}{
		{"missing aggregate", func(e *models.LedgerEntry) { e.StockAggregateID = uuid.Nil }, "stock_aggregate_id"},
		{"unknown kind", func(e *models.LedgerEntry) { e.Kind = "shrinkage" }, "kind"},
		{"negative delta", func(e *models.LedgerEntry) { e.QuantityDelta = -1 }, "quantity_delta"},
		{"zero delta restock", func(e *models.LedgerEntry) { e.QuantityDelta = 0; e.TotalCost = decimal.Zero }, "quantity_delta"},
		{"cost-only with delta", func(e *models.LedgerEntry) { e.Kind = enums.LedgerKindAdjustment }, "quantity_delta"},
		{"zero unit cost", func(e *models.LedgerEntry) { e.UnitCost = decimal.Zero }, "unit_cost"},
		{"missing actor", func(e *models.LedgerEntry) { e.PerformedByUserID = "" }, "performed_by_user_id"},
		{"wrong total", func(e *models.LedgerEntry) { e.TotalCost = decimal.RequireFromString("40") }, "total_cost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry()
			tc.mutate(entry)
			err := svc.RecordEntry(context.Background(), &gorm.DB{}, entry)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			details, _ := pkgerrors.As(err).Details().(map[string]string)
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected violation on %s, got %v", tc.field, details)
			}
		})
	}
}

func TestService_RecordEntryRequiresTx(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	if err := svc.RecordEntry(context.Background(), nil, validEntry()); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestService_RecordEntryWrapsRepoError(t *testing.T) {
	repo := &fakeRepository{createFn: func(context.Context, *models.LedgerEntry) error {
		return errors.New("db down")
	}}
	svc, _ := NewService(repo)
	err := svc.RecordEntry(context.Background(), &gorm.DB{}, validEntry())
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_ListEntriesLimits(t *testing.T) {
	var gotLimit int
	repo := &fakeRepository{listFn: func(_ context.Context, _ uuid.UUID, limit int) ([]models.LedgerEntry, error) {
		gotLimit = limit
		return []models.LedgerEntry{{ID: 2}, {ID: 1}}, nil
	}}
	svc, _ := NewService(repo)

	entries, err := svc.ListEntries(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != DefaultListLimit || len(entries) != 2 {
		t.Fatalf("expected default limit and two entries, got %d/%d", gotLimit, len(entries))
	}

	if _, err := svc.ListEntries(context.Background(), uuid.New(), MaxListLimit+1); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for oversize limit, got %v", err)
	}
	if _, err := svc.ListEntries(context.Background(), uuid.Nil, 10); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for nil aggregate, got %v", err)
	}
}
