package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/api/middleware"
	"github.com/angelmondragon/fleetmaint-backend/api/responses"
	"github.com/angelmondragon/fleetmaint-backend/api/validators"
	"github.com/angelmondragon/fleetmaint-backend/internal/inventory"
	"github.com/angelmondragon/fleetmaint-backend/internal/ledger"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
)

type registerItemRequest struct {
	PartNumber    string           `json:"part_number" validate:"required,max=64"`
	Name          string           `json:"name" validate:"required,max=200"`
	Description   *string          `json:"description,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost" validate:"required"`
	MinStockLevel int              `json:"min_stock_level"`
	MaxStockLevel int              `json:"max_stock_level"`
}

type updateStockRequest struct {
	NewQuantity          *int             `json:"new_quantity" validate:"required"`
	NewUnitCost          *decimal.Decimal `json:"new_unit_cost" validate:"required"`
	IsExplicitAdjustment bool             `json:"is_explicit_adjustment"`
}

type stockLevelsRequest struct {
	MinStockLevel *int `json:"min_stock_level" validate:"required"`
	MaxStockLevel *int `json:"max_stock_level" validate:"required"`
}

// RegisterInventoryItem creates a catalog item together with its empty stock aggregate.
func RegisterInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload registerItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.RegisterItem(r.Context(), inventory.RegisterItemInput{
			PartNumber:        validators.SanitizeString(payload.PartNumber, 64),
			Name:              validators.SanitizeString(payload.Name, 200),
			Description:       payload.Description,
			UnitCost:          *payload.UnitCost,
			MinStockLevel:     payload.MinStockLevel,
			MaxStockLevel:     payload.MaxStockLevel,
			PerformedByUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GetInventoryStock returns the stock aggregate for an item.
func GetInventoryStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stock, err := svc.GetStock(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// UpdateInventoryStock applies a new on-hand quantity and unit cost and records the ledger entry.
func UpdateInventoryStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStock(r.Context(), itemID, inventory.UpdateStockInput{
			NewQuantity:          *payload.NewQuantity,
			NewUnitCost:          *payload.NewUnitCost,
			IsExplicitAdjustment: payload.IsExplicitAdjustment,
			PerformedByUserID:    userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SetInventoryStockLevels replaces the min/max reorder thresholds.
func SetInventoryStockLevels(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockLevelsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.SetStockLevels(r.Context(), itemID, inventory.StockLevelsInput{
			MinStockLevel:     *payload.MinStockLevel,
			MaxStockLevel:     *payload.MaxStockLevel,
			PerformedByUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// ListInventoryTransactions pages the ledger for an item, newest first.
func ListInventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", ledger.DefaultListLimit, 1, ledger.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.ListTransactions(r.Context(), itemID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"transactions": entries})
	}
}

// ListReorderCandidates returns aggregates currently flagged for reorder.
func ListReorderCandidates(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", inventory.DefaultListLimit, 1, inventory.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stocks, err := svc.ListReorderCandidates(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": stocks})
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return "", false
	}
	return userID, true
}
