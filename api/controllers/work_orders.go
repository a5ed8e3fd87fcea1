package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fleetmaint-backend/api/responses"
	"github.com/angelmondragon/fleetmaint-backend/api/validators"
	"github.com/angelmondragon/fleetmaint-backend/internal/costing"
	"github.com/angelmondragon/fleetmaint-backend/internal/workorders"
	"github.com/angelmondragon/fleetmaint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
)

type openWorkOrderRequest struct {
	Number    string    `json:"number" validate:"required,max=64"`
	VehicleID uuid.UUID `json:"vehicle_id" validate:"required"`
}

type workOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// lineItemRequest is the flat wire shape. Which pricing fields are required
// depends on item_type and is enforced by the costing rules, not by tags.
type lineItemRequest struct {
	ServiceTaskID    *uuid.UUID       `json:"service_task_id,omitempty"`
	ItemType         string           `json:"item_type" validate:"required"`
	InventoryItemID  *uuid.UUID       `json:"inventory_item_id,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	HourlyRate       *decimal.Decimal `json:"hourly_rate,omitempty"`
	LaborHours       *decimal.Decimal `json:"labor_hours,omitempty"`
	Quantity         int              `json:"quantity"`
	AssignedToUserID string           `json:"assigned_to_user_id"`
	Description      *string          `json:"description,omitempty"`
}

func (p lineItemRequest) draft() costing.Draft {
	return costing.Draft{
		ItemType:         enums.LineItemType(p.ItemType),
		InventoryItemID:  p.InventoryItemID,
		UnitPrice:        p.UnitPrice,
		HourlyRate:       p.HourlyRate,
		LaborHours:       p.LaborHours,
		Quantity:         p.Quantity,
		AssignedToUserID: p.AssignedToUserID,
		Description:      p.Description,
	}
}

func (p lineItemRequest) toInput(userID string) workorders.LineItemInput {
	input := workorders.LineItemInput{Draft: p.draft(), PerformedByUserID: userID}
	if p.ServiceTaskID != nil {
		input.ServiceTaskID = *p.ServiceTaskID
	}
	return input
}

// OpenWorkOrder registers a work order so line items can be attached to it.
func OpenWorkOrder(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		if _, ok := requireUser(w, r, logg); !ok {
			return
		}

		var payload openWorkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.OpenWorkOrder(r.Context(), workorders.OpenWorkOrderInput{
			Number:    validators.SanitizeString(payload.Number, 64),
			VehicleID: payload.VehicleID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// SetWorkOrderStatus moves a work order through open, in_progress, completed and canceled.
func SetWorkOrderStatus(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		if _, ok := requireUser(w, r, logg); !ok {
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload workOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetStatus(r.Context(), workOrderID, enums.WorkOrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AddLineItem(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lineItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddLineItem(r.Context(), workOrderID, payload.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateLineItem(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineItemID, err := uuidParam(r, "lineItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lineItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateLineItem(r.Context(), workOrderID, lineItemID, payload.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteLineItem(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineItemID, err := uuidParam(r, "lineItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteLineItem(r.Context(), workOrderID, lineItemID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ListLineItems(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListLineItems(r.Context(), workOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"line_items": items})
	}
}

// WorkOrderCosts returns every costed line plus the work order totals.
func WorkOrderCosts(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		workOrderID, err := uuidParam(r, "workOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.CostSummary(r.Context(), workOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// PreviewLineItemCost validates and prices a draft without persisting it.
func PreviewLineItemCost(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		var payload lineItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		preview, err := svc.PreviewCost(r.Context(), payload.draft())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}
