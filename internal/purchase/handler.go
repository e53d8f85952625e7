package purchase

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/platform/httpx"
	"github.com/sankofa-retail/sankofa/internal/pricing"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
)

// Handler exposes the purchase lifecycle over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createSale)
	r.Get("/", h.listPurchases)
	r.Get("/{id}", h.getPurchase)
	r.Put("/{id}/items", h.editItems)
	r.Post("/{id}/void", h.voidSale)
	r.Post("/{id}/waybill", h.generateWaybill)
	r.Post("/{id}/invoice", h.generateInvoice)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.CreateSale(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "create sale", err)
		return
	}
	httpx.Created(w, result)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	p, err := h.service.GetPurchase(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, "get purchase", err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	req, err := listRequestFromQuery(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	list, total, err := h.service.ListPurchases(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "list purchases", err)
		return
	}
	httpx.OK(w, map[string]any{
		"purchases":  list,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) editItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req EditItemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	totals, err := h.service.EditItems(r.Context(), actor, id, req)
	if err != nil {
		h.respondError(w, "edit items", err)
		return
	}
	httpx.OK(w, totals)
}

func (h *Handler) voidSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req VoidSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	if err := h.service.VoidSale(r.Context(), actor, id, req.Reason); err != nil {
		h.respondError(w, "void sale", err)
		return
	}
	httpx.OK(w, map[string]any{"purchase_id": id, "status": StatusVoided})
}

func (h *Handler) generateWaybill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	wb, err := h.service.GenerateWaybill(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, "generate waybill", err)
		return
	}
	httpx.Created(w, wb)
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	inv, err := h.service.GeneratePurchaseInvoice(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, "generate invoice", err)
		return
	}
	httpx.Created(w, inv)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var stockErr *stock.InsufficientStockError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrScopeViolation):
		httpx.Fail(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &stockErr):
		httpx.Fail(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, ErrPurchaseCompleted),
		errors.Is(err, ErrPurchaseVoided),
		errors.Is(err, ErrDelivered),
		errors.Is(err, ErrCashImmutable),
		errors.Is(err, document.ErrWaybillExists),
		errors.Is(err, document.ErrInvoiceExists):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, pricing.ErrPolicyMissing),
		errors.Is(err, pricing.ErrTenorExceeded),
		errors.Is(err, pricing.ErrNoItems):
		httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func listRequestFromQuery(r *http.Request) (ListPurchasesRequest, error) {
	q := r.URL.Query()
	var req ListPurchasesRequest

	shopID, err := strconv.ParseInt(q.Get("shop_id"), 10, 64)
	if err != nil {
		return req, errors.New("shop_id is required")
	}
	req.ShopID = shopID

	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, errors.New("invalid customer_id")
		}
		req.CustomerID = &id
	}
	if v := q.Get("status"); v != "" {
		s := Status(v)
		req.Status = &s
	}
	if v := q.Get("purchase_type"); v != "" {
		t := pricing.PurchaseType(v)
		req.Type = &t
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errors.New("invalid date_from")
		}
		req.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errors.New("invalid date_to")
		}
		req.DateTo = &t
	}
	if v := q.Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		req.Offset, _ = strconv.Atoi(v)
	}
	return req, nil
}
