package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sankofa-retail/sankofa/internal/platform/httpx"
	"github.com/sankofa-retail/sankofa/internal/purchase"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// Handler exposes the settlement workflow over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordPayment)
	r.Get("/pending", h.listPending)
	r.Get("/{id}", h.getPayment)
	r.Post("/{id}/confirm", h.confirmPayment)
	r.Post("/{id}/reject", h.rejectPayment)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.RecordPayment(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "record payment", err)
		return
	}
	httpx.Created(w, result)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.respondError(w, "get payment", err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shopID, err := strconv.ParseInt(q.Get("shop_id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "shop_id is required")
		return
	}
	req := ListPendingRequest{ShopID: shopID}
	if v := q.Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		req.Offset, _ = strconv.Atoi(v)
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	list, total, err := h.service.ListPending(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "list pending payments", err)
		return
	}
	httpx.OK(w, map[string]any{
		"payments":   list,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.ConfirmPayment(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, "confirm payment", err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) rejectPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RejectPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	if err := h.service.RejectPayment(r.Context(), actor, id, req); err != nil {
		h.respondError(w, "reject payment", err)
		return
	}
	httpx.OK(w, map[string]any{"payment_id": id, "status": StatusMissed})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, purchase.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrScopeViolation):
		httpx.Fail(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrAlreadyConfirmed),
		errors.Is(err, ErrAlreadyRejected),
		errors.Is(err, purchase.ErrPurchaseCompleted),
		errors.Is(err, purchase.ErrPurchaseVoided):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrOverpayment),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, wallet.ErrInsufficientBalance):
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
