package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/platform/httpx"
)

// Handler exposes read access to the customer wallet ledger.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool) *Handler {
	return &Handler{logger: logger, pool: pool}
}

// MountRoutes registers wallet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{customerID}", h.getWallet)
	r.Get("/{customerID}/transactions", h.listTransactions)
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	balance, err := Balance(r.Context(), h.pool, customerID)
	if err != nil {
		h.respondError(w, "get wallet", err)
		return
	}
	httpx.OK(w, map[string]any{"customer_id": customerID, "wallet_balance": balance})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	txs, err := History(r.Context(), h.pool, customerID, limit)
	if err != nil {
		h.respondError(w, "list wallet transactions", err)
		return
	}
	httpx.OK(w, map[string]any{"customer_id": customerID, "transactions": txs})
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid customer id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrCustomerNotFound) {
		httpx.Fail(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
