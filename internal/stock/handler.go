package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/platform/httpx"
)

// Handler exposes stock monitoring reads.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool) *Handler {
	return &Handler{logger: logger, pool: pool}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low", h.listLowStock)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(r.URL.Query().Get("shop_id"), 10, 64)
	if err != nil || shopID <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid shop id")
		return
	}
	items, err := LowStock(r.Context(), h.pool, shopID)
	if err != nil {
		h.logger.Error("list low stock", slog.Int64("shop_id", shopID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"shop_id": shopID, "products": items})
}
