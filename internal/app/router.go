package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sankofa-retail/sankofa/internal/observability"
	"github.com/sankofa-retail/sankofa/internal/payments"
	"github.com/sankofa-retail/sankofa/internal/purchase"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	Redis           *redis.Client
	Metrics         *observability.Metrics
	Authorizer      shared.Authorizer
	PurchaseHandler *purchase.Handler
	PaymentHandler  *payments.Handler
	WalletHandler   *wallet.Handler
	StockHandler    *stock.Handler
}

// NewRouter constructs the chi.Router with Sankofa defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params.Pool, params.Redis))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(shared.RequireActor(params.Authorizer))
		r.Route("/purchases", params.PurchaseHandler.MountRoutes)
		r.Route("/payments", params.PaymentHandler.MountRoutes)
		r.Route("/wallets", params.WalletHandler.MountRoutes)
		r.Route("/stock", params.StockHandler.MountRoutes)
	})

	return r
}

// healthHandler pings postgres and redis concurrently. Dependencies that
// are not wired (nil) are skipped so tests can mount the router bare.
func healthHandler(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		if pool != nil {
			g.Go(func() error { return pool.Ping(ctx) })
		}
		if rdb != nil {
			g.Go(func() error { return rdb.Ping(ctx).Err() })
		}

		w.Header().Set("Content-Type", "application/json")
		if err := g.Wait(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
