package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/platform/httpx"
)

// Authorizer resolves the acting user and business/shop scope for a request.
// Authentication itself is an external concern; the engine only needs the
// resolved scope and a yes/no on whether an entity is reachable from it.
type Authorizer interface {
	Resolve(ctx context.Context, r *http.Request) (*Actor, error)
	CheckShopScope(ctx context.Context, actor *Actor, shopID int64) error
}

// StaffAuthorizer resolves actors from the staff directory using the
// X-Staff-Token header issued by the upstream auth service.
type StaffAuthorizer struct {
	pool *pgxpool.Pool
}

// NewStaffAuthorizer constructs a StaffAuthorizer.
func NewStaffAuthorizer(pool *pgxpool.Pool) *StaffAuthorizer {
	return &StaffAuthorizer{pool: pool}
}

// Resolve loads the actor identified by the request token.
func (a *StaffAuthorizer) Resolve(ctx context.Context, r *http.Request) (*Actor, error) {
	token := r.Header.Get("X-Staff-Token")
	if token == "" {
		return nil, httpx.ErrUnauthorized
	}
	var actor Actor
	err := a.pool.QueryRow(ctx, `
		SELECT s.id, s.business_id, COALESCE(s.shop_id, 0), s.role
		FROM staff s
		WHERE s.api_token = $1 AND s.is_active`, token).
		Scan(&actor.UserID, &actor.BusinessID, &actor.ShopID, &actor.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrUnauthorized
		}
		return nil, err
	}
	return &actor, nil
}

// CheckShopScope verifies the shop belongs to the actor's business and, for
// shop-bound staff, matches their assigned shop.
func (a *StaffAuthorizer) CheckShopScope(ctx context.Context, actor *Actor, shopID int64) error {
	if actor == nil {
		return httpx.ErrUnauthorized
	}
	if actor.ShopID != 0 && actor.ShopID != shopID {
		return fmt.Errorf("shop %d: %w", shopID, ErrScopeViolation)
	}
	var businessID int64
	err := a.pool.QueryRow(ctx, `SELECT business_id FROM shops WHERE id = $1`, shopID).Scan(&businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("shop %d: %w", shopID, ErrNotFound)
		}
		return err
	}
	if businessID != actor.BusinessID {
		return fmt.Errorf("shop %d: %w", shopID, ErrScopeViolation)
	}
	return nil
}

// RequireActor is middleware that resolves and stores the actor, rejecting
// unauthenticated requests.
func RequireActor(authz Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := authz.Resolve(r.Context(), r)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}
