package shared

import "context"

// Actor identifies the acting user and the business/shop scope resolved for
// the request.
type Actor struct {
	UserID     int64
	BusinessID int64
	ShopID     int64
	Role       string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
