package shared

import "context"

// Actor identifies the authenticated caller of a request. Authentication
// itself happens outside this service; the gateway forwards identity headers
// which the middleware stack turns into an Actor.
type Actor struct {
	UserID int64
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context, nil when unauthenticated.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
