package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/ctxlog"
)

// ActorHeader carries the identity of the caller. Authentication happens upstream.
const ActorHeader = "X-Actor-ID"

// DefaultActor is recorded when a request carries no actor header.
const DefaultActor = "system"

const maxActorLength = 128

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ActorHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

const actorKey contextKey = "actor_id"

// ActorMiddleware stores the caller identity from ActorHeader in the request context.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			actor = DefaultActor
		}
		if len(actor) > maxActorLength {
			Error(w, http.StatusBadRequest, "actor id too long")
			return
		}

		ctx := ctxlog.With(WithActor(r.Context(), actor), "actor", actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithActor returns a context carrying the actor id.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor extracts the actor id from context, falling back to DefaultActor.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
