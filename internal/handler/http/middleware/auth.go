package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/response"
)

type actorKey struct{}

// ActorRequired extracts the actor claims from the verified token and puts
// the Actor in the context. Authentication itself happens upstream; here
// the token is only the claims carrier.
func ActorRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.Unauthorized(w, "missing token")
				return
			}
			actor := workerday.Actor{
				UserID:     claimString(claims, "user_id"),
				EmployeeID: claimString(claims, "employee_id"),
				GroupID:    claimString(claims, "group_id"),
				NetworkID:  claimString(claims, "network_id"),
			}
			if actor.NetworkID == "" {
				response.Unauthorized(w, "token carries no network")
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// ActorFromContext returns the actor injected by ActorRequired.
func ActorFromContext(ctx context.Context) workerday.Actor {
	actor, _ := ctx.Value(actorKey{}).(workerday.Actor)
	return actor
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}
