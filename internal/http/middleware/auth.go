package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/auth"
	"github.com/vhtruong/product-catalog/internal/http/apierr"
)

// Authenticate resolves the bearer token into a principal on the context.
// Requests without a valid token never reach a handler.
func Authenticate(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeProblem(w, apperr.UnauthorizedErr)
				return
			}

			principal, err := tm.Validate(token)
			if err != nil {
				writeProblem(w, apperr.UnauthorizedErr.WrapParent(err))
				return
			}

			ctx := auth.NewContext(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize enforces the role policy for the operation. It runs before the
// handler body, so a denied caller causes no side effects.
func Authorize(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.FromContext(r.Context())
			if !ok {
				writeProblem(w, apperr.UnauthorizedErr)
				return
			}

			if !auth.Allowed(op, principal.Roles) {
				writeProblem(w, apperr.ForbiddenErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeProblem(w http.ResponseWriter, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	//nolint:errcheck
	json.NewEncoder(w).Encode(res)
}
