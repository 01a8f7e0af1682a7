package middleware

import (
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

// RequireAdmin lets only active administrators through. It must run after
// the auth middleware has put the caller in the context.
func RequireAdmin(base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := base.Caller(w, r)
			if !ok {
				return
			}

			if err := expense.AuthorizeAdmin(caller).Err(); err != nil {
				base.Logger.Warn("admin route denied", "caller_id", caller.ID, "path", r.URL.Path, "error", err)
				base.HandleServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
