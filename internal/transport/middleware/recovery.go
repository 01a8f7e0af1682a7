package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chiMiddleware "github.com/go-chi/chi/middleware"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

// RecoveryMiddleware turns a panic into a logged 500 with the usual error
// envelope. The panic value is never sent to the client.
func RecoveryMiddleware(base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					base.Logger.Error("panic recovered",
						slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
						slog.Any("error", rec),
						slog.String("method", r.Method),
						slog.String("url", r.URL.String()),
						slog.String("stack", string(debug.Stack())))

					base.HandleServiceError(w, internal.NewInternalError("Internal server error", fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
