package rest

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/payment"
	"github.com/frahmantamala/expense-tracker/internal/stats"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/openapi"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

// Handlers groups everything the router mounts. Spec and UploadDir are
// optional; the rest are required.
type Handlers struct {
	Base     *transport.BaseHandler
	Health   *HealthHandler
	Auth     *auth.Handler
	User     *user.Handler
	Expense  *expense.Handler
	Stats    *stats.Handler
	Category *category.Handler
	Payment  *payment.Handler

	Spec             *openapi.Spec
	ValidateRequests bool
	AllowedOrigins   []string
	UploadDir        string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers) {
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(h.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware(h.Base))
	router.Use(middleware.LoggingMiddleware(h.Base.Logger))
	if h.Spec != nil && h.ValidateRequests {
		router.Use(h.Spec.ValidationMiddleware(h.Base))
	}

	if h.Spec != nil {
		router.Get(openapi.DocumentPath, h.Spec.DocumentHandler())
		router.Handle("/swagger/*", openapi.Handler())
	}

	if h.UploadDir != "" {
		router.Handle(user.PublicPrefix+"*", http.StripPrefix(user.PublicPrefix, http.FileServer(http.Dir(h.UploadDir))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Check)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
			ar.Post("/forgot-password", h.Auth.ForgotPassword)
		})

		r.Get("/categories", h.Category.GetCategories)
		r.Get("/payment-methods", h.Payment.GetPaymentMethods)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users/me", func(ur chi.Router) {
				ur.Get("/", h.User.GetCurrentUser)
				ur.Put("/", h.User.UpdateCurrentUser)
				ur.Put("/photo", h.User.UploadPhoto)
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/", h.Expense.CreateExpense)
				er.Get("/", h.Expense.ListExpenses)
				er.Get("/stats", h.Stats.GetMyStats)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Put("/{id}", h.Expense.UpdateExpense)
				er.Delete("/{id}", h.Expense.DeleteExpense)

				// The service re-checks the role; the gate here only
				// answers early.
				er.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAdmin(h.Base))
					mr.Patch("/{id}/approve", h.Expense.ApproveExpense)
					mr.Patch("/{id}/reject", h.Expense.RejectExpense)
					mr.Patch("/{id}/status", h.Expense.UpdateStatus)
				})
			})

			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(middleware.RequireAdmin(h.Base))
				adm.Get("/expenses", h.Expense.ListAllExpenses)
				adm.Get("/expenses/pending", h.Expense.ListPendingExpenses)
				adm.Get("/stats", h.Stats.GetSystemStats)
				adm.Get("/users", h.User.ListUsers)
				adm.Get("/users/{id}/stats", h.Stats.GetUserStats)
				adm.Put("/users/{id}/deactivate", h.User.DeactivateUser)
			})
		})
	})
}
