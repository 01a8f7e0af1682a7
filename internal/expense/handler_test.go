package expense_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Handler", func() {
	var (
		router http.Handler
		repo   *mockExpenseRepository
	)

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		service := expense.NewService(repo, nil, logger.Discard())
		handler := expense.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		r := chi.NewRouter()
		r.Post("/expenses", handler.CreateExpense)
		r.Get("/expenses", handler.ListExpenses)
		r.Get("/expenses/{id}", handler.GetExpense)
		r.Put("/expenses/{id}", handler.UpdateExpense)
		r.Delete("/expenses/{id}", handler.DeleteExpense)
		r.Patch("/expenses/{id}/approve", handler.ApproveExpense)
		r.Patch("/expenses/{id}/reject", handler.RejectExpense)
		r.Patch("/expenses/{id}/status", handler.UpdateStatus)
		r.Get("/admin/expenses", handler.ListAllExpenses)
		r.Get("/admin/expenses/pending", handler.ListPendingExpenses)
		router = r
	})

	do := func(caller *coreuser.Caller, method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		if caller != nil {
			req = req.WithContext(internal.ContextWithCaller(context.Background(), *caller))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) errorEnvelope {
		var env errorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env
	}

	createShoes := func() int64 {
		w := do(&owner, http.MethodPost, "/expenses", map[string]interface{}{
			"amount":      "50",
			"category":    "Shopping",
			"description": "Shoes",
			"status":      "approved",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var exp expense.Expense
		Expect(json.NewDecoder(w.Body).Decode(&exp)).To(Succeed())
		return exp.ID
	}

	It("requires an authenticated caller", func() {
		w := do(nil, http.MethodGet, "/expenses", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("creates expenses as pending whatever status the client sends", func() {
		id := createShoes()
		stored, err := repo.GetByID(context.Background(), id)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(expense.StatusPending))
	})

	It("rejects malformed bodies", func() {
		req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBufferString("{"))
		req = req.WithContext(internal.ContextWithCaller(req.Context(), owner))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("renders validation failures as 400", func() {
		w := do(&owner, http.MethodPost, "/expenses", map[string]interface{}{
			"amount":      "-1",
			"category":    "Food",
			"description": "Lunch",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(w).Error.Type).To(Equal("VALIDATION_ERROR"))
	})

	It("surfaces the deny reason to strangers", func() {
		id := createShoes()
		w := do(&stranger, http.MethodGet, "/expenses/"+strconv.FormatInt(id, 10), nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(w).Error.Code).To(Equal("not-owner"))
	})

	It("returns 404 for unknown expenses and 400 for bad ids", func() {
		Expect(do(&owner, http.MethodGet, "/expenses/12345", nil).Code).To(Equal(http.StatusNotFound))
		Expect(do(&owner, http.MethodGet, "/expenses/abc", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("runs approval then refuses deletion", func() {
		id := createShoes()
		path := "/expenses/" + strconv.FormatInt(id, 10)

		w := do(&owner, http.MethodPatch, path+"/approve", nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(w).Error.Code).To(Equal("not-admin"))

		w = do(&admin, http.MethodPatch, path+"/approve", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var approved expense.Expense
		Expect(json.NewDecoder(w.Body).Decode(&approved)).To(Succeed())
		Expect(approved.Status).To(Equal(expense.StatusApproved))

		w = do(&owner, http.MethodDelete, path, nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(w).Error.Code).To(Equal("approved-immutable"))
	})

	It("answers 422 for a transition back to pending", func() {
		id := createShoes()
		w := do(&admin, http.MethodPatch, "/expenses/"+strconv.FormatInt(id, 10)+"/status", map[string]string{"status": "pending"})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("updates and deletes a pending expense", func() {
		id := createShoes()
		path := "/expenses/" + strconv.FormatInt(id, 10)

		w := do(&owner, http.MethodPut, path, map[string]interface{}{"description": "Boots", "tags": []string{"winter"}})
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated expense.Expense
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Description).To(Equal("Boots"))
		Expect(updated.Tags).To(Equal([]string{"winter"}))

		Expect(do(&owner, http.MethodDelete, path, nil).Code).To(Equal(http.StatusOK))
		Expect(do(&owner, http.MethodGet, path, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("lists own expenses and admin views", func() {
		createShoes()
		createShoes()

		w := do(&owner, http.MethodGet, "/expenses?page=1&limit=1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list expense.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Expenses).To(HaveLen(1))
		Expect(list.Pagination.Total).To(Equal(int64(2)))

		Expect(do(&owner, http.MethodGet, "/admin/expenses", nil).Code).To(Equal(http.StatusForbidden))
		Expect(do(&admin, http.MethodGet, "/admin/expenses?status=pending", nil).Code).To(Equal(http.StatusOK))
		Expect(do(&admin, http.MethodGet, "/admin/expenses/pending", nil).Code).To(Equal(http.StatusOK))
	})
})
