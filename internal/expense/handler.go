package expense

import (
	"context"
	"net/http"

	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller coreuser.Caller, dto CreateExpenseDTO) (*Expense, error)
	Get(ctx context.Context, caller coreuser.Caller, id int64) (*Expense, error)
	ListOwn(ctx context.Context, caller coreuser.Caller, q ListQuery) (*ListResponse, error)
	Update(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateExpenseDTO) (*Expense, error)
	Delete(ctx context.Context, caller coreuser.Caller, id int64) error
	Transition(ctx context.Context, caller coreuser.Caller, id int64, target Status) (*Expense, error)
	ListAll(ctx context.Context, caller coreuser.Caller, q AdminListQuery) (*ListResponse, error)
	ListPending(ctx context.Context, caller coreuser.Caller, page, limit int) (*ListResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	var dto CreateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

// ListExpenses serves the caller's own ledger. Query: category, startDate,
// endDate, page, limit.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	resp, err := h.Service.ListOwn(r.Context(), caller, ListQuery{
		Category:  query.Get("category"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
		Page:      h.QueryInt(r, "page", 1),
		Limit:     h.QueryInt(r, "limit", DefaultPageSize),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.Update(r.Context(), caller, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), caller, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted"})
}

func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusApproved)
}

func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusRejected)
}

// UpdateStatus takes the target status from the body.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto TransitionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.transition(w, r, Status(dto.Status))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, target Status) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.Transition(r.Context(), caller, id, target)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

// ListAllExpenses serves the admin view of the ledger. Query: userId,
// category, status, page, limit.
func (h *Handler) ListAllExpenses(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	resp, err := h.Service.ListAll(r.Context(), caller, AdminListQuery{
		UserID:   int64(h.QueryInt(r, "userId", 0)),
		Category: query.Get("category"),
		Status:   query.Get("status"),
		Page:     h.QueryInt(r, "page", 1),
		Limit:    h.QueryInt(r, "limit", DefaultPageSize),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListPendingExpenses(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.ListPending(r.Context(), caller, h.QueryInt(r, "page", 1), h.QueryInt(r, "limit", DefaultPageSize))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
