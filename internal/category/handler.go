package category

import (
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(baseHandler *transport.BaseHandler) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
	}
}

// GetCategories lists the closed category set in canonical order.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, NewCategoriesResponse(All()))
}
