package payment

import (
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type MethodsResponse struct {
	PaymentMethods []string `json:"payment_methods"`
	Default        string   `json:"default"`
}

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(baseHandler *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: baseHandler}
}

func (h *Handler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, MethodsResponse{
		PaymentMethods: Names(),
		Default:        string(Default),
	})
}
