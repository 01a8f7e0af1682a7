package user

import (
	"context"
	"io"
	"net/http"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, caller coreuser.Caller) (*User, error)
	UpdateProfile(ctx context.Context, caller coreuser.Caller, dto UpdateProfileDTO) (*User, error)
	UpdatePhoto(ctx context.Context, caller coreuser.Caller, photo io.Reader) (*User, error)
	ListUsers(ctx context.Context, caller coreuser.Caller) (*ListUsersResponse, error)
	Deactivate(ctx context.Context, caller coreuser.Caller, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	MaxPhotoBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, maxPhotoBytes int64) *Handler {
	return &Handler{
		BaseHandler:   baseHandler,
		Service:       svc,
		MaxPhotoBytes: maxPhotoBytes,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetProfile(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// UpdateCurrentUser handles PUT /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// UploadPhoto handles PUT /users/me/photo with a multipart "photo" field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxPhotoBytes+64*1024)
	if err := r.ParseMultipartForm(h.MaxPhotoBytes); err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("photo", "photo upload is missing or too large", internal.ErrCodeValidationFailed))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("photo")
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("photo", "photo is required", internal.ErrCodeValidationFailed))
		return
	}
	defer file.Close()

	u, err := h.Service.UpdatePhoto(r.Context(), caller, file)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.ListUsers(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// DeactivateUser handles PUT /admin/users/{id}/deactivate
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r)
	if !ok {
		return
	}

	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Deactivate(r.Context(), caller, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
