// Package handler exposes account profile routes.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"braintrain/backend/internal/api"
	"braintrain/backend/internal/server/middleware"
	userdomain "braintrain/backend/internal/user/domain"
	userservice "braintrain/backend/internal/user/service"
)

// UserView is the account shape returned to clients. The password hash never
// leaves the server.
type UserView struct {
	ID       string  `json:"id"`
	Phone    string  `json:"phone"`
	Role     string  `json:"role"`
	FullName string  `json:"fullName,omitempty"`
	DOB      *string `json:"dob,omitempty"`
	Gender   string  `json:"gender,omitempty"`
}

// NewUserView converts a domain user to its client-facing shape.
func NewUserView(u *userdomain.User) UserView {
	v := UserView{
		ID:       u.ID,
		Phone:    u.Phone,
		Role:     string(u.Role),
		FullName: u.FullName,
		Gender:   u.Gender,
	}
	if u.DOB != nil {
		d := u.DOB.Format("2006-01-02")
		v.DOB = &d
	}
	return v
}

type Handler struct {
	users *userservice.Service
}

func NewHandler(users *userservice.Service) *Handler {
	return &Handler{users: users}
}

// Register mounts the profile routes. The me routes require a principal;
// Register wires that requirement itself so callers cannot forget it.
func (h *Handler) Register(r *mux.Router) {
	r.Handle("/api/users/me", middleware.RequireAuth(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
	r.Handle("/api/users/me", middleware.RequireAuth(http.HandlerFunc(h.DeleteMe))).Methods(http.MethodDelete)
	r.HandleFunc("/api/auth/add-information/{phone}", h.AddInformation).Methods(http.MethodPut)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())
	user, err := h.users.Get(r.Context(), principal.ID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, NewUserView(user))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())
	if err := h.users.Delete(r.Context(), principal.ID); err != nil {
		writeUserError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, nil)
}

type addInformationRequest struct {
	FullName string `json:"fullName"`
	DOB      string `json:"dob"` // 2006-01-02
	Gender   string `json:"gender"`
}

func (h *Handler) AddInformation(w http.ResponseWriter, r *http.Request) {
	var req addInformationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}
	var dob *time.Time
	if req.DOB != "" {
		t, err := time.Parse("2006-01-02", req.DOB)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeInternal, "dob must be formatted yyyy-mm-dd")
			return
		}
		dob = &t
	}
	user, err := h.users.UpdateProfile(r.Context(), mux.Vars(r)["phone"], req.FullName, dob, req.Gender)
	if err != nil {
		writeUserError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, NewUserView(user))
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userservice.ErrUserNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodePhoneNotFound, "account not found")
	default:
		log.Printf("user handler: %v", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal server error")
	}
}
