// Package handler exposes the auth flows over HTTP with the shared envelope.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"braintrain/backend/internal/api"
	authservice "braintrain/backend/internal/auth/service"
	otpservice "braintrain/backend/internal/otp/service"
	"braintrain/backend/internal/security"
	"braintrain/backend/internal/server/middleware"
	userhandler "braintrain/backend/internal/user/handler"
)

type Handler struct {
	auth *authservice.Service
}

func NewHandler(auth *authservice.Service) *Handler {
	return &Handler{auth: auth}
}

// Register mounts the auth routes on the router. throttle guards the
// credential-guessing and OTP-issuing routes; pass nil for no limit.
func (h *Handler) Register(r *mux.Router, throttle func(http.Handler) http.Handler) {
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}
	r.Handle("/api/auth/signup", throttle(http.HandlerFunc(h.Signup))).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify-account/{otp}", h.VerifyAccount).Methods(http.MethodGet)
	r.Handle("/api/auth/login", throttle(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh-token", h.Refresh).Methods(http.MethodPost)
	r.Handle("/api/auth/resend-otp/{phone}", throttle(http.HandlerFunc(h.ResendOTP))).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/reset-password", h.ResetPassword).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/logout", h.Logout).Methods(http.MethodPost)
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         userhandler.UserView `json:"user"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidPhone, "malformed request body")
		return
	}
	code, err := h.auth.Signup(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if code == "" {
		api.WriteSuccess(w, http.StatusOK, nil)
		return
	}
	api.WriteSuccess(w, http.StatusOK, code)
}

func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["otp"]
	user, err := h.auth.VerifyAccount(r.Context(), code)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, userhandler.NewUserView(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidPhone, "malformed request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, loginResponse{
		User:         userhandler.NewUserView(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refreshToken")
	res, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, refreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]
	code, err := h.auth.ResendOTP(r.Context(), phone)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if code == "" {
		api.WriteSuccess(w, http.StatusOK, nil)
		return
	}
	api.WriteSuccess(w, http.StatusOK, code)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.auth.ResetPassword(r.Context(), q.Get("phone"), q.Get("password")); err != nil {
		writeAuthError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, nil)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			writeAuthError(w, err)
			return
		}
	}
	// Absent token or absent record: already logged out.
	api.WriteSuccess(w, http.StatusOK, nil)
}

// writeAuthError maps service sentinels to envelope codes. Anything unmapped
// is logged and redacted to a generic server error; raw error text never
// reaches the client.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authservice.ErrInvalidPhone):
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidPhone, "phone number is not valid")
	case errors.Is(err, authservice.ErrPhoneAlreadyUsed):
		api.WriteError(w, http.StatusBadRequest, api.CodePhoneAlreadyUsed, "phone number is already registered")
	case errors.Is(err, authservice.ErrPhoneNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodePhoneNotFound, "phone number is not registered")
	case errors.Is(err, authservice.ErrInvalidCredentials):
		api.WriteError(w, http.StatusForbidden, api.CodeInvalidCredentials, "credentials are not valid")
	case errors.Is(err, otpservice.ErrCodeNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeInvalidOTP, "verification code is not valid")
	case errors.Is(err, otpservice.ErrCodeAlreadyConfirmed):
		api.WriteError(w, http.StatusBadRequest, api.CodeAccountAlreadyActivated, "account is already activated")
	case errors.Is(err, otpservice.ErrCodeExpired):
		api.WriteError(w, http.StatusBadRequest, api.CodeOTPExpired, "verification code has expired")
	case errors.Is(err, security.ErrTokenExpired):
		api.WriteError(w, http.StatusUnauthorized, api.CodeTokenExpired, "token has expired")
	case errors.Is(err, security.ErrInvalidToken):
		api.WriteError(w, http.StatusUnauthorized, api.CodeInvalidToken, "token is not valid")
	default:
		log.Printf("auth handler: %v", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal server error")
	}
}
