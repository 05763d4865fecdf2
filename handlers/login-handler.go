package handlers

import (
	"net/http"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/services"
)

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// LoginHandler serves the unauthenticated /api/auth endpoints plus logout.
type LoginHandler struct {
	UserService *services.UserService
}

func NewLoginHandler(userService *services.UserService) *LoginHandler {
	return &LoginHandler{UserService: userService}
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}
	token, user, err := h.UserService.Login(r.Context(), in, sourceAddress(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	h.UserService.Logout(r.Context(), auth, sourceAddress(r))
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// ForgotPassword answers 200 whether or not the email belongs to an account.
func (h *LoginHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ForgotPasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.UserService.ForgotPassword(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "if the account exists, a reset link has been sent"})
}

func (h *LoginHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in services.TokenPasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.UserService.ResetPassword(r.Context(), in, sourceAddress(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password has been reset"})
}

func (h *LoginHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var in services.TokenPasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.UserService.AcceptInvite(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
