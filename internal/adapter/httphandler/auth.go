package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// POST v1/auth/signup JSON {"name","email","password","confirm_password"} (201 Created, 400, 409)
// POST v1/auth/signin JSON {"email","password"} (200 OK, 400, 401)
// POST v1/auth/signout (204 No content, 503)
// GET v1/auth/session (200 OK)

type AuthHandler struct {
	auth port.Authenticator
}

func RegisterAuth(mux *http.ServeMux, auth port.Authenticator) {
	h := AuthHandler{auth}
	mux.HandleFunc("POST /v1/auth/signup", h.SignUp)
	mux.HandleFunc("POST /v1/auth/signin", h.SignIn)
	mux.HandleFunc("POST /v1/auth/signout", h.SignOut)
	mux.HandleFunc("GET /v1/auth/session", h.Session)
}

func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.SignUp"

	var req SignUpRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	s, err := h.auth.SignUp(r.Context(), domain.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionFromDomain(s, true, true))
}

func (h AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.SignIn"

	var req SignInRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	s, err := h.auth.SignIn(r.Context(), domain.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFromDomain(s, true, true))
}

func (h AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		writeMessage(w, statusOf(err), "Failed to logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := h.auth.Session()
	writeJSON(w, http.StatusOK, sessionFromDomain(s, ok, false))
}
