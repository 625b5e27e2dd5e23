package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/apiserver/internal/auth"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/kodbank/apiserver/types"
	"github.com/rs/zerolog"
)

// AuthHandler provides the account and session endpoints.
type AuthHandler struct {
	accounts     *services.AccountService
	issuer       *auth.Issuer
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs an AuthHandler. secureCookie marks the session
// cookie Secure and should be set in production.
func NewAuthHandler(accounts *services.AccountService, issuer *auth.Issuer, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		issuer:       issuer,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(RequireSession(handler.issuer)).Get("/me", handler.Me)
}

// RequireSession admits requests carrying a valid session cookie and puts
// its claims in the request context. Anything else gets 401 before the
// wrapped handler runs.
func RequireSession(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			claims, err := issuer.Verify(cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// Register creates a new account. It does not sign the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	user, err := h.accounts.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{
		Message: "User registered successfully",
		UserID:  user.ID,
	})
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, _, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.issuer.TTL()/time.Second)))
	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    user.Summary(),
	})
}

// Logout expires the session cookie. Tokens are stateless, so a copied
// token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := h.accounts.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{User: user.Summary()})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string            `json:"message"`
	User    types.UserSummary `json:"user"`
}

type MeResponse struct {
	User types.UserSummary `json:"user"`
}
