package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kodbank/apiserver/internal/auth"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/rs/zerolog"
)

const (
	msgUnauthorized   = "Unauthorized"
	msgInvalidRequest = "Invalid request body"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of requests that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

func withClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, contextClaimsKey, claims)
}

func claimsFromContext(ctx context.Context) (auth.Claims, error) {
	claims, ok := ctx.Value(contextClaimsKey).(auth.Claims)
	if !ok || claims.UserID < 1 {
		return auth.Claims{}, errors.New("missing session claims")
	}
	return claims, nil
}

// decodeJSON reads the request body into dst. The body size is capped by
// the router's RequestSize middleware.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto a status code. Causes of
// internal errors are logged and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: "Internal server error", Err: err}
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindValidation, services.KindConflict:
		status = http.StatusBadRequest
	case services.KindAuth:
		status = http.StatusUnauthorized
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.Error().
			Err(svcErr.Err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeError(w, status, svcErr.Message)
}
