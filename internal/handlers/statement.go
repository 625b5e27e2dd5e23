package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/rs/zerolog"
)

// StatementHandler exports and serves CSV statements.
type StatementHandler struct {
	statements *services.StatementService
	logger     zerolog.Logger
}

func NewStatementHandler(statements *services.StatementService, logger zerolog.Logger) *StatementHandler {
	return &StatementHandler{statements: statements, logger: logger}
}

// StatementRouter registers statement routes. The caller applies the
// session middleware.
func StatementRouter(r chi.Router, handler *StatementHandler) {
	r.Post("/", handler.Export)
	r.Route("/{statementID}", func(r chi.Router) {
		r.Get("/", handler.Download)
		r.Delete("/", handler.Delete)
	})
}

func (h *StatementHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	statement, err := h.statements.Export(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, statement)
}

func (h *StatementHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	id := chi.URLParam(r, "statementID")
	reader, err := h.statements.Open(r.Context(), claims.UserID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "statement-"+id+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn().Err(err).Str("statement_id", id).Msg("statement download interrupted")
	}
}

func (h *StatementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.statements.Delete(r.Context(), claims.UserID, chi.URLParam(r, "statementID")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
