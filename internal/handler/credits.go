package handler

import (
	"log/slog"
	"net/http"

	"github.com/iconforge/iconforge/internal/auth"
	"github.com/iconforge/iconforge/internal/handler/dto"
	"github.com/iconforge/iconforge/internal/repository"
)

// CreditsHandler exposes the caller's credit balance.
type CreditsHandler struct {
	logger     *slog.Logger
	repository *repository.Repository
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(logger *slog.Logger, repo *repository.Repository) *CreditsHandler {
	return &CreditsHandler{
		logger:     logger,
		repository: repo,
	}
}

// Balance handles GET /api/v1/credits.
func (h *CreditsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	credits, err := h.repository.GetCredits(r.Context(), authCtx.UserID)
	if err != nil {
		h.logger.Error("get_credits_failed", "user_id", authCtx.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An internal error occurred",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.CreditsResponse{Credits: credits})
}
