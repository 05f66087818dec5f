package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iconforge/iconforge/internal/auth"
	"github.com/iconforge/iconforge/internal/handler/dto"
	"github.com/iconforge/iconforge/internal/service"
)

// IconHandler handles HTTP requests for icon generation and listing.
type IconHandler struct {
	svc    *service.IconService
	logger *slog.Logger
}

// NewIconHandler creates a new IconHandler.
func NewIconHandler(svc *service.IconService, logger *slog.Logger) *IconHandler {
	return &IconHandler{
		svc:    svc,
		logger: logger,
	}
}

// Generate handles POST /api/v1/icons.
func (h *IconHandler) Generate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to generate icons")
		return
	}

	var req dto.GenerateIconsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.GenerateIconsInput{
		OwnerID: authCtx.UserID,
		Prompt:  req.Prompt,
		Color:   req.Color,
		Count:   req.NumberOfIcons,
	}

	icons, err := h.svc.GenerateIcons(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("icons_generated",
		"user_id", authCtx.UserID,
		"count", len(icons),
	)

	response := dto.GenerateIconsResponse{
		Data: make([]dto.GeneratedIconResponse, len(icons)),
	}
	for i, icon := range icons {
		response.Data[i] = dto.GeneratedIconResponse{ImageURL: icon.ImageURL}
	}

	writeJSON(w, http.StatusCreated, response)
}

// ListMine handles GET /api/v1/icons.
func (h *IconHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to list icons")
		return
	}

	icons, err := h.svc.OwnerIcons(r.Context(), authCtx.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToIconListResponse(icons))
}

// Community handles GET /community/icons.
// Public endpoint; no authentication required.
func (h *IconHandler) Community(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	icons, err := h.svc.CommunitySample(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCommunityListResponse(icons))
}

// handleServiceError maps service errors to HTTP responses.
func (h *IconHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyPrompt):
		h.writeError(w, http.StatusBadRequest, "EMPTY_PROMPT", "Prompt must not be empty")
	case errors.Is(err, service.ErrEmptyColor):
		h.writeError(w, http.StatusBadRequest, "EMPTY_COLOR", "Color must not be empty")
	case errors.Is(err, service.ErrPromptTooLong):
		h.writeError(w, http.StatusBadRequest, "PROMPT_TOO_LONG", "Prompt exceeds maximum length")
	case errors.Is(err, service.ErrColorTooLong):
		h.writeError(w, http.StatusBadRequest, "COLOR_TOO_LONG", "Color exceeds maximum length")
	case errors.Is(err, service.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Input contains invalid characters")
	case errors.Is(err, service.ErrInvalidCount):
		h.writeError(w, http.StatusBadRequest, "INVALID_COUNT", "Number of icons must be a positive integer")
	case errors.Is(err, service.ErrTooManyIcons):
		h.writeError(w, http.StatusBadRequest, "TOO_MANY_ICONS", "Number of icons exceeds the per-request maximum")
	case errors.Is(err, service.ErrInsufficientCredits):
		h.writeError(w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "Not enough credits")
	case errors.Is(err, service.ErrGenerationFailed):
		// Provider detail goes to logs, not to the caller.
		h.logger.Error("generation_failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Something went wrong")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *IconHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
