package handler

import (
	"log/slog"
	"net/http"

	"github.com/iconforge/iconforge/internal/auth"
	"github.com/iconforge/iconforge/internal/billing"
	"github.com/iconforge/iconforge/internal/handler/dto"
)

// CheckoutHandler starts credit purchase checkout sessions.
type CheckoutHandler struct {
	logger  *slog.Logger
	billing *billing.Client
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(logger *slog.Logger, billingClient *billing.Client) *CheckoutHandler {
	return &CheckoutHandler{
		logger:  logger,
		billing: billingClient,
	}
}

// Create handles POST /api/v1/checkout.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	checkoutURL, err := h.billing.CreateCheckoutSession(authCtx.UserID)
	if err != nil {
		h.logger.Error("checkout_session_failed", "user_id", authCtx.UserID, "error", err)
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{
			Error: "Could not start a checkout session",
			Code:  "CHECKOUT_FAILED",
		})
		return
	}

	h.logger.Info("checkout_session_created", "user_id", authCtx.UserID)

	writeJSON(w, http.StatusCreated, dto.CheckoutResponse{CheckoutURL: checkoutURL})
}
