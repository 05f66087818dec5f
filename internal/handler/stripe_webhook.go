package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/iconforge/iconforge/internal/billing"
	"github.com/iconforge/iconforge/internal/handler/dto"
	"github.com/iconforge/iconforge/internal/metrics"
)

// maxWebhookBodySize caps the Stripe webhook payload size.
const maxWebhookBodySize = 1 << 20

// CreditGranter credits a user's balance after a completed purchase.
type CreditGranter interface {
	AddCredits(ctx context.Context, userID string, amount int) error
}

// StripeWebhookHandler receives Stripe webhook events and grants
// purchased credits.
type StripeWebhookHandler struct {
	logger             *slog.Logger
	billing            *billing.Client
	granter            CreditGranter
	creditsPerPurchase int
	metrics            metrics.Recorder
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler. A nil
// recorder falls back to a no-op.
func NewStripeWebhookHandler(
	logger *slog.Logger,
	billingClient *billing.Client,
	granter CreditGranter,
	creditsPerPurchase int,
	recorder metrics.Recorder,
) *StripeWebhookHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &StripeWebhookHandler{
		logger:             logger,
		billing:            billingClient,
		granter:            granter,
		creditsPerPurchase: creditsPerPurchase,
		metrics:            recorder,
	}
}

// Handle handles POST /webhooks/stripe.
//
// Signature failures return 400 so Stripe retries; events other than
// checkout completion are acknowledged without side effects.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Could not read request body",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	completed, err := h.billing.VerifyCheckoutCompleted(payload, signature)
	if err != nil {
		h.logger.Warn("stripe_webhook_rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Webhook verification failed",
			Code:  "INVALID_SIGNATURE",
		})
		return
	}

	if completed == nil {
		// Verified but not a checkout completion; acknowledge and move on.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.granter.AddCredits(r.Context(), completed.UserID, h.creditsPerPurchase); err != nil {
		h.logger.Error("credit_grant_failed",
			"user_id", completed.UserID,
			"session_id", completed.SessionID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "Could not grant credits",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	h.metrics.IncCreditsPurchased(h.creditsPerPurchase)
	h.logger.Info("credits_granted",
		"user_id", completed.UserID,
		"session_id", completed.SessionID,
		"amount", h.creditsPerPurchase,
	)

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
