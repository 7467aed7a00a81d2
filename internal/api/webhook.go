package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
)

type cartpandaPayload struct {
	Customer *struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// CartpandaWebhook handles /api/webhook/cartpanda. A completed purchase adds
// the customer's email to the allow-list; repeats are no-ops.
func (h *Handler) CartpandaWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		methodNotAllowed(w, r)
		return
	}

	if secret := h.cfg.Webhook.Secret; secret != "" {
		got := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			WriteError(w, r, apperr.Unauthenticated("invalid webhook secret"))
			return
		}
	}

	var payload cartpandaPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if payload.Customer == nil || strings.TrimSpace(payload.Customer.Email) == "" {
		WriteError(w, r, apperr.Validation("customer.email is required"))
		return
	}

	added, err := h.allowList.Add(r.Context(), payload.Customer.Email)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	logger.New().Info("purchase webhook processed", "added", added)
	success(w)
}
