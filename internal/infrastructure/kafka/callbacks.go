package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barkshad/fuliza/internal/application/dto"
	pkgkafka "github.com/barkshad/fuliza/pkg/kafka"
)

// CallbackConfirmer resolves checkouts from gateway callbacks.
type CallbackConfirmer interface {
	Execute(ctx context.Context, cb dto.PaymentCallback) error
}

// callbackMessage is the payment callback relayed from the gateway webhook.
type callbackMessage struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason"`
}

// CallbackHandler decodes payment callbacks for a pkg/kafka Consumer.
// Malformed messages are skipped rather than retried forever.
func CallbackHandler(confirmer CallbackConfirmer) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var cb callbackMessage
		if err := json.Unmarshal(msg.Value, &cb); err != nil || cb.CheckoutRequestID == "" {
			return nil
		}
		if err := confirmer.Execute(ctx, dto.PaymentCallback{
			CheckoutRequestID: cb.CheckoutRequestID,
			TransactionID:     cb.TransactionID,
			Status:            cb.Status,
			Reason:            cb.Reason,
		}); err != nil {
			return fmt.Errorf("confirm checkout %s: %w", cb.CheckoutRequestID, err)
		}
		return nil
	}
}
