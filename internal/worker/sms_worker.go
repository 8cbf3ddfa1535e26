package worker

// sms_worker.go
// Processes stock notification jobs from QueueSMS.
// Resolves the active recipient list at delivery time and sends one SMS per
// recipient through the Orange gateway, behind the circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gestock/internal/infra"
	"gestock/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SMSJobPayload is the job envelope sent to QueueSMS.
type SMSJobPayload struct {
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// SMSWorker delivers stock notifications to every active recipient.
type SMSWorker struct {
	orange     *infra.OrangeClient
	cb         *infra.CircuitBreaker
	recipients repository.RecipientRepository
	rdb        *redis.Client
}

func NewSMSWorker(
	orange *infra.OrangeClient,
	cb *infra.CircuitBreaker,
	recipients repository.RecipientRepository,
	rdb *redis.Client,
) *SMSWorker {
	return &SMSWorker{orange: orange, cb: cb, recipients: recipients, rdb: rdb}
}

// Process handles a single SMS job. Failed deliveries go to the DLQ so the
// retry cron can replay them once the gateway recovers.
func (w *SMSWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SMSJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sms_worker: invalid payload")
		return
	}

	if err := w.Deliver(ctx, payload); err != nil {
		SendToDLQ(ctx, w.rdb, QueueSMS, "sms", raw, err.Error(), 1)
	}
}

// Deliver sends the message to every active recipient with a phone number.
// Returns an error when at least one delivery failed, so the whole job can be
// replayed (Orange deduplicates identical messages on its side).
func (w *SMSWorker) Deliver(ctx context.Context, payload SMSJobPayload) error {
	if payload.Message == "" {
		log.Warn().Msg("sms_worker: empty message — skipping")
		return nil
	}
	if !w.orange.Configured(payload.Company) {
		log.Warn().Str("company", payload.Company).Msg("sms_worker: Orange API not configured — skipping")
		return nil
	}

	recipients, err := w.recipients.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("sms_worker: list recipients: %w", err)
	}

	var failed int
	var lastErr error
	for _, rcpt := range recipients {
		if rcpt.Phone == nil || *rcpt.Phone == "" {
			continue
		}
		phone := *rcpt.Phone

		sendErr := withRetry(ctx, 3, func(attempt int) error {
			return w.cb.Execute(func() error {
				return w.orange.SendSMS(ctx, payload.Company, phone, payload.Message)
			})
		})
		if sendErr != nil {
			failed++
			lastErr = sendErr
			log.Warn().Err(sendErr).Str("recipient", rcpt.Name).Msg("sms_worker: delivery failed")
			continue
		}
		log.Info().Str("recipient", rcpt.Name).Msg("sms_worker: SMS sent")
	}

	if failed > 0 {
		return fmt.Errorf("sms_worker: %d delivery(ies) failed: %w", failed, lastErr)
	}
	return nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			// No point retrying while the breaker fast-fails
			if err == infra.ErrCircuitOpen {
				return err
			}
			continue
		}
		return nil
	}
	return lastErr
}
