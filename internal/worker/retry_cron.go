package worker

// retry_cron.go
// Background goroutine that periodically replays SMS jobs parked in the DLQ.
// Uses the Circuit Breaker to avoid hammering a downed Orange gateway.

import (
	"context"
	"encoding/json"
	"time"

	"gestock/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
	maxReplayAttempts = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB *redis.Client
	CB  *infra.CircuitBreaker
	SMS *SMSWorker
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// replays DLQ'd SMS jobs through the circuit breaker. It respects the
// context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed gateway
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	dlqKey := DLQPrefix + QueueSMS
	for i := 0; i < retryBatchSize; i++ {
		// Check CB state before each replay — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty queue or redis unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: corrupt DLQ entry, dropping")
			continue
		}

		var payload SMSJobPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("retry_cron: corrupt SMS payload, dropping")
			continue
		}

		if replayErr := cfg.SMS.Deliver(ctx, payload); replayErr != nil {
			entry.Attempts++
			entry.Reason = replayErr.Error()
			entry.FailedAt = time.Now().UTC().Format(time.RFC3339)
			data, _ := json.Marshal(entry)

			if entry.Attempts >= maxReplayAttempts {
				// Park for manual inspection — no more automatic replays
				_ = cfg.RDB.LPush(ctx, ParkedPrefix+QueueSMS, data).Err()
				log.Error().
					Int("attempts", entry.Attempts).
					Str("reason", entry.Reason).
					Msg("retry_cron: max replays exceeded, parking job")
			} else {
				_ = cfg.RDB.LPush(ctx, dlqKey, data).Err()
				log.Warn().
					Int("attempts", entry.Attempts).
					Msg("retry_cron: replay failed, returned to DLQ")
			}
			continue
		}

		log.Info().Int("attempts", entry.Attempts).Msg("retry_cron: SMS replayed successfully")
	}
}
