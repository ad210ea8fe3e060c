package orchestrator

import (
	"context"
	"time"

	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/metrics"
	"content-studio/internal/provider"
)

// runChannel walks one channel's fallback list in priority order. The first
// success wins and no later provider is invoked; when every provider has
// failed, only the last attempt's error survives into the result. Each
// provider gets exactly one call — no backoff, no same-provider retry, no
// speculative parallel attempts.
func (o *Orchestrator) runChannel(ctx context.Context, ch provider.Channel, prompt string) *Result {
	start := time.Now()
	result := &Result{Channel: ch}

	defer func() {
		result.Latency = time.Since(start)
		metrics.ChannelDuration.WithLabelValues(string(ch)).Observe(result.Latency.Seconds())
	}()

	chain := o.chains[ch]
	if !o.channelEnabled(ch) || len(chain) == 0 {
		result.Status = StatusSkipped
		result.Error = stderrors.NewChannelDisabledError(string(ch)).Message
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, o.channelTimeout(ch))
	defer cancel()

	if o.cache != nil {
		if payload, ok := o.cache.Get(ctx, ch, prompt); ok {
			metrics.CacheHits.WithLabelValues(string(ch), "hit").Inc()
			result.Status = StatusSucceeded
			result.Payload = payload
			result.Cached = true
			return result
		}
		metrics.CacheHits.WithLabelValues(string(ch), "miss").Inc()
	}

	var lastErr error
	for _, gen := range chain {
		result.Attempts++

		payload, err := gen.Generate(ctx, prompt)
		if err == nil {
			metrics.ProviderAttempts.WithLabelValues(string(ch), gen.ID(), "success").Inc()
			metrics.FallbackDepth.WithLabelValues(string(ch)).Observe(float64(result.Attempts))

			result.Status = StatusSucceeded
			result.Payload = payload
			result.Provider = gen.ID()

			if o.cache != nil {
				o.cache.Put(ctx, ch, prompt, payload)
			}
			return result
		}

		// Earlier errors are discarded once a later provider is attempted;
		// the warn log and the attempt counter are the only trace they leave.
		lastErr = err
		metrics.ProviderAttempts.WithLabelValues(string(ch), gen.ID(), "failure").Inc()
		o.logger.Warn("provider attempt failed", map[string]interface{}{
			"channel":  string(ch),
			"provider": gen.ID(),
			"attempt":  result.Attempts,
			"error":    err.Error(),
		})

		if ctx.Err() != nil {
			// Channel budget exhausted; later providers would inherit a dead
			// context, so stop here with the current error.
			break
		}
	}

	metrics.FallbackDepth.WithLabelValues(string(ch)).Observe(float64(result.Attempts))
	result.Status = StatusFailed
	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = stderrors.NewChannelExhaustedError(string(ch), nil).Message
	}
	return result
}
