// Package orchestrator resolves one generation request: three independent
// channels (caption, poster, clip), each walking an ordered provider
// fallback list until one answers.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"content-studio/internal/common/config"
	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
)

// Status is the per-channel outcome tag.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result is exactly one outcome per channel per request.
type Result struct {
	Channel  provider.Channel  `json:"channel"`
	Status   Status            `json:"status"`
	Payload  *provider.Payload `json:"payload,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Attempts int               `json:"attempts"`
	Error    string            `json:"error,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
	Latency  time.Duration     `json:"latency"`
}

// Response carries the outcome of every channel for one prompt.
type Response struct {
	ID        string                       `json:"id"`
	Prompt    string                       `json:"prompt"`
	Results   map[provider.Channel]*Result `json:"results"`
	CreatedAt time.Time                    `json:"created_at"`
}

// ResultCache short-circuits a channel when the same templated prompt has
// already been resolved. Implementations must degrade errors to misses.
type ResultCache interface {
	Get(ctx context.Context, channel provider.Channel, prompt string) (*provider.Payload, bool)
	Put(ctx context.Context, channel provider.Channel, prompt string, payload *provider.Payload)
}

type Orchestrator struct {
	chains   map[provider.Channel][]provider.Generator
	channels map[string]config.ChannelConfig
	cache    ResultCache
	logger   logger.Logger
}

// New builds an orchestrator over prebuilt provider chains. cache may be
// nil to disable result caching.
func New(chains map[provider.Channel][]provider.Generator, channels map[string]config.ChannelConfig, cache ResultCache, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		chains:   chains,
		channels: channels,
		cache:    cache,
		logger:   log.With(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Generate resolves all three channels for a prompt. The prompt is
// validated before any outbound call; channels run concurrently, each under
// its own deadline derived from ctx, so cancelling ctx cancels every
// in-flight provider call. Channel failures never cross channels and never
// escape this boundary as errors — they land in the per-channel Result.
func (o *Orchestrator) Generate(ctx context.Context, prompt string) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, stderrors.NewEmptyPromptError()
	}

	resp := &Response{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Results:   make(map[provider.Channel]*Result, 3),
		CreatedAt: time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, ch := range provider.Channels() {
		wg.Add(1)
		go func(ch provider.Channel) {
			defer wg.Done()
			result := o.runChannel(ctx, ch, prompt)
			mu.Lock()
			resp.Results[ch] = result
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	return resp, nil
}

func (o *Orchestrator) channelTimeout(ch provider.Channel) time.Duration {
	if cfg, ok := o.channels[string(ch)]; ok && cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Millisecond
	}
	return 30 * time.Second
}

func (o *Orchestrator) channelEnabled(ch provider.Channel) bool {
	cfg, ok := o.channels[string(ch)]
	return !ok || cfg.Enabled
}
