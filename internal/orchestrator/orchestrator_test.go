package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-studio/internal/common/config"
	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
)

// ==========================
// Test Helper Functions
// ==========================

// stubGenerator counts calls and delegates to fn.
type stubGenerator struct {
	id      string
	channel provider.Channel
	calls   int32
	fn      func(ctx context.Context, prompt string) (*provider.Payload, error)
}

func (g *stubGenerator) ID() string                { return g.id }
func (g *stubGenerator) Channel() provider.Channel { return g.channel }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (*provider.Payload, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.fn(ctx, prompt)
}

func (g *stubGenerator) callCount() int { return int(atomic.LoadInt32(&g.calls)) }

func succeedWith(id string, ch provider.Channel, payload *provider.Payload) *stubGenerator {
	return &stubGenerator{id: id, channel: ch, fn: func(ctx context.Context, prompt string) (*provider.Payload, error) {
		return payload, nil
	}}
}

func failWith(id string, ch provider.Channel, err error) *stubGenerator {
	return &stubGenerator{id: id, channel: ch, fn: func(ctx context.Context, prompt string) (*provider.Payload, error) {
		return nil, err
	}}
}

func defaultChannels() map[string]config.ChannelConfig {
	return map[string]config.ChannelConfig{
		"text":  {Enabled: true, Timeout: 15000},
		"image": {Enabled: true, Timeout: 30000},
		"video": {Enabled: true, Timeout: 60000},
	}
}

// fakeCache is an in-memory ResultCache recording puts.
type fakeCache struct {
	entries map[string]*provider.Payload
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*provider.Payload)}
}

func (c *fakeCache) Get(ctx context.Context, ch provider.Channel, prompt string) (*provider.Payload, bool) {
	p, ok := c.entries[string(ch)+":"+prompt]
	return p, ok
}

func (c *fakeCache) Put(ctx context.Context, ch provider.Channel, prompt string, payload *provider.Payload) {
	c.puts++
	c.entries[string(ch)+":"+prompt] = payload
}

// ==========================
// Prompt Validation Tests
// ==========================

func TestGenerate_EmptyPromptRejectedBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{name: "empty string", prompt: ""},
		{name: "whitespace only", prompt: "   \t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := succeedWith("text-1", provider.ChannelText, &provider.Payload{Text: "never"})
			orch := New(map[provider.Channel][]provider.Generator{
				provider.ChannelText: {gen},
			}, defaultChannels(), nil, logger.NewTestLogger(t))

			resp, err := orch.Generate(context.Background(), tt.prompt)

			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeEmptyPrompt))
			assert.Equal(t, 0, gen.callCount(), "no provider may be invoked for an empty prompt")
		})
	}
}

// ==========================
// Fallback Semantics Tests
// ==========================

func TestGenerate_FirstSuccessSkipsLaterProviders(t *testing.T) {
	first := failWith("provider-a", provider.ChannelText, errors.New("model overloaded"))
	second := succeedWith("provider-b", provider.ChannelText, &provider.Payload{Text: "Robots dream in color."})
	third := succeedWith("provider-c", provider.ChannelText, &provider.Payload{Text: "unused"})

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText: {first, second, third},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "a robot painting in the rain")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelText]
	require.NotNil(t, result)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.Equal(t, "provider-b", result.Provider)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "Robots dream in color.", result.Payload.Text)
	assert.Empty(t, result.Error)

	assert.Equal(t, 1, first.callCount())
	assert.Equal(t, 1, second.callCount())
	assert.Equal(t, 0, third.callCount(), "providers after the first success must not be invoked")
}

func TestGenerate_AllProvidersFail_OnlyLastErrorSurvives(t *testing.T) {
	first := failWith("provider-a", provider.ChannelImage, errors.New("rate limited"))
	second := failWith("provider-b", provider.ChannelImage, errors.New("model not found"))

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelImage: {first, second},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "neon city at dusk")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelImage]
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "model not found", result.Error, "only the final provider's error is preserved")
	assert.NotContains(t, result.Error, "rate limited")
	assert.Nil(t, result.Payload)
}

func TestGenerate_SingleProviderHTTPStatusPreservedVerbatim(t *testing.T) {
	only := failWith("hf-flux", provider.ChannelImage, fmt.Errorf("%s", "402 Payment Required"))

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelImage: {only},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "a castle on a floating island")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelImage]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "402 Payment Required", result.Error)
}

// ==========================
// Channel Independence Tests
// ==========================

func TestGenerate_ChannelsAreIndependent(t *testing.T) {
	textGen := failWith("text-1", provider.ChannelText, errors.New("caption service down"))
	imageGen := succeedWith("image-1", provider.ChannelImage, &provider.Payload{Data: []byte{0x89, 0x50}, MimeType: "image/png"})
	videoGen := succeedWith("video-1", provider.ChannelVideo, &provider.Payload{URL: "https://cdn.example.com/clip.mp4"})

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText:  {textGen},
		provider.ChannelImage: {imageGen},
		provider.ChannelVideo: {videoGen},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "surfing dog")
	require.NoError(t, err)

	// Exactly one result per channel, no matter the outcome mix.
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, StatusFailed, resp.Results[provider.ChannelText].Status)
	assert.Equal(t, StatusSucceeded, resp.Results[provider.ChannelImage].Status)
	assert.Equal(t, StatusSucceeded, resp.Results[provider.ChannelVideo].Status)
	assert.Equal(t, "caption service down", resp.Results[provider.ChannelText].Error)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "surfing dog", resp.Prompt)
}

func TestGenerate_DisabledChannelIsSkippedWithoutCalls(t *testing.T) {
	videoGen := succeedWith("video-1", provider.ChannelVideo, &provider.Payload{URL: "https://cdn.example.com/clip.mp4"})
	channels := defaultChannels()
	channels["video"] = config.ChannelConfig{Enabled: false, Timeout: 60000}

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText:  {succeedWith("text-1", provider.ChannelText, &provider.Payload{Text: "ok"})},
		provider.ChannelVideo: {videoGen},
	}, channels, nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "time lapse of a glacier")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelVideo]
	assert.Equal(t, StatusSkipped, result.Status)
	assert.Zero(t, result.Attempts)
	assert.Equal(t, 0, videoGen.callCount())
	// Other channels are unaffected.
	assert.Equal(t, StatusSucceeded, resp.Results[provider.ChannelText].Status)
}

func TestGenerate_EmptyChainIsSkipped(t *testing.T) {
	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText: {succeedWith("text-1", provider.ChannelText, &provider.Payload{Text: "ok"})},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "lonely lighthouse")
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, resp.Results[provider.ChannelImage].Status)
	assert.Equal(t, StatusSkipped, resp.Results[provider.ChannelVideo].Status)
	assert.Equal(t, StatusSucceeded, resp.Results[provider.ChannelText].Status)
}

// ==========================
// Deadline & Cancellation Tests
// ==========================

func TestGenerate_ChannelTimeoutStopsFallbackWalk(t *testing.T) {
	slow := &stubGenerator{id: "slow", channel: provider.ChannelText, fn: func(ctx context.Context, prompt string) (*provider.Payload, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	never := succeedWith("never", provider.ChannelText, &provider.Payload{Text: "late"})

	channels := defaultChannels()
	channels["text"] = config.ChannelConfig{Enabled: true, Timeout: 50}

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText: {slow, never},
	}, channels, nil, logger.NewTestLogger(t))

	start := time.Now()
	resp, err := orch.Generate(context.Background(), "sloths in slow motion")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelText]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Error)
	assert.Equal(t, 0, never.callCount(), "an exhausted budget must not leak into later providers")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerate_CallerCancellationPropagates(t *testing.T) {
	blocked := &stubGenerator{id: "blocked", channel: provider.ChannelVideo, fn: func(ctx context.Context, prompt string) (*provider.Payload, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelVideo: {blocked},
	}, defaultChannels(), nil, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	resp, err := orch.Generate(ctx, "stormy sea")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelVideo]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, context.Canceled.Error(), result.Error)
}

// ==========================
// Result Cache Tests
// ==========================

func TestGenerate_CacheHitShortCircuitsChain(t *testing.T) {
	gen := succeedWith("text-1", provider.ChannelText, &provider.Payload{Text: "fresh"})
	cache := newFakeCache()
	cache.entries["text:morning coffee"] = &provider.Payload{Text: "cached caption"}

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText: {gen},
	}, defaultChannels(), cache, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "morning coffee")
	require.NoError(t, err)

	result := resp.Results[provider.ChannelText]
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.True(t, result.Cached)
	assert.Equal(t, "cached caption", result.Payload.Text)
	assert.Equal(t, 0, gen.callCount())
}

func TestGenerate_SuccessIsWrittenToCache(t *testing.T) {
	gen := succeedWith("text-1", provider.ChannelText, &provider.Payload{Text: "fresh"})
	cache := newFakeCache()

	orch := New(map[provider.Channel][]provider.Generator{
		provider.ChannelText: {gen},
	}, defaultChannels(), cache, logger.NewTestLogger(t))

	resp, err := orch.Generate(context.Background(), "morning coffee")
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, resp.Results[provider.ChannelText].Status)
	assert.False(t, resp.Results[provider.ChannelText].Cached)
	assert.Equal(t, 1, cache.puts)

	cached, ok := cache.Get(context.Background(), provider.ChannelText, "morning coffee")
	require.True(t, ok)
	assert.Equal(t, "fresh", cached.Text)
}
