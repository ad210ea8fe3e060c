// Package factory builds channel generators from registry descriptors,
// dropping entries whose family credential is absent so a missing token
// disables providers instead of failing requests at call time.
package factory

import (
	"fmt"

	"content-studio/internal/common/config"
	"content-studio/internal/common/httpclient"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
	"content-studio/internal/provider/gemini"
	"content-studio/internal/provider/huggingface"
	"content-studio/internal/provider/pollinations"
	"content-studio/internal/provider/replicate"
)

type Factory struct {
	cfg    config.ProvidersConfig
	logger logger.Logger

	hf *huggingface.Client
	gm *gemini.Client
	rp *replicate.Client
	pl *pollinations.Client
}

func New(cfg config.ProvidersConfig, hc *httpclient.Client, log logger.Logger) *Factory {
	f := &Factory{cfg: cfg, logger: log}

	// Family clients are only constructed when their credential exists;
	// pollinations is anonymous and always available.
	if cfg.HuggingFace.Token != "" {
		f.hf = huggingface.NewClient(cfg.HuggingFace, hc, log)
	}
	if cfg.Gemini.APIKey != "" {
		f.gm = gemini.NewClient(cfg.Gemini, hc, log)
	}
	if cfg.Replicate.Token != "" {
		f.rp = replicate.NewClient(cfg.Replicate, hc, log)
	}
	f.pl = pollinations.NewClient(cfg.Pollinations, hc, log)

	return f
}

// Build turns descriptors into per-channel generator chains, preserving the
// registry's priority order within each channel. Descriptors whose family
// is unavailable are skipped with a warning.
func (f *Factory) Build(descriptors []provider.Descriptor) map[provider.Channel][]provider.Generator {
	chains := make(map[provider.Channel][]provider.Generator, 3)

	for _, desc := range descriptors {
		gen, err := f.build(desc)
		if err != nil {
			f.logger.Warn("provider skipped", map[string]interface{}{
				"provider": desc.ID,
				"channel":  string(desc.Channel),
				"reason":   err.Error(),
			})
			continue
		}
		chains[desc.Channel] = append(chains[desc.Channel], gen)
	}

	return chains
}

func (f *Factory) build(desc provider.Descriptor) (provider.Generator, error) {
	switch desc.Family {
	case provider.FamilyHuggingFace:
		if f.hf == nil {
			return nil, fmt.Errorf("HF_TOKEN not configured")
		}
		return huggingface.NewGenerator(desc, f.hf), nil
	case provider.FamilyGemini:
		if f.gm == nil {
			return nil, fmt.Errorf("GEMINI_API_KEY not configured")
		}
		return gemini.NewGenerator(desc, f.gm), nil
	case provider.FamilyReplicate:
		if f.rp == nil {
			return nil, fmt.Errorf("REPLICATE_API_TOKEN not configured")
		}
		return replicate.NewGenerator(desc, f.rp), nil
	case provider.FamilyPollinations:
		if desc.Channel == provider.ChannelVideo {
			return nil, fmt.Errorf("pollinations has no video endpoint")
		}
		return pollinations.NewGenerator(desc, f.pl), nil
	default:
		return nil, fmt.Errorf("unknown family %q", desc.Family)
	}
}
