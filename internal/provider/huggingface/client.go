// Package huggingface calls the Hugging Face Inference API: chat
// completions for captions, model inference for text-to-image and
// text-to-video. Media responses arrive as raw bytes.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"content-studio/internal/common/config"
	"content-studio/internal/common/httpclient"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
)

const (
	defaultMaxTokens   = 60
	defaultTemperature = 0.7

	// Free-tier media responses can be large but are bounded; anything past
	// this is treated as malformed.
	maxMediaBytes = 64 << 20
)

type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
	logger  logger.Logger
}

func NewClient(cfg config.HuggingFaceConfig, hc *httpclient.Client, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
		logger:  log.With(map[string]interface{}{"family": "huggingface"}),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion sends one chat-completion request. The response may be a
// chat envelope or the legacy generated_text array; both shapes are decoded.
func (c *Client) ChatCompletion(ctx context.Context, model, prompt string) (string, error) {
	payload := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseTextResponse(raw)
}

// parseTextResponse accepts both API styles the hosted endpoints alternate
// between: a chat-completion envelope and a bare generated_text array.
func parseTextResponse(raw []byte) (string, error) {
	var envelope chatResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Choices) > 0 {
		return cleanCaption(envelope.Choices[0].Message.Content), nil
	}

	var legacy []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &legacy); err == nil && len(legacy) > 0 {
		return cleanCaption(legacy[0].GeneratedText), nil
	}

	return "", fmt.Errorf("unrecognized completion payload")
}

// TextToImage runs model inference for an image model and returns the raw
// image bytes with the reported content type.
func (c *Client) TextToImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	return c.mediaInference(ctx, model, prompt, "image/png")
}

// TextToVideo runs model inference for a video model and returns the raw
// video bytes with the reported content type.
func (c *Client) TextToVideo(ctx context.Context, model, prompt string) ([]byte, string, error) {
	return c.mediaInference(ctx, model, prompt, "video/mp4")
}

func (c *Client) mediaInference(ctx context.Context, model, prompt, fallbackMime string) ([]byte, string, error) {
	body, _ := json.Marshal(map[string]string{"inputs": prompt})

	url := fmt.Sprintf("%s/hf-inference/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.statusError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty media response")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || strings.HasPrefix(mime, "application/json") {
		mime = fallbackMime
	}
	return data, mime, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError keeps the status line verbatim; gated models answer 402 and
// cold models 503, and those strings surface to the caller unchanged. The
// response body only makes it into the debug log.
func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(snippet) > 0 {
		c.logger.Debug("provider error body", map[string]interface{}{
			"status": resp.Status,
			"body":   string(snippet),
		})
	}
	return fmt.Errorf("%s", resp.Status)
}

// Generator adapts one model on this client to a single channel.
type Generator struct {
	id       string
	channel  provider.Channel
	model    string
	template provider.Template
	client   *Client
}

func NewGenerator(desc provider.Descriptor, client *Client) *Generator {
	return &Generator{
		id:       desc.ID,
		channel:  desc.Channel,
		model:    desc.Model,
		template: desc.Template,
		client:   client,
	}
}

func (g *Generator) ID() string                { return g.id }
func (g *Generator) Channel() provider.Channel { return g.channel }

func (g *Generator) Generate(ctx context.Context, prompt string) (*provider.Payload, error) {
	rendered := g.template.Apply(prompt)

	switch g.channel {
	case provider.ChannelText:
		text, err := g.client.ChatCompletion(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{Text: text}, nil
	case provider.ChannelImage:
		data, mime, err := g.client.TextToImage(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{Data: data, MimeType: mime}, nil
	case provider.ChannelVideo:
		data, mime, err := g.client.TextToVideo(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{Data: data, MimeType: mime}, nil
	default:
		return nil, fmt.Errorf("unsupported channel %q", g.channel)
	}
}

func cleanCaption(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
