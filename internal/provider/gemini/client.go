// Package gemini calls the Google Generative Language REST API:
// generateContent for captions, Imagen predict for posters, and the Veo
// long-running predict for video.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"content-studio/internal/common/config"
	"content-studio/internal/common/httpclient"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
)

const (
	defaultMaxOutputTokens = 60
	defaultTemperature     = 0.7

	// Veo operations are polled until the channel deadline cancels us.
	pollInterval = 3 * time.Second
)

type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  logger.Logger
}

func NewClient(cfg config.GeminiConfig, hc *httpclient.Client, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
		logger:  log.With(map[string]interface{}{"family": "gemini"}),
	}
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent produces a text completion for the prompt.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}

	var resp generateContentResponse
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	if err := c.postJSON(ctx, endpoint, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidate list")
	}
	return strings.Trim(strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), `"`), nil
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters map[string]any    `json:"parameters,omitempty"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage runs an Imagen predict call and decodes the returned
// base64 image.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	reqBody := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: map[string]any{"sampleCount": 1},
	}

	var resp predictResponse
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predict", c.baseURL, model)
	if err := c.postJSON(ctx, endpoint, reqBody, &resp); err != nil {
		return nil, "", err
	}

	if len(resp.Predictions) == 0 {
		return nil, "", fmt.Errorf("empty prediction list")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateVideo starts a Veo long-running prediction and polls it until the
// context deadline. An operation still pending at the deadline counts as a
// failed attempt.
func (c *Client) GenerateVideo(ctx context.Context, model, prompt string) (string, error) {
	reqBody := predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
	}

	var op operationResponse
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.baseURL, model)
	if err := c.postJSON(ctx, endpoint, reqBody, &op); err != nil {
		return "", err
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("video operation still pending")
		case <-time.After(pollInterval):
		}

		pollURL := fmt.Sprintf("%s/v1beta/%s", c.baseURL, op.Name)
		if err := c.getJSON(ctx, pollURL, &op); err != nil {
			return "", err
		}
	}

	if op.Error.Message != "" {
		return "", fmt.Errorf("%s", op.Error.Message)
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return "", fmt.Errorf("operation finished without samples")
	}
	return samples[0].Video.URI, nil
}

func (c *Client) postJSON(ctx context.Context, url string, in, out any) error {
	body, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	return c.send(req, out)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(snippet) > 0 {
			c.logger.Debug("provider error body", map[string]interface{}{
				"status": resp.Status,
				"body":   string(snippet),
			})
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.apiKey)
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
		text, err := g.client.GenerateContent(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{Text: text}, nil
	case provider.ChannelImage:
		data, mime, err := g.client.GenerateImage(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{Data: data, MimeType: mime}, nil
	case provider.ChannelVideo:
		uri, err := g.client.GenerateVideo(ctx, g.model, rendered)
		if err != nil {
			return nil, err
		}
		return &provider.Payload{URL: uri, MimeType: "video/mp4"}, nil
	default:
		return nil, fmt.Errorf("unsupported channel %q", g.channel)
	}
}
