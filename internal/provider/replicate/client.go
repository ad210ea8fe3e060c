// Package replicate calls the Replicate predictions API. Requests are sent
// with Prefer: wait so a single call blocks until the prediction settles or
// the channel deadline cancels it; outputs come back as hosted URLs.
package replicate

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

type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
	logger  logger.Logger
}

func NewClient(cfg config.ReplicateConfig, hc *httpclient.Client, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
		logger:  log.With(map[string]interface{}{"family": "replicate"}),
	}
}

type predictionRequest struct {
	Input predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt string `json:"prompt"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Predict creates a prediction for a model and returns the output URL.
func (c *Client) Predict(ctx context.Context, model, prompt string) (string, error) {
	body, _ := json.Marshal(predictionRequest{Input: predictionInput{Prompt: prompt}})

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(snippet) > 0 {
			c.logger.Debug("provider error body", map[string]interface{}{
				"status": resp.Status,
				"body":   string(snippet),
			})
		}
		return "", fmt.Errorf("%s", resp.Status)
	}

	var prediction predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if prediction.Error != "" {
		return "", fmt.Errorf("%s", prediction.Error)
	}
	if prediction.Status != "succeeded" {
		return "", fmt.Errorf("prediction %s", prediction.Status)
	}
	return parseOutput(prediction.Output)
}

// parseOutput handles the two output shapes models return: a single URL
// string or a list of URLs (first one wins).
func parseOutput(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}

	return "", fmt.Errorf("unrecognized prediction output")
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
	url, err := g.client.Predict(ctx, g.model, g.template.Apply(prompt))
	if err != nil {
		return nil, err
	}

	switch g.channel {
	case provider.ChannelText:
		// A handful of text models also run on Replicate; their output URL
		// slot carries the completion itself.
		return &provider.Payload{Text: url}, nil
	case provider.ChannelImage:
		return &provider.Payload{URL: url, MimeType: "image/png"}, nil
	case provider.ChannelVideo:
		return &provider.Payload{URL: url, MimeType: "video/mp4"}, nil
	default:
		return nil, fmt.Errorf("unsupported channel %q", g.channel)
	}
}
