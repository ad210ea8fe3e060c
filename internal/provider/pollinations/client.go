// Package pollinations calls the Pollinations endpoints. They are URL-based
// and anonymous: images come back as raw bytes from a GET on the prompt,
// text as a plain string. The last line of defense in every fallback list.
package pollinations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"content-studio/internal/common/config"
	"content-studio/internal/common/httpclient"
	"content-studio/internal/common/logger"
	"content-studio/internal/provider"
)

const maxMediaBytes = 32 << 20

type Client struct {
	imageBaseURL string
	textBaseURL  string
	http         *httpclient.Client
	logger       logger.Logger
}

func NewClient(cfg config.PollinationsConfig, hc *httpclient.Client, log logger.Logger) *Client {
	return &Client{
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		textBaseURL:  strings.TrimRight(cfg.TextBaseURL, "/"),
		http:         hc,
		logger:       log.With(map[string]interface{}{"family": "pollinations"}),
	}
}

// GenerateImage fetches image bytes for the prompt. The model is passed as
// a query parameter when set.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s", c.imageBaseURL, url.PathEscape(prompt))
	if model != "" {
		endpoint += "?model=" + url.QueryEscape(model)
	}

	data, mime, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, "", err
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

// GenerateText fetches a plain-text completion for the prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", c.textBaseURL, url.PathEscape(prompt))
	data, _, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
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
		return nil, "", fmt.Errorf("%s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Generator adapts this client to a single channel. Pollinations serves no
// video channel.
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
		text, err := g.client.GenerateText(ctx, rendered)
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
	default:
		return nil, fmt.Errorf("unsupported channel %q", g.channel)
	}
}
