// Package provider defines the channel and provider model shared by the
// orchestrator and the per-family clients.
package provider

import "context"

// Channel identifies one of the three independent generation tracks.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelImage Channel = "image"
	ChannelVideo Channel = "video"
)

// Channels lists every channel in display order.
func Channels() []Channel {
	return []Channel{ChannelText, ChannelImage, ChannelVideo}
}

// Family identifies a hosted provider family sharing one credential.
type Family string

const (
	FamilyHuggingFace  Family = "huggingface"
	FamilyGemini       Family = "gemini"
	FamilyReplicate    Family = "replicate"
	FamilyPollinations Family = "pollinations"
)

// Payload is the normalized output of one provider call. Text carries the
// caption for the text channel; media channels fill either Data (raw bytes)
// or URL (hosted reference), depending on what the provider returns.
type Payload struct {
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Generator is one remote model endpoint able to service one channel.
// Generate makes exactly one outbound call; retries across endpoints are
// the orchestrator's job, not the generator's.
type Generator interface {
	ID() string
	Channel() Channel
	Generate(ctx context.Context, prompt string) (*Payload, error)
}

// Descriptor is the static configuration of one registry entry.
type Descriptor struct {
	ID       string   `json:"id"`
	Family   Family   `json:"family"`
	Channel  Channel  `json:"channel"`
	Model    string   `json:"model"`
	Template Template `json:"template"`
}
