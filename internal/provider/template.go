package provider

import "fmt"

// Template names a prompt decoration applied before a provider call. The
// texts mirror what the studio has always sent: a caption instruction for
// the text channel, a movie-poster wrapper for images (the fallback drops
// the typography clauses because the lighter models choke on them), and
// the raw prompt for video.
type Template string

const (
	TemplateRaw         Template = "raw"
	TemplateCaption     Template = "caption"
	TemplatePoster      Template = "poster"
	TemplatePosterPlain Template = "poster_plain"
)

// Apply renders the template for a user prompt. Unknown templates pass the
// prompt through unchanged.
func (t Template) Apply(prompt string) string {
	switch t {
	case TemplateCaption:
		return fmt.Sprintf(
			"Write a single, short, punchy, viral social media caption (under 15 words) for a video about: %s. No hashtags, just the phrase.",
			prompt,
		)
	case TemplatePoster:
		return fmt.Sprintf("Movie poster for %s, cinematic, 8k, typography, title text", prompt)
	case TemplatePosterPlain:
		return fmt.Sprintf("Movie poster for %s, cinematic", prompt)
	default:
		return prompt
	}
}

// Valid reports whether t is a known template name.
func (t Template) Valid() bool {
	switch t {
	case TemplateRaw, TemplateCaption, TemplatePoster, TemplatePosterPlain:
		return true
	}
	return false
}
