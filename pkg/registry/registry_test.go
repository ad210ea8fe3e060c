package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/provider"
)

const validRegistry = `{
	"version": "1",
	"lastUpdated": "2026-08-30",
	"channels": {
		"text": [
			{"id": "hf-mistral", "family": "huggingface", "model": "mistralai/Mistral-7B-Instruct-v0.3", "template": "caption"},
			{"id": "pollinations-text", "family": "pollinations", "template": "caption"}
		],
		"image": [
			{"id": "hf-flux", "family": "huggingface", "model": "black-forest-labs/FLUX.1-dev", "template": "poster"}
		],
		"video": [
			{"id": "replicate-wan", "family": "replicate", "model": "wan-video/wan-2.2-t2v-fast"}
		]
	}
}`

func TestParse_ValidRegistry(t *testing.T) {
	descriptors, err := Parse([]byte(validRegistry))
	require.NoError(t, err)
	require.Len(t, descriptors, 4)

	// Channel walk order is text, image, video; registry order within.
	assert.Equal(t, "hf-mistral", descriptors[0].ID)
	assert.Equal(t, provider.ChannelText, descriptors[0].Channel)
	assert.Equal(t, provider.TemplateCaption, descriptors[0].Template)

	assert.Equal(t, "pollinations-text", descriptors[1].ID)
	assert.Equal(t, "hf-flux", descriptors[2].ID)
	assert.Equal(t, provider.ChannelImage, descriptors[2].Channel)

	// Missing template defaults to raw.
	assert.Equal(t, "replicate-wan", descriptors[3].ID)
	assert.Equal(t, provider.TemplateRaw, descriptors[3].Template)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "missing channels",
			data: `{"version": "1"}`,
		},
		{
			name: "empty chain",
			data: `{"version": "1", "channels": {"text": []}}`,
		},
		{
			name: "unknown family",
			data: `{"version": "1", "channels": {"text": [{"id": "x", "family": "openai"}]}}`,
		},
		{
			name: "unknown template",
			data: `{"version": "1", "channels": {"text": [{"id": "x", "family": "gemini", "template": "haiku"}]}}`,
		},
		{
			name: "unknown channel",
			data: `{"version": "1", "channels": {"audio": [{"id": "x", "family": "gemini"}]}}`,
		},
		{
			name: "missing id",
			data: `{"version": "1", "channels": {"text": [{"family": "gemini"}]}}`,
		},
		{
			name: "not json",
			data: `registry: nope`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeRegistryInvalid))
		})
	}
}

func TestParse_DuplicateIDRejected(t *testing.T) {
	data := `{
		"version": "1",
		"channels": {
			"text": [{"id": "dup", "family": "gemini"}],
			"image": [{"id": "dup", "family": "gemini"}]
		}
	}`

	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeRegistryInvalid))
	assert.Contains(t, stderrors.AsStandard(err).Details, "dup")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, []byte(validRegistry), 0o644))

	descriptors, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, descriptors, 4)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
