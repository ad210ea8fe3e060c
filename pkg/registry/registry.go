// Package registry loads and validates the provider fallback registry.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/provider"
)

// Load reads the registry file, checks it against the JSON schema, and
// returns the channel descriptor lists in priority order. Any schema
// violation fails startup.
func Load(path string) ([]provider.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Parse validates raw registry JSON and builds descriptors from it.
func Parse(data []byte) ([]provider.Descriptor, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, stderrors.NewRegistryInvalidError(err.Error())
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, stderrors.NewRegistryInvalidError(strings.Join(issues, "; "))
	}

	var reg ProviderRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, stderrors.NewRegistryInvalidError(err.Error())
	}

	var descriptors []provider.Descriptor
	seen := make(map[string]bool)
	for _, ch := range provider.Channels() {
		for _, entry := range reg.Channels[string(ch)] {
			if seen[entry.ID] {
				return nil, stderrors.NewRegistryInvalidError(
					fmt.Sprintf("duplicate provider id %q", entry.ID))
			}
			seen[entry.ID] = true

			tmpl := provider.Template(entry.Template)
			if entry.Template == "" {
				tmpl = provider.TemplateRaw
			}
			descriptors = append(descriptors, provider.Descriptor{
				ID:       entry.ID,
				Family:   provider.Family(entry.Family),
				Channel:  ch,
				Model:    entry.Model,
				Template: tmpl,
			})
		}
	}

	return descriptors, nil
}
