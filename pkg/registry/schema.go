package registry

// ProviderRegistry is the on-disk fallback configuration: one ordered entry
// list per channel, highest priority first.
type ProviderRegistry struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Channels    map[string][]Entry `json:"channels"`
}

type Entry struct {
	ID       string `json:"id"`
	Family   string `json:"family"`
	Model    string `json:"model,omitempty"`
	Template string `json:"template,omitempty"`
}

// registrySchema is the JSON schema the registry file must satisfy before
// any descriptor is built from it.
const registrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "channels"],
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "channels": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "text": {"$ref": "#/definitions/chain"},
        "image": {"$ref": "#/definitions/chain"},
        "video": {"$ref": "#/definitions/chain"}
      }
    }
  },
  "definitions": {
    "chain": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "family"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "family": {"enum": ["huggingface", "gemini", "replicate", "pollinations"]},
          "model": {"type": "string"},
          "template": {"enum": ["raw", "caption", "poster", "poster_plain"]}
        },
        "additionalProperties": false
      }
    }
  }
}`
