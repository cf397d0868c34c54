package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML or JSON config file, validates it against the
// embedded schema, applies defaults, and runs struct-level validation.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", "":
	default:
		return nil, errors.Errorf("unsupported config extension %q (want .yaml, .yml, or .json)", filepath.Ext(path))
	}

	return Load(raw)
}

// Load parses a YAML (or JSON, which YAML subsumes) config document.
func Load(raw []byte) (*Config, error) {
	// Schema validation happens on the JSON form of the document.
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if generic == nil {
		generic = map[string]interface{}{}
	}

	doc, err := json.Marshal(normalizeKeys(generic))
	if err != nil {
		return nil, errors.Wrap(err, "converting config to JSON")
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeKeys converts yaml.v3's map[string]interface{} trees into
// json-marshalable values. yaml.v3 already decodes mappings with string
// keys, but nested interface{} keys can appear in hand-written documents.
func normalizeKeys(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			out[k] = normalizeKeys(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			key, ok := k.(string)
			if !ok {
				continue
			}
			out[key] = normalizeKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}
