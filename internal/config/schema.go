package config

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the JSON Schema every loaded config document must satisfy
// before struct-level validation runs. Durations travel as "200ms"/"5s"
// style strings or raw nanosecond numbers.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "duration": {
      "oneOf": [
        {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h)([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))*$"},
        {"type": "number"}
      ]
    }
  },
  "properties": {
    "name": {"type": "string"},
    "tracker": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "window": {"$ref": "#/definitions/duration"},
        "cleanupInterval": {"$ref": "#/definitions/duration"},
        "maxSamples": {"type": "integer", "minimum": 0}
      }
    },
    "store": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "minDelay": {"$ref": "#/definitions/duration"},
        "maxDelay": {"$ref": "#/definitions/duration"},
        "seed": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        },
        "seedCount": {"type": "integer", "minimum": 0}
      }
    },
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "capacity": {"type": "integer", "minimum": 1}
      }
    },
    "load": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "frequency": {"type": "integer", "minimum": 1, "maximum": 100},
        "tickPeriod": {"$ref": "#/definitions/duration"},
        "duration": {"$ref": "#/definitions/duration"}
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", strings.NewReader(configSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("config.schema.json")
}

// ValidateSchema checks a JSON config document against the embedded schema.
// The document must already be JSON (the loader converts YAML first).
func ValidateSchema(doc []byte) error {
	var data interface{}
	if err := json.Unmarshal(doc, &data); err != nil {
		return errors.Wrap(err, "config is not valid JSON")
	}

	if err := compiledSchema.Validate(data); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return errors.Errorf("config does not match schema: %s", flattenSchemaError(ve))
		}
		return errors.Wrap(err, "config does not match schema")
	}
	return nil
}

// flattenSchemaError collects leaf causes so the operator sees field-level
// messages rather than the schema's root error.
func flattenSchemaError(err *jsonschema.ValidationError) string {
	leaves := leafCauses(err)
	msgs := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		msgs = append(msgs, loc+": "+leaf.Message)
	}
	return strings.Join(msgs, "; ")
}

func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafCauses(cause)...)
	}
	return leaves
}
