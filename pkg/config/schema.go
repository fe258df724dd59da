package config

import (
	"github.com/invopop/jsonschema"
)

// GenerateSchema generates a JSON schema for the Config struct, used by
// cmd/schema to keep schema.json in sync with the config shape
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
