package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of the config file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(&Config{})
	s.Title = "vscroll configuration"

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return out, nil
}
