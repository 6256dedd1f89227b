package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/umputun/loginprobe/app/page"
)

// LoadSelectors reads selector overrides from yaml file and applies them to the defaults.
// Empty path returns the defaults. Unknown keys are rejected.
func LoadSelectors(path string) (page.Selectors, error) {
	def := page.DefaultSelectors()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return page.Selectors{}, fmt.Errorf("failed to read selectors file %s: %w", path, err)
	}

	var override page.Selectors
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return page.Selectors{}, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
	}
	if err := validateSelectors(override); err != nil {
		return page.Selectors{}, fmt.Errorf("invalid selectors file %s: %w", path, err)
	}
	return def.Merge(override), nil
}

// validateSelectors rejects blank entries in selector lists
func validateSelectors(s page.Selectors) error {
	for i, v := range s.ErrorAlternatives {
		if v == "" {
			return fmt.Errorf("error_alternatives %d is empty", i+1)
		}
	}
	for i, v := range s.Logout {
		if v == "" {
			return fmt.Errorf("logout %d is empty", i+1)
		}
	}
	return nil
}

// GenerateSchema generates a JSON schema for the selectors file
func GenerateSchema() *jsonschema.Schema {
	schema := jsonschema.Reflect(&page.Selectors{})
	schema.Title = "loginprobe selectors"
	schema.Description = "Selector overrides for the login page object"
	return schema
}
