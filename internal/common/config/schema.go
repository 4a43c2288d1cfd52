package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// settingsSchema checks the structural shape of the loaded settings before
// unmarshalling. It is intentionally loose about presence: only types are
// enforced, so an empty credential bundle still loads.
const settingsSchema = `{
	"type": "object",
	"properties": {
		"app": {
			"type": "object",
			"properties": {
				"id":          {"type": "string"},
				"name":        {"type": "string"},
				"version":     {"type": "string"},
				"environment": {"type": "string"}
			}
		},
		"backend": {
			"type": "object",
			"properties": {
				"auth_url":   {"type": "string"},
				"tenant":     {"type": "string"},
				"api_key":    {"type": "string"},
				"api_secret": {"type": "string"}
			}
		},
		"auth": {
			"type": "object",
			"properties": {
				"token":                  {"type": "string"},
				"refresh_margin_seconds": {"type": "integer"}
			}
		},
		"storage": {
			"type": "object",
			"properties": {
				"driver": {"type": "string", "enum": ["elasticsearch", "postgres"]}
			}
		},
		"database": {
			"type": "object",
			"properties": {
				"postgres": {
					"type": "object",
					"properties": {
						"host":     {"type": "string"},
						"port":     {"type": "integer"},
						"database": {"type": "string"},
						"user":     {"type": "string"},
						"password": {"type": "string"}
					}
				},
				"elasticsearch": {
					"type": "object",
					"properties": {
						"addresses": {"type": "array", "items": {"type": "string"}},
						"url":       {"type": "string"}
					}
				},
				"redis": {
					"type": "object",
					"properties": {
						"address":            {"type": "string"},
						"db":                 {"type": "integer"},
						"status_ttl_seconds": {"type": "integer"}
					}
				}
			}
		},
		"server": {
			"type": "object",
			"properties": {
				"address": {"type": "string"}
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level":  {"type": "string"},
				"format": {"type": "string"},
				"output": {"type": "string"}
			}
		}
	}
}`

func validateSettingsSchema(settings map[string]interface{}) error {
	schemaLoader := gojsonschema.NewStringLoader(settingsSchema)
	documentLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("config schema violations: %s", strings.Join(msgs, "; "))
	}

	return nil
}
