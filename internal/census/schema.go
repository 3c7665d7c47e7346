// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// envelopeSchema describes the shape of a realtime service message. The
// required wrapper fields are checked explicitly in Decode so they map
// to distinct errors; the schema enforces field types on top of that.
const envelopeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"type": {"type": "string"},
		"service": {"type": "string"},
		"payload": {
			"type": "object",
			"properties": {
				"event_name":                {"type": "string"},
				"character_id":              {"type": "string"},
				"world_id":                  {"type": "string"},
				"zone_id":                   {"type": "string"},
				"timestamp":                 {"type": "string"},
				"attacker_character_id":     {"type": "string"},
				"attacker_loadout_id":       {"type": "string"},
				"character_loadout_id":      {"type": "string"},
				"attacker_weapon_id":        {"type": "string"},
				"attacker_fire_mode_id":     {"type": "string"},
				"attacker_vehicle_id":       {"type": "string"},
				"is_headshot":               {"type": "string"},
				"experience_id":             {"type": "string"},
				"loadout_id":                {"type": "string"},
				"amount":                    {"type": "string"},
				"other_id":                  {"type": "string"},
				"metagame_event_id":         {"type": "string"},
				"metagame_event_state_name": {"type": "string"}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jschema.Schema
	schemaErr      error
)

// getEnvelopeSchema returns the cached compiled envelope schema.
func getEnvelopeSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jschema.UnmarshalJSON(strings.NewReader(envelopeSchema))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse envelope schema: %w", err)
			return
		}

		c := jschema.NewCompiler()
		if err := c.AddResource("envelope.json", doc); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		schemaCompiled, schemaErr = c.Compile("envelope.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile envelope schema: %w", schemaErr)
		}
	})
	return schemaCompiled, schemaErr
}

// validateEnvelope checks a raw frame against the envelope schema.
func validateEnvelope(raw []byte) error {
	sch, err := getEnvelopeSchema()
	if err != nil {
		return err
	}

	inst, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("census: malformed frame: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("census: invalid service message: %w", err)
	}
	return nil
}
