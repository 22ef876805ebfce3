package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MappingOverlay holds extra field mappings loaded from a YAML file,
// keyed by entity name. Overlays let deployments map custom backend
// columns without a code change.
type MappingOverlay struct {
	Entities map[string][]FieldMapping `yaml:"entities"`
}

// LoadMappingOverlay reads an overlay file and validates each entity's
// mapping list.
func LoadMappingOverlay(path string) (*MappingOverlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "model: read mapping overlay")
	}

	var overlay MappingOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, eris.Wrap(err, "model: parse mapping overlay")
	}

	for entity, mappings := range overlay.Entities {
		if err := CheckMappings(mappings); err != nil {
			return nil, eris.Wrapf(err, "model: overlay entity %s", entity)
		}
	}

	return &overlay, nil
}

// Merge appends overlay mappings for the given entity to base, skipping
// sources the base already maps. The combined list keeps the unique-source
// invariant.
func (o *MappingOverlay) Merge(entity string, base []FieldMapping) []FieldMapping {
	extra, ok := o.Entities[entity]
	if !ok {
		return base
	}

	return MergeMappings(base, extra)
}

// MergeMappings appends extra mappings to base, skipping sources the
// base already maps.
func MergeMappings(base, extra []FieldMapping) []FieldMapping {
	known := make(map[string]struct{}, len(base))
	for _, m := range base {
		known[m.Source] = struct{}{}
	}

	merged := make([]FieldMapping, len(base), len(base)+len(extra))
	copy(merged, base)
	for _, m := range extra {
		if _, dup := known[m.Source]; dup {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}
