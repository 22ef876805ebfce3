package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// FieldType identifies the semantic type a mapped field is coerced to.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeAny     FieldType = "any"
)

// FieldMapping describes how one raw backend field converts to one
// normalized field. Source names are unique within a transformer's
// mapping list: each raw field maps to exactly one target.
type FieldMapping struct {
	Source   string    `yaml:"source"`
	Target   string    `yaml:"target"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`
	Default  any       `yaml:"default"`
}

// ComputedField derives a value from the already-mapped result rather
// than copying it from the raw record. SourceFields documents which
// mapped targets the computation reads; it is not enforced at runtime.
type ComputedField struct {
	Name         string
	SourceFields []string
	Type         FieldType
	Compute      func(result map[string]any) any
}

// ValidationRule is a predicate over one field of the mapped result.
// A false return fails transformation validation.
type ValidationRule struct {
	Field   string
	Message string
	Rule    func(value any) bool
}

// SchemaVersion is the output of version detection, produced fresh per
// transformation call.
type SchemaVersion struct {
	Version    string    `json:"version"`
	DetectedAt time.Time `json:"detected_at"`
	Fields     []string  `json:"fields"`
	Confidence float64   `json:"confidence"`
}

// CheckMappings verifies the unique-source invariant of a mapping list.
func CheckMappings(mappings []FieldMapping) error {
	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if m.Source == "" || m.Target == "" {
			return eris.Errorf("model: mapping %q -> %q has an empty side", m.Source, m.Target)
		}
		if _, dup := seen[m.Source]; dup {
			return eris.Errorf("model: duplicate mapping source %q", m.Source)
		}
		seen[m.Source] = struct{}{}
	}
	return nil
}
