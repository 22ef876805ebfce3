package transform

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// baselineVersion tags records from entities with no version heuristic.
const baselineVersion = "1.0.0"

// InferVersionFunc guesses which historical schema variant produced a
// raw record, usually via presence/type checks ordered newest to oldest.
type InferVersionFunc func(raw map[string]any) string

// EvolveFunc rewrites a raw record of a detected historical shape into
// the latest canonical shape. Implementations must return a new map and
// never mutate the input. The engine passes its logger so resolvers do
// their diagnostics without reaching for a global.
type EvolveFunc func(raw map[string]any, version model.SchemaVersion, logger *zap.Logger) map[string]any

// detectVersion tags the raw record with a best-guess schema version and
// a diagnostic confidence score. Confidence never gates transformation.
func (e *Engine) detectVersion(raw map[string]any) model.SchemaVersion {
	version := baselineVersion
	if e.cfg.InferVersion != nil {
		version = e.cfg.InferVersion(raw)
	}

	fields := make([]string, 0, len(raw))
	for k := range raw {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	return model.SchemaVersion{
		Version:    version,
		DetectedAt: time.Now().UTC(),
		Fields:     fields,
		Confidence: e.confidence(raw),
	}
}

// confidence is the fraction of required mapping sources present in the
// raw record. When no mapping is marked required it falls back to the
// full mapping set, which is stricter for sparse optional records; the
// asymmetry is kept for compatibility with historical behavior.
func (e *Engine) confidence(raw map[string]any) float64 {
	checked := make([]model.FieldMapping, 0, len(e.cfg.Mappings))
	for _, m := range e.cfg.Mappings {
		if m.Required {
			checked = append(checked, m)
		}
	}
	if len(checked) == 0 {
		checked = e.cfg.Mappings
	}
	if len(checked) == 0 {
		return 1
	}

	present := 0
	for _, m := range checked {
		if _, ok := raw[m.Source]; ok {
			present++
		}
	}
	return float64(present) / float64(len(checked))
}

// cloneRecord shallow-copies a raw record so evolution rewrites never
// mutate caller-owned data.
func cloneRecord(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// renameField copies the value under old to new when new is absent, then
// drops old. An existing canonical value is never overwritten.
func renameField(record map[string]any, old, canonical string) {
	v, ok := record[old]
	if !ok {
		return
	}
	if _, exists := record[canonical]; !exists {
		record[canonical] = v
	}
	delete(record, old)
}
