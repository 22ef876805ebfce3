package transform

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// Config is the static per-entity configuration an Engine is built
// from. It is set once at construction and never mutated, so a single
// Engine is safe for concurrent use.
type Config struct {
	// Name identifies the transformer in errors and logs.
	Name string
	// Mappings convert raw source fields to normalized targets.
	Mappings []model.FieldMapping
	// Computed derives additional fields from the mapped result.
	Computed []model.ComputedField
	// Rules validate the mapped result before it is returned.
	Rules []model.ValidationRule
	// InferVersion tags the raw record's schema variant. Nil means the
	// baseline version for every record.
	InferVersion InferVersionFunc
	// Evolve rewrites historical shapes forward. Nil means identity.
	Evolve EvolveFunc
	// Logger receives diagnostics. Nil falls back to the global logger.
	Logger *zap.Logger
}

// Engine is the generic transformation pipeline: version detection,
// evolution rewrite, field mapping with type coercion, computed-field
// derivation, and validation.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Engine from static configuration. It panics on a
// duplicate mapping source, which is a programming error in the entity
// configuration rather than a data error.
func New(cfg Config) *Engine {
	if err := model.CheckMappings(cfg.Mappings); err != nil {
		panic(fmt.Sprintf("transform: %s: %v", cfg.Name, err))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Name returns the transformer name used in errors and logs.
func (e *Engine) Name() string { return e.cfg.Name }

// Mappings returns the engine's field mapping table.
func (e *Engine) Mappings() []model.FieldMapping { return e.cfg.Mappings }

// FromRecord normalizes one raw backend record into the canonical
// target-keyed map. It returns a *Error on failure, never a partial
// result. Failures carry the offending raw record so malformed upstream
// rows stay observable without crashing the caller.
func (e *Engine) FromRecord(raw map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = wrapMappingError(e.cfg.Name, eris.Errorf("panic: %v", r), raw)
			e.logError(err, raw)
		}
	}()

	if raw == nil {
		err := newValidationError(e.cfg.Name, "", "data is nil", nil)
		e.logError(err, raw)
		return nil, err
	}

	version := e.detectVersion(raw)
	e.logger.Debug("schema version detected",
		zap.String("transformer", e.cfg.Name),
		zap.String("version", version.Version),
		zap.Float64("confidence", version.Confidence),
	)

	evolved := raw
	if e.cfg.Evolve != nil {
		evolved = e.cfg.Evolve(raw, version, e.logger)
	}

	result = make(map[string]any, len(e.cfg.Mappings)+len(e.cfg.Computed))
	var missing []string
	for _, m := range e.cfg.Mappings {
		value, ok := evolved[m.Source]
		if m.Required && (!ok || value == nil) {
			// Tracked but not fatal here: all mappings are attempted so
			// validation sees the complete picture.
			missing = append(missing, m.Source)
		}
		result[m.Target] = Coerce(value, m.Type, m.Default)
	}
	if len(missing) > 0 {
		e.logger.Warn("required source fields missing",
			zap.String("transformer", e.cfg.Name),
			zap.Strings("fields", missing),
			zap.String("version", version.Version),
		)
	}

	for _, cf := range e.cfg.Computed {
		result[cf.Name] = computeField(cf, result)
	}

	if !e.validate(result) {
		err := newValidationError(e.cfg.Name, "", "transformed data failed validation", raw)
		e.logError(err, raw)
		return nil, err
	}

	return result, nil
}

// ToRecord maps a normalized target-keyed map back to the canonical
// backend shape. No evolution or computed-field logic applies on this
// path; computed fields are derivable, not source of truth.
func (e *Engine) ToRecord(ui map[string]any) (map[string]any, error) {
	if ui == nil {
		err := newValidationError(e.cfg.Name, "", "data is nil", nil)
		e.logError(err, nil)
		return nil, err
	}

	out := make(map[string]any, len(e.cfg.Mappings))
	for _, m := range e.cfg.Mappings {
		out[m.Source] = Coerce(ui[m.Target], m.Type, m.Default)
	}
	return out, nil
}

// FromRecords applies FromRecord element-wise in input order. A single
// failing record fails the whole batch; callers wanting per-record
// degradation wrap each element themselves.
func (e *Engine) FromRecords(raws []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(raws))
	for i, raw := range raws {
		result, err := e.FromRecord(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "transform %s: record %d", e.cfg.Name, i)
		}
		out = append(out, result)
	}
	return out, nil
}

// ToRecords applies ToRecord element-wise in input order, all or nothing.
func (e *Engine) ToRecords(uis []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(uis))
	for i, ui := range uis {
		result, err := e.ToRecord(ui)
		if err != nil {
			return nil, eris.Wrapf(err, "transform %s: record %d", e.cfg.Name, i)
		}
		out = append(out, result)
	}
	return out, nil
}

// validate fails on required targets that mapped to nil and on any
// failing validation rule. It never propagates an internal failure.
func (e *Engine) validate(result map[string]any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	for _, m := range e.cfg.Mappings {
		if m.Required && result[m.Target] == nil {
			e.logger.Warn("required field is nil after mapping",
				zap.String("transformer", e.cfg.Name),
				zap.String("field", m.Target),
			)
			return false
		}
	}

	for _, r := range e.cfg.Rules {
		if r.Rule == nil {
			continue
		}
		if !r.Rule(result[r.Field]) {
			e.logger.Warn("validation rule failed",
				zap.String("transformer", e.cfg.Name),
				zap.String("field", r.Field),
				zap.String("message", r.Message),
			)
			return false
		}
	}

	return true
}

// computeField evaluates one computed field. A failing computation
// yields nil rather than failing the record: a single bad derived field
// should not prevent the rest of the record from rendering.
func computeField(cf model.ComputedField, result map[string]any) (out any) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	if cf.Compute == nil {
		return nil
	}
	return cf.Compute(result)
}

func (e *Engine) logError(err error, raw map[string]any) {
	e.logger.Error("transformation failed",
		zap.String("transformer", e.cfg.Name),
		zap.Error(err),
		zap.Any("record", raw),
	)
}

// Decode converts a target-keyed result map into a typed record via its
// mapstructure tags. Decode failures surface as field-mapping errors.
func Decode[T any](transformer string, result map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return out, wrapMappingError(transformer, err, result)
	}
	if err := dec.Decode(result); err != nil {
		return out, wrapMappingError(transformer, err, result)
	}
	return out, nil
}

// Encode converts a typed record back into a target-keyed map via its
// mapstructure tags, for the ToRecord path.
func Encode(transformer string, record any) (map[string]any, error) {
	out := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, wrapMappingError(transformer, err, nil)
	}
	if err := dec.Decode(record); err != nil {
		return nil, wrapMappingError(transformer, err, nil)
	}
	return out, nil
}
