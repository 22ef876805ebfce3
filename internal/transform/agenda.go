package transform

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// Agenda schema variants, newest first:
//
//	2.0.0  speaker_name instead of speaker
//	1.2.0  speaker is an object wrapper ({"name": ...})
//	1.1.0  speaker is a plain string
//	0.9.0  speaker absent entirely
//	1.0.0  baseline fallback
const (
	agendaV2          = "2.0.0"
	agendaVSpeakerObj = "1.2.0"
	agendaVSpeakerStr = "1.1.0"
	agendaVNoSpeaker  = "0.9.0"
)

// AgendaTransformer normalizes agenda session rows.
type AgendaTransformer struct {
	engine *Engine
}

// NewAgendaTransformer builds the agenda transformer. A nil logger
// falls back to the global zap logger. Extra mappings extend the
// defaults; duplicated sources are ignored.
func NewAgendaTransformer(logger *zap.Logger, extra ...model.FieldMapping) *AgendaTransformer {
	return &AgendaTransformer{engine: New(Config{
		Name: "agenda",
		Mappings: model.MergeMappings([]model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Required: true, Default: ""},
			{Source: "title", Target: "title", Type: model.TypeString, Required: true, Default: ""},
			{Source: "description", Target: "description", Type: model.TypeString, Default: ""},
			{Source: "date", Target: "date", Type: model.TypeString, Required: true, Default: ""},
			{Source: "start_time", Target: "startTime", Type: model.TypeString, Required: true, Default: ""},
			{Source: "end_time", Target: "endTime", Type: model.TypeString, Default: ""},
			{Source: "location", Target: "location", Type: model.TypeString, Default: ""},
			{Source: "speaker", Target: "speaker", Type: model.TypeString, Default: ""},
			{Source: "session_type", Target: "sessionType", Type: model.TypeString, Default: "general"},
			{Source: "tags", Target: "tags", Type: model.TypeArray, Default: []any{}},
			{Source: "capacity", Target: "capacity", Type: model.TypeNumber, Default: float64(0)},
			{Source: "registered_count", Target: "registeredCount", Type: model.TypeNumber, Default: float64(0)},
			{Source: "is_mandatory", Target: "isMandatory", Type: model.TypeBoolean, Default: false},
			{Source: "is_active", Target: "isActive", Type: model.TypeBoolean, Default: true},
		}, extra),
		Computed: []model.ComputedField{
			{
				Name:         "speakerInfo",
				SourceFields: []string{"speaker"},
				Type:         model.TypeString,
				Compute: func(result map[string]any) any {
					s, _ := result["speaker"].(string)
					return s
				},
			},
		},
		Rules: []model.ValidationRule{
			{Field: "title", Message: "title must not be empty", Rule: nonEmptyString},
			{Field: "date", Message: "date must not be empty", Rule: nonEmptyString},
		},
		InferVersion: inferAgendaVersion,
		Evolve:       evolveAgenda,
		Logger:       logger,
	})}
}

func inferAgendaVersion(raw map[string]any) string {
	speaker, hasSpeaker := raw["speaker"]
	if _, renamed := raw["speaker_name"]; renamed && !hasSpeaker {
		return agendaV2
	}
	if !hasSpeaker {
		return agendaVNoSpeaker
	}
	switch speaker.(type) {
	case map[string]any:
		return agendaVSpeakerObj
	case string:
		return agendaVSpeakerStr
	default:
		return baselineVersion
	}
}

func evolveAgenda(raw map[string]any, version model.SchemaVersion, logger *zap.Logger) map[string]any {
	out := cloneRecord(raw)

	switch version.Version {
	case agendaV2:
		renameField(out, "speaker_name", "speaker")
	case agendaVSpeakerObj:
		// Historical rows wrapped the speaker in an object; a genuinely
		// empty wrapper is equivalent to no speaker at all.
		if obj, ok := out["speaker"].(map[string]any); ok {
			if name, has := obj["name"]; has {
				out["speaker"] = name
			} else if len(obj) == 0 {
				delete(out, "speaker")
			}
		}
	case agendaVSpeakerStr, agendaVNoSpeaker, baselineVersion:
		// Already canonical.
	default:
		logger.Warn("agenda: unknown schema version, passing through",
			zap.String("version", version.Version),
		)
	}

	normalizeStringBool(out, "is_mandatory")
	normalizeStringBool(out, "is_active")
	return out
}

// FromDatabase normalizes one raw agenda row.
func (t *AgendaTransformer) FromDatabase(raw map[string]any) (model.AgendaItem, error) {
	result, err := t.engine.FromRecord(raw)
	if err != nil {
		return model.AgendaItem{}, err
	}
	return Decode[model.AgendaItem]("agenda", result)
}

// FromDatabaseAll normalizes raw agenda rows in order, all or nothing.
func (t *AgendaTransformer) FromDatabaseAll(raws []map[string]any) ([]model.AgendaItem, error) {
	out := make([]model.AgendaItem, 0, len(raws))
	for i, raw := range raws {
		item, err := t.FromDatabase(raw)
		if err != nil {
			return nil, wrapArrayError("agenda", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// ToDatabase maps a normalized agenda item back to the canonical
// backend shape.
func (t *AgendaTransformer) ToDatabase(item model.AgendaItem) (map[string]any, error) {
	ui, err := Encode("agenda", item)
	if err != nil {
		return nil, err
	}
	return t.engine.ToRecord(ui)
}

// ValidateSessionTimes checks the cross-field business rule that a
// session ends after it starts. It is invoked explicitly by callers,
// not during FromDatabase.
func (t *AgendaTransformer) ValidateSessionTimes(item model.AgendaItem) error {
	if item.EndTime == "" {
		return nil
	}
	if strings.Compare(item.EndTime, item.StartTime) <= 0 {
		return newValidationError("agenda", "endTime", "end time must be after start time", item)
	}
	return nil
}

// SortAgendaItems stable-sorts sessions by date then start time.
// Dates and times are ISO-formatted strings, so lexicographic
// comparison is chronological.
func SortAgendaItems(items []model.AgendaItem) []model.AgendaItem {
	out := make([]model.AgendaItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// FilterActiveAgendaItems keeps only active sessions.
func FilterActiveAgendaItems(items []model.AgendaItem) []model.AgendaItem {
	out := make([]model.AgendaItem, 0, len(items))
	for _, it := range items {
		if it.IsActive {
			out = append(out, it)
		}
	}
	return out
}

// GroupAgendaByDate groups sessions by their date string, preserving
// input order within each group.
func GroupAgendaByDate(items []model.AgendaItem) map[string][]model.AgendaItem {
	out := make(map[string][]model.AgendaItem)
	for _, it := range items {
		out[it.Date] = append(out[it.Date], it)
	}
	return out
}

func nonEmptyString(value any) bool {
	s, ok := value.(string)
	return ok && s != ""
}

// normalizeStringBool rewrites stringified booleans to native booleans
// in place.
func normalizeStringBool(record map[string]any, field string) {
	if s, ok := record[field].(string); ok {
		v := strings.ToLower(strings.TrimSpace(s))
		record[field] = v == "true" || v == "1"
	}
}

// wrapArrayError annotates a per-element failure with its index while
// keeping the underlying *Error reachable via errors.As.
func wrapArrayError(transformer string, index int, err error) error {
	return eris.Wrapf(err, "transform %s: record %d", transformer, index)
}
