package transform

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// Dining schema variants, newest first:
//
//	2.0.0  meal_type instead of type
//	1.1.0  price arrives as a stringified number
//	1.0.0  baseline
const (
	diningV2        = "2.0.0"
	diningVStrPrice = "1.1.0"
)

// diningTypes enumerates the known dining/social event kinds for the
// business-rule validator.
var diningTypes = map[string]struct{}{
	"breakfast": {},
	"lunch":     {},
	"dinner":    {},
	"reception": {},
	"social":    {},
}

// DiningTransformer normalizes dining and social event rows.
type DiningTransformer struct {
	engine *Engine
}

// NewDiningTransformer builds the dining transformer.
func NewDiningTransformer(logger *zap.Logger, extra ...model.FieldMapping) *DiningTransformer {
	return &DiningTransformer{engine: New(Config{
		Name: "dining",
		Mappings: model.MergeMappings([]model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Required: true, Default: ""},
			{Source: "name", Target: "name", Type: model.TypeString, Required: true, Default: ""},
			{Source: "description", Target: "description", Type: model.TypeString, Default: ""},
			{Source: "date", Target: "date", Type: model.TypeString, Required: true, Default: ""},
			{Source: "time", Target: "time", Type: model.TypeString, Default: ""},
			{Source: "location", Target: "location", Type: model.TypeString, Default: ""},
			{Source: "type", Target: "type", Type: model.TypeString, Default: ""},
			{Source: "price", Target: "price", Type: model.TypeNumber, Default: float64(0)},
			{Source: "capacity", Target: "capacity", Type: model.TypeNumber, Default: float64(0)},
			{Source: "seating_type", Target: "seatingType", Type: model.TypeString, Default: "open"},
			{Source: "menu_options", Target: "menuOptions", Type: model.TypeArray, Default: []any{}},
			{Source: "is_active", Target: "isActive", Type: model.TypeBoolean, Default: true},
		}, extra),
		Rules: []model.ValidationRule{
			{Field: "name", Message: "name must not be empty", Rule: nonEmptyString},
			{Field: "price", Message: "price must not be negative", Rule: func(value any) bool {
				f, ok := value.(float64)
				return ok && f >= 0
			}},
		},
		InferVersion: inferDiningVersion,
		Evolve:       evolveDining,
		Logger:       logger,
	})}
}

func inferDiningVersion(raw map[string]any) string {
	_, hasType := raw["type"]
	if _, renamed := raw["meal_type"]; renamed && !hasType {
		return diningV2
	}
	if _, isStr := raw["price"].(string); isStr {
		return diningVStrPrice
	}
	return baselineVersion
}

func evolveDining(raw map[string]any, version model.SchemaVersion, logger *zap.Logger) map[string]any {
	out := cloneRecord(raw)

	switch version.Version {
	case diningV2:
		renameField(out, "meal_type", "type")
	case diningVStrPrice, baselineVersion:
		// Canonical field names.
	default:
		logger.Warn("dining: unknown schema version, passing through",
			zap.String("version", version.Version),
		)
	}

	normalizeStringNumber(out, "price")
	normalizeStringBool(out, "is_active")
	// Empty-object placeholders for the menu collection become arrays
	// during coercion; nothing to rewrite here.
	return out
}

// FromDatabase normalizes one raw dining row.
func (t *DiningTransformer) FromDatabase(raw map[string]any) (model.DiningOption, error) {
	result, err := t.engine.FromRecord(raw)
	if err != nil {
		return model.DiningOption{}, err
	}
	return Decode[model.DiningOption]("dining", result)
}

// FromDatabaseAll normalizes raw dining rows in order, all or nothing.
func (t *DiningTransformer) FromDatabaseAll(raws []map[string]any) ([]model.DiningOption, error) {
	out := make([]model.DiningOption, 0, len(raws))
	for i, raw := range raws {
		opt, err := t.FromDatabase(raw)
		if err != nil {
			return nil, wrapArrayError("dining", i, err)
		}
		out = append(out, opt)
	}
	return out, nil
}

// ToDatabase maps a normalized dining option back to the canonical
// backend shape.
func (t *DiningTransformer) ToDatabase(opt model.DiningOption) (map[string]any, error) {
	ui, err := Encode("dining", opt)
	if err != nil {
		return nil, err
	}
	return t.engine.ToRecord(ui)
}

// ValidateDiningOption checks the business rule that a typed event kind
// is one of the known kinds. Invoked explicitly by callers.
func (t *DiningTransformer) ValidateDiningOption(opt model.DiningOption) error {
	if opt.Type == "" {
		return nil
	}
	if _, known := diningTypes[strings.ToLower(opt.Type)]; !known {
		return newValidationError("dining", "type", "unknown dining type "+opt.Type, opt)
	}
	return nil
}

// SortDiningOptions stable-sorts options by date then time.
func SortDiningOptions(options []model.DiningOption) []model.DiningOption {
	out := make([]model.DiningOption, len(options))
	copy(out, options)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// FilterActiveDiningOptions keeps only active options.
func FilterActiveDiningOptions(options []model.DiningOption) []model.DiningOption {
	out := make([]model.DiningOption, 0, len(options))
	for _, opt := range options {
		if opt.IsActive {
			out = append(out, opt)
		}
	}
	return out
}

// GroupDiningByDate groups options by their date string, preserving
// input order within each group.
func GroupDiningByDate(options []model.DiningOption) map[string][]model.DiningOption {
	out := make(map[string][]model.DiningOption)
	for _, opt := range options {
		out[opt.Date] = append(out[opt.Date], opt)
	}
	return out
}

// normalizeStringNumber rewrites a stringified number to a native one in
// place. An unparseable string becomes nil rather than NaN, so the
// mapping default applies downstream.
func normalizeStringNumber(record map[string]any, field string) {
	s, ok := record[field].(string)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		record[field] = nil
		return
	}
	record[field] = f
}
