package transform

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// Attendee schema variants, newest first:
//
//	2.0.0  email_address instead of email
//	1.1.0  has_spouse arrives as a stringified boolean
//	1.0.0  baseline
const (
	attendeeV2         = "2.0.0"
	attendeeVStrSpouse = "1.1.0"
)

// attendeeConfidentialTargets lists the normalized field names stripped
// from any record before it reaches the client-side cache.
var attendeeConfidentialTargets = []string{
	"businessPhone",
	"mobilePhone",
	"checkInDate",
	"checkOutDate",
	"hotelSelection",
	"roomType",
	"dietaryRequirements",
}

// AttendeeTransformer normalizes attendee rows and handles the
// confidentiality-filtered cache representation.
type AttendeeTransformer struct {
	engine *Engine
}

// NewAttendeeTransformer builds the attendee transformer.
func NewAttendeeTransformer(logger *zap.Logger, extra ...model.FieldMapping) *AttendeeTransformer {
	return &AttendeeTransformer{engine: New(Config{
		Name: "attendee",
		Mappings: model.MergeMappings([]model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Required: true, Default: ""},
			{Source: "first_name", Target: "firstName", Type: model.TypeString, Required: true, Default: ""},
			{Source: "last_name", Target: "lastName", Type: model.TypeString, Required: true, Default: ""},
			{Source: "email", Target: "email", Type: model.TypeString, Default: ""},
			{Source: "title", Target: "title", Type: model.TypeString, Default: ""},
			{Source: "company", Target: "company", Type: model.TypeString, Default: ""},
			{Source: "bio", Target: "bio", Type: model.TypeString, Default: ""},
			{Source: "photo_url", Target: "photoURL", Type: model.TypeString, Default: ""},
			{Source: "has_spouse", Target: "hasSpouse", Type: model.TypeBoolean, Default: false},
			{Source: "business_phone", Target: "businessPhone", Type: model.TypeString, Default: ""},
			{Source: "mobile_phone", Target: "mobilePhone", Type: model.TypeString, Default: ""},
			{Source: "check_in_date", Target: "checkInDate", Type: model.TypeString, Default: ""},
			{Source: "check_out_date", Target: "checkOutDate", Type: model.TypeString, Default: ""},
			{Source: "hotel_selection", Target: "hotelSelection", Type: model.TypeString, Default: ""},
			{Source: "room_type", Target: "roomType", Type: model.TypeString, Default: ""},
			{Source: "dietary_requirements", Target: "dietaryRequirements", Type: model.TypeString, Default: ""},
			{Source: "is_checked_in", Target: "isCheckedIn", Type: model.TypeBoolean, Default: false},
		}, extra),
		Computed: []model.ComputedField{
			{
				Name:         "fullName",
				SourceFields: []string{"firstName", "lastName"},
				Type:         model.TypeString,
				Compute: func(result map[string]any) any {
					first, _ := result["firstName"].(string)
					last, _ := result["lastName"].(string)
					return strings.TrimSpace(first + " " + last)
				},
			},
		},
		Rules: []model.ValidationRule{
			{Field: "firstName", Message: "first name must not be empty", Rule: nonEmptyString},
			{Field: "lastName", Message: "last name must not be empty", Rule: nonEmptyString},
			{Field: "email", Message: "email must contain @ when set", Rule: func(value any) bool {
				s, ok := value.(string)
				if !ok {
					return false
				}
				return s == "" || strings.Contains(s, "@")
			}},
		},
		InferVersion: inferAttendeeVersion,
		Evolve:       evolveAttendee,
		Logger:       logger,
	})}
}

func inferAttendeeVersion(raw map[string]any) string {
	_, hasEmail := raw["email"]
	if _, renamed := raw["email_address"]; renamed && !hasEmail {
		return attendeeV2
	}
	if _, isStr := raw["has_spouse"].(string); isStr {
		return attendeeVStrSpouse
	}
	return baselineVersion
}

func evolveAttendee(raw map[string]any, version model.SchemaVersion, logger *zap.Logger) map[string]any {
	out := cloneRecord(raw)

	switch version.Version {
	case attendeeV2:
		renameField(out, "email_address", "email")
	case attendeeVStrSpouse, baselineVersion:
		// Canonical field names.
	default:
		logger.Warn("attendee: unknown schema version, passing through",
			zap.String("version", version.Version),
		)
	}

	normalizeStringBool(out, "has_spouse")
	normalizeStringBool(out, "is_checked_in")
	return out
}

// FromDatabase normalizes one raw attendee row.
func (t *AttendeeTransformer) FromDatabase(raw map[string]any) (model.Attendee, error) {
	result, err := t.engine.FromRecord(raw)
	if err != nil {
		return model.Attendee{}, err
	}
	return Decode[model.Attendee]("attendee", result)
}

// FromDatabaseAll normalizes raw attendee rows in order, all or nothing.
func (t *AttendeeTransformer) FromDatabaseAll(raws []map[string]any) ([]model.Attendee, error) {
	out := make([]model.Attendee, 0, len(raws))
	for i, raw := range raws {
		att, err := t.FromDatabase(raw)
		if err != nil {
			return nil, wrapArrayError("attendee", i, err)
		}
		out = append(out, att)
	}
	return out, nil
}

// ToDatabase maps a normalized attendee back to the canonical backend
// shape.
func (t *AttendeeTransformer) ToDatabase(att model.Attendee) (map[string]any, error) {
	ui, err := Encode("attendee", att)
	if err != nil {
		return nil, err
	}
	return t.engine.ToRecord(ui)
}

// FilterRecord returns the confidentiality-filtered cache representation
// of a normalized target-keyed attendee map: confidential fields are
// removed entirely, not blanked.
func (t *AttendeeTransformer) FilterRecord(result map[string]any) map[string]any {
	out := cloneRecord(result)
	for _, field := range attendeeConfidentialTargets {
		delete(out, field)
	}
	return out
}

// ToCache normalizes one raw attendee row into its filtered cache
// representation.
func (t *AttendeeTransformer) ToCache(raw map[string]any) (map[string]any, error) {
	result, err := t.engine.FromRecord(raw)
	if err != nil {
		return nil, err
	}
	return t.FilterRecord(result), nil
}

// FilterAttendee strips confidential fields from a typed attendee.
func (t *AttendeeTransformer) FilterAttendee(att model.Attendee) model.Attendee {
	att.BusinessPhone = ""
	att.MobilePhone = ""
	att.CheckInDate = ""
	att.CheckOutDate = ""
	att.HotelSelection = ""
	att.RoomType = ""
	att.DietaryRequirements = ""
	return att
}

// IsFilteredRecord reports whether raw is a confidentiality-filtered
// cache representation: true iff every confidential field is absent.
func (t *AttendeeTransformer) IsFilteredRecord(raw map[string]any) bool {
	for _, field := range attendeeConfidentialTargets {
		if _, present := raw[field]; present {
			return false
		}
	}
	return true
}

// FromCache reconstructs a typed attendee from its filtered cache
// representation. The cache shape is stable (target-keyed, confidential
// fields absent), so no version detection or evolution applies.
func (t *AttendeeTransformer) FromCache(cached map[string]any) (model.Attendee, error) {
	if cached == nil {
		return model.Attendee{}, newValidationError("attendee", "", "cached data is nil", nil)
	}

	result := make(map[string]any, len(t.engine.Mappings()))
	for _, m := range t.engine.Mappings() {
		result[m.Target] = Coerce(cached[m.Target], m.Type, m.Default)
	}
	for _, field := range attendeeConfidentialTargets {
		result[field] = ""
	}
	first, _ := result["firstName"].(string)
	last, _ := result["lastName"].(string)
	result["fullName"] = strings.TrimSpace(first + " " + last)

	return Decode[model.Attendee]("attendee", result)
}

// ValidateStayDates checks the cross-field business rule that checkout
// does not precede checkin. Invoked explicitly by callers.
func (t *AttendeeTransformer) ValidateStayDates(att model.Attendee) error {
	if att.CheckInDate == "" || att.CheckOutDate == "" {
		return nil
	}
	if att.CheckOutDate < att.CheckInDate {
		return newValidationError("attendee", "checkOutDate", "checkout must not precede checkin", att)
	}
	return nil
}

// SortAttendeesByName stable-sorts attendees by last then first name.
func SortAttendeesByName(attendees []model.Attendee) []model.Attendee {
	out := make([]model.Attendee, len(attendees))
	copy(out, attendees)
	sort.SliceStable(out, func(i, j int) bool {
		li := strings.ToLower(out[i].LastName)
		lj := strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		return strings.ToLower(out[i].FirstName) < strings.ToLower(out[j].FirstName)
	})
	return out
}
