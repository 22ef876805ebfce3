package transform

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// Sponsor schema variants: 2.0.0 used "level" for the sponsorship tier.
const sponsorV2 = "2.0.0"

// tierRanks orders sponsorship tiers for display, lowest rank first.
var tierRanks = map[string]float64{
	"platinum": 0,
	"gold":     1,
	"silver":   2,
	"bronze":   3,
}

// SponsorTransformer normalizes sponsor rows.
type SponsorTransformer struct {
	engine *Engine
}

// NewSponsorTransformer builds the sponsor transformer.
func NewSponsorTransformer(logger *zap.Logger, extra ...model.FieldMapping) *SponsorTransformer {
	return &SponsorTransformer{engine: New(Config{
		Name: "sponsor",
		Mappings: model.MergeMappings([]model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Required: true, Default: ""},
			{Source: "name", Target: "name", Type: model.TypeString, Required: true, Default: ""},
			{Source: "tier", Target: "tier", Type: model.TypeString, Default: "bronze"},
			{Source: "description", Target: "description", Type: model.TypeString, Default: ""},
			{Source: "logo_url", Target: "logoURL", Type: model.TypeString, Default: ""},
			{Source: "website_url", Target: "websiteURL", Type: model.TypeString, Default: ""},
			{Source: "display_order", Target: "displayOrder", Type: model.TypeNumber, Default: float64(0)},
			{Source: "is_active", Target: "isActive", Type: model.TypeBoolean, Default: true},
		}, extra),
		Computed: []model.ComputedField{
			{
				Name:         "tierRank",
				SourceFields: []string{"tier"},
				Type:         model.TypeNumber,
				Compute: func(result map[string]any) any {
					tier, _ := result["tier"].(string)
					if rank, ok := tierRanks[strings.ToLower(tier)]; ok {
						return rank
					}
					return float64(len(tierRanks))
				},
			},
		},
		Rules: []model.ValidationRule{
			{Field: "name", Message: "name must not be empty", Rule: nonEmptyString},
		},
		InferVersion: inferSponsorVersion,
		Evolve:       evolveSponsor,
		Logger:       logger,
	})}
}

func inferSponsorVersion(raw map[string]any) string {
	_, hasTier := raw["tier"]
	if _, renamed := raw["level"]; renamed && !hasTier {
		return sponsorV2
	}
	return baselineVersion
}

func evolveSponsor(raw map[string]any, version model.SchemaVersion, logger *zap.Logger) map[string]any {
	out := cloneRecord(raw)

	switch version.Version {
	case sponsorV2:
		renameField(out, "level", "tier")
	case baselineVersion:
		// Canonical field names.
	default:
		logger.Warn("sponsor: unknown schema version, passing through",
			zap.String("version", version.Version),
		)
	}

	normalizeStringBool(out, "is_active")
	return out
}

// FromDatabase normalizes one raw sponsor row.
func (t *SponsorTransformer) FromDatabase(raw map[string]any) (model.Sponsor, error) {
	result, err := t.engine.FromRecord(raw)
	if err != nil {
		return model.Sponsor{}, err
	}
	return Decode[model.Sponsor]("sponsor", result)
}

// FromDatabaseAll normalizes raw sponsor rows in order, all or nothing.
func (t *SponsorTransformer) FromDatabaseAll(raws []map[string]any) ([]model.Sponsor, error) {
	out := make([]model.Sponsor, 0, len(raws))
	for i, raw := range raws {
		sp, err := t.FromDatabase(raw)
		if err != nil {
			return nil, wrapArrayError("sponsor", i, err)
		}
		out = append(out, sp)
	}
	return out, nil
}

// ToDatabase maps a normalized sponsor back to the canonical backend
// shape.
func (t *SponsorTransformer) ToDatabase(sp model.Sponsor) (map[string]any, error) {
	ui, err := Encode("sponsor", sp)
	if err != nil {
		return nil, err
	}
	return t.engine.ToRecord(ui)
}

// SortSponsors stable-sorts sponsors by tier rank, then display order,
// then name.
func SortSponsors(sponsors []model.Sponsor) []model.Sponsor {
	out := make([]model.Sponsor, len(sponsors))
	copy(out, sponsors)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TierRank != out[j].TierRank {
			return out[i].TierRank < out[j].TierRank
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// FilterActiveSponsors keeps only active sponsors.
func FilterActiveSponsors(sponsors []model.Sponsor) []model.Sponsor {
	out := make([]model.Sponsor, 0, len(sponsors))
	for _, sp := range sponsors {
		if sp.IsActive {
			out = append(out, sp)
		}
	}
	return out
}
