package transform

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

// companyConfidentialSources lists raw fields stripped from company
// rows before mapping; they must never reach the normalized output.
var companyConfidentialSources = []string{
	"account_owner",
	"annual_revenue",
	"internal_notes",
}

// CompanyTransformer normalizes standardized company profiles. It is
// the simpler pipeline: no version detection or evolution, just strip,
// map, normalize the website URL, and sort.
type CompanyTransformer struct {
	engine *Engine
}

// NewCompanyTransformer builds the standardized-company transformer.
func NewCompanyTransformer(logger *zap.Logger, extra ...model.FieldMapping) *CompanyTransformer {
	return &CompanyTransformer{engine: New(Config{
		Name: "company",
		Mappings: model.MergeMappings([]model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Default: ""},
			{Source: "name", Target: "name", Type: model.TypeString, Required: true, Default: ""},
			{Source: "sector", Target: "sector", Type: model.TypeString, Default: ""},
			{Source: "website", Target: "website", Type: model.TypeString, Default: ""},
			{Source: "logo", Target: "logo", Type: model.TypeString, Default: ""},
			{Source: "description", Target: "description", Type: model.TypeString, Default: ""},
		}, extra),
		Rules: []model.ValidationRule{
			{Field: "name", Message: "name must not be empty", Rule: nonEmptyString},
		},
		Logger: logger,
	})}
}

// FromDatabaseAll is the transformer's single entry point: it strips
// confidential fields, normalizes each row, applies the website
// normalization rule, and returns the companies sorted by name.
func (t *CompanyTransformer) FromDatabaseAll(raws []map[string]any) ([]model.StandardizedCompany, error) {
	out := make([]model.StandardizedCompany, 0, len(raws))
	for i, raw := range raws {
		stripped := stripCompanyConfidential(raw, t.engine.logger)
		result, err := t.engine.FromRecord(stripped)
		if err != nil {
			return nil, wrapArrayError("company", i, err)
		}
		company, err := Decode[model.StandardizedCompany]("company", result)
		if err != nil {
			return nil, wrapArrayError("company", i, err)
		}
		company.Website = NormalizeCompanyWebsite(company.Website)
		out = append(out, company)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func stripCompanyConfidential(raw map[string]any, logger *zap.Logger) map[string]any {
	if raw == nil {
		return nil
	}
	out := cloneRecord(raw)
	for _, field := range companyConfidentialSources {
		if _, present := out[field]; present {
			logger.Debug("company: stripping confidential field",
				zap.String("field", field),
			)
		}
		delete(out, field)
	}
	return out
}

// NormalizeCompanyWebsite inserts "www." into bare HTTPS .com URLs that
// lack it: https://acme.com becomes https://www.acme.com. Subdomained
// hosts and other schemes pass through unchanged.
func NormalizeCompanyWebsite(url string) string {
	const prefix = "https://"
	if !strings.HasPrefix(url, prefix) {
		return url
	}
	rest := strings.TrimPrefix(url, prefix)
	host, path, _ := strings.Cut(rest, "/")
	if !strings.HasSuffix(host, ".com") || strings.Count(host, ".") != 1 {
		return url
	}
	normalized := prefix + "www." + host
	if path != "" || strings.HasSuffix(rest, "/") {
		normalized += "/" + path
	}
	return normalized
}
