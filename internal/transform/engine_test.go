package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gatherly/companion/internal/model"
)

func testEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := Config{
		Name: "widget",
		Mappings: []model.FieldMapping{
			{Source: "id", Target: "id", Type: model.TypeString, Required: true, Default: ""},
			{Source: "label", Target: "label", Type: model.TypeString, Default: "unlabeled"},
			{Source: "count", Target: "count", Type: model.TypeNumber, Default: float64(0)},
			{Source: "enabled", Target: "enabled", Type: model.TypeBoolean, Default: true},
		},
		Rules: []model.ValidationRule{
			{Field: "id", Message: "id must not be empty", Rule: nonEmptyString},
		},
		Logger: zap.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestEngine_FromRecord_WellFormed(t *testing.T) {
	e := testEngine(t, nil)

	result, err := e.FromRecord(map[string]any{
		"id":      "w-1",
		"label":   "alpha",
		"count":   3,
		"enabled": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, "w-1", result["id"])
	assert.Equal(t, "alpha", result["label"])
	assert.Equal(t, float64(3), result["count"])
	assert.Equal(t, true, result["enabled"])
}

func TestEngine_FromRecord_OptionalDefaults(t *testing.T) {
	e := testEngine(t, nil)

	result, err := e.FromRecord(map[string]any{"id": "w-2"})
	require.NoError(t, err)
	assert.Equal(t, "unlabeled", result["label"])
	assert.Equal(t, float64(0), result["count"])
	assert.Equal(t, true, result["enabled"])
}

func TestEngine_FromRecord_NilInput(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.FromRecord(nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEngine_FromRecord_FailedRule(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.FromRecord(map[string]any{"label": "no id"})
	require.Error(t, err)
	te, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, te.Code)
	assert.Equal(t, "widget", te.Transformer)
	// The offending raw record rides along for observability.
	assert.NotNil(t, te.Details)
}

func TestEngine_FromRecord_ComputedFieldPanicYieldsNil(t *testing.T) {
	e := testEngine(t, func(cfg *Config) {
		cfg.Computed = []model.ComputedField{
			{Name: "boom", Type: model.TypeString, Compute: func(map[string]any) any {
				panic("computed field exploded")
			}},
			{Name: "echo", Type: model.TypeString, Compute: func(r map[string]any) any {
				return r["label"]
			}},
		}
	})

	result, err := e.FromRecord(map[string]any{"id": "w-3", "label": "beta"})
	require.NoError(t, err)
	assert.Nil(t, result["boom"])
	assert.Equal(t, "beta", result["echo"])
}

func TestEngine_FromRecord_EvolvePanicWrapped(t *testing.T) {
	e := testEngine(t, func(cfg *Config) {
		cfg.Evolve = func(map[string]any, model.SchemaVersion, *zap.Logger) map[string]any {
			panic("resolver bug")
		}
	})

	_, err := e.FromRecord(map[string]any{"id": "w-4"})
	require.Error(t, err)
	te, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeFieldMapping, te.Code)
}

func TestEngine_RoundTrip(t *testing.T) {
	e := testEngine(t, nil)

	raw := map[string]any{"id": "w-5", "label": "gamma", "count": 9, "enabled": false}
	first, err := e.FromRecord(raw)
	require.NoError(t, err)

	back, err := e.ToRecord(first)
	require.NoError(t, err)

	second, err := e.FromRecord(back)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_ToRecord_NilInput(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.ToRecord(nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEngine_FromRecords_AllOrNothing(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.FromRecords([]map[string]any{
		{"id": "w-6"},
		{"label": "missing id"},
		{"id": "w-7"},
	})
	require.Error(t, err)
	te, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, te.Code)

	out, err := e.FromRecords([]map[string]any{{"id": "a"}, {"id": "b"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestEngine_DetectVersion_Defaults(t *testing.T) {
	e := testEngine(t, nil)

	v := e.detectVersion(map[string]any{"id": "x", "zz": 1, "aa": 2})
	assert.Equal(t, baselineVersion, v.Version)
	assert.Equal(t, []string{"aa", "id", "zz"}, v.Fields)
	assert.False(t, v.DetectedAt.IsZero())
}

func TestEngine_Confidence(t *testing.T) {
	t.Run("required fields only", func(t *testing.T) {
		e := testEngine(t, nil) // one required mapping: id
		assert.Equal(t, 1.0, e.confidence(map[string]any{"id": "x"}))
		assert.Equal(t, 0.0, e.confidence(map[string]any{"label": "x"}))
	})

	t.Run("no required fields falls back to all mappings", func(t *testing.T) {
		e := testEngine(t, func(cfg *Config) {
			for i := range cfg.Mappings {
				cfg.Mappings[i].Required = false
			}
		})
		assert.Equal(t, 0.5, e.confidence(map[string]any{"id": "x", "count": 1}))
	})

	t.Run("no mappings at all", func(t *testing.T) {
		e := New(Config{Name: "empty", Logger: zap.NewNop()})
		assert.Equal(t, 1.0, e.confidence(map[string]any{"anything": 1}))
	})
}

func TestNew_PanicsOnDuplicateSource(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{
			Name: "dup",
			Mappings: []model.FieldMapping{
				{Source: "id", Target: "id", Type: model.TypeString},
				{Source: "id", Target: "identifier", Type: model.TypeString},
			},
		})
	})
}

func TestEngine_UnknownVersionPassesThrough(t *testing.T) {
	e := testEngine(t, func(cfg *Config) {
		cfg.InferVersion = func(map[string]any) string { return "9.9.9" }
		cfg.Evolve = func(raw map[string]any, v model.SchemaVersion, _ *zap.Logger) map[string]any {
			// Unknown tag: degrade to pass-through, never fail.
			return cloneRecord(raw)
		}
	})

	result, err := e.FromRecord(map[string]any{"id": "w-8"})
	require.NoError(t, err)
	assert.Equal(t, "w-8", result["id"])
}

func TestEngine_EvolveReceivesConfiguredLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := testEngine(t, func(cfg *Config) {
		cfg.Logger = zap.New(core)
		cfg.Evolve = func(raw map[string]any, _ model.SchemaVersion, logger *zap.Logger) map[string]any {
			logger.Warn("resolver diagnostics")
			return raw
		}
	})

	_, err := e.FromRecord(map[string]any{"id": "w-9"})
	require.NoError(t, err)
	assert.Len(t, logs.FilterMessage("resolver diagnostics").All(), 1)
}
