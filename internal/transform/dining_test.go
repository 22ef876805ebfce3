package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

func validDiningRaw() map[string]any {
	return map[string]any{
		"id":   "d-1",
		"name": "Welcome Dinner",
		"date": "2026-09-14",
		"time": "19:00",
	}
}

func TestDining_StringPrice(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["price"] = "25.50"

	opt, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, 25.5, opt.Price)
}

func TestDining_UnparseablePriceDefaults(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["price"] = "market rate"

	opt, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(0), opt.Price)
}

func TestDining_MealTypeRename(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["meal_type"] = "dinner"

	opt, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, "dinner", opt.Type)
}

func TestDining_TypeNotOverwritten(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["type"] = "reception"
	raw["meal_type"] = "dinner"

	opt, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, "reception", opt.Type)
}

func TestDining_MenuEmptyObjectBecomesArray(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["menu_options"] = map[string]any{}

	opt, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, []any{}, opt.MenuOptions)
}

func TestDining_VersionInference(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"meal_type variant", map[string]any{"meal_type": "lunch"}, diningV2},
		{"string price variant", map[string]any{"price": "12.00"}, diningVStrPrice},
		{"canonical", map[string]any{"type": "lunch", "price": 12.0}, baselineVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferDiningVersion(tt.raw))
		})
	}
}

func TestDining_NegativePriceFails(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["price"] = -5

	_, err := tr.FromDatabase(raw)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDining_ValidateDiningOption(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	assert.NoError(t, tr.ValidateDiningOption(model.DiningOption{Type: "dinner"}))
	assert.NoError(t, tr.ValidateDiningOption(model.DiningOption{Type: ""}))

	err := tr.ValidateDiningOption(model.DiningOption{Type: "brunchfast"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDining_RoundTrip(t *testing.T) {
	tr := NewDiningTransformer(zap.NewNop())

	raw := validDiningRaw()
	raw["price"] = "25.50"
	raw["meal_type"] = "dinner"

	first, err := tr.FromDatabase(raw)
	require.NoError(t, err)

	back, err := tr.ToDatabase(first)
	require.NoError(t, err)

	second, err := tr.FromDatabase(back)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSortDiningOptions(t *testing.T) {
	options := []model.DiningOption{
		{ID: "c", Date: "2026-09-15", Time: "08:00"},
		{ID: "a", Date: "2026-09-14", Time: "19:00"},
		{ID: "b", Date: "2026-09-14", Time: "12:00"},
	}
	sorted := SortDiningOptions(options)
	assert.Equal(t, []string{"b", "a", "c"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestFilterActiveDiningOptions(t *testing.T) {
	options := []model.DiningOption{
		{ID: "a", IsActive: true},
		{ID: "b", IsActive: false},
	}
	active := FilterActiveDiningOptions(options)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)
}

func TestGroupDiningByDate(t *testing.T) {
	options := []model.DiningOption{
		{ID: "a", Date: "2026-09-14"},
		{ID: "b", Date: "2026-09-15"},
		{ID: "c", Date: "2026-09-14"},
	}
	groups := GroupDiningByDate(options)
	require.Len(t, groups, 2)
	assert.Len(t, groups["2026-09-14"], 2)
}
