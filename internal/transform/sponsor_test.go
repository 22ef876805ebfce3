package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

func TestSponsor_LevelRename(t *testing.T) {
	tr := NewSponsorTransformer(zap.NewNop())

	sp, err := tr.FromDatabase(map[string]any{
		"id":    "sp-1",
		"name":  "Acme",
		"level": "gold",
	})
	require.NoError(t, err)
	assert.Equal(t, "gold", sp.Tier)
	assert.Equal(t, float64(1), sp.TierRank)
}

func TestSponsor_TierDefaults(t *testing.T) {
	tr := NewSponsorTransformer(zap.NewNop())

	sp, err := tr.FromDatabase(map[string]any{"id": "sp-2", "name": "Beta"})
	require.NoError(t, err)
	assert.Equal(t, "bronze", sp.Tier)
	assert.Equal(t, float64(3), sp.TierRank)
}

func TestSponsor_UnknownTierRanksLast(t *testing.T) {
	tr := NewSponsorTransformer(zap.NewNop())

	sp, err := tr.FromDatabase(map[string]any{"id": "sp-3", "name": "Gamma", "tier": "cosmic"})
	require.NoError(t, err)
	assert.Equal(t, float64(len(tierRanks)), sp.TierRank)
}

func TestSponsor_MissingNameFails(t *testing.T) {
	tr := NewSponsorTransformer(zap.NewNop())

	_, err := tr.FromDatabase(map[string]any{"id": "sp-4"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSortSponsors(t *testing.T) {
	sponsors := []model.Sponsor{
		{Name: "Zeta", Tier: "silver", TierRank: 2, DisplayOrder: 1},
		{Name: "Alpha", Tier: "platinum", TierRank: 0, DisplayOrder: 5},
		{Name: "Mid", Tier: "silver", TierRank: 2, DisplayOrder: 0},
	}
	sorted := SortSponsors(sponsors)
	assert.Equal(t, "Alpha", sorted[0].Name)
	assert.Equal(t, "Mid", sorted[1].Name)
	assert.Equal(t, "Zeta", sorted[2].Name)
}

func TestFilterActiveSponsors(t *testing.T) {
	sponsors := []model.Sponsor{
		{Name: "a", IsActive: true},
		{Name: "b", IsActive: false},
	}
	active := FilterActiveSponsors(sponsors)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Name)
}
