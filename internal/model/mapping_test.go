package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMappings(t *testing.T) {
	tests := []struct {
		name     string
		mappings []FieldMapping
		wantErr  bool
	}{
		{
			name: "unique sources",
			mappings: []FieldMapping{
				{Source: "id", Target: "id", Type: TypeString},
				{Source: "name", Target: "name", Type: TypeString},
			},
			wantErr: false,
		},
		{
			name: "duplicate source",
			mappings: []FieldMapping{
				{Source: "id", Target: "id", Type: TypeString},
				{Source: "id", Target: "identifier", Type: TypeString},
			},
			wantErr: true,
		},
		{
			name: "empty source",
			mappings: []FieldMapping{
				{Source: "", Target: "id", Type: TypeString},
			},
			wantErr: true,
		},
		{
			name:     "empty list",
			mappings: nil,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMappings(tt.mappings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadMappingOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	content := `
entities:
  agenda:
    - source: track_name
      target: trackName
      type: string
      default: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	overlay, err := LoadMappingOverlay(path)
	require.NoError(t, err)
	require.Len(t, overlay.Entities["agenda"], 1)
	assert.Equal(t, "track_name", overlay.Entities["agenda"][0].Source)
	assert.Equal(t, "trackName", overlay.Entities["agenda"][0].Target)
	assert.Equal(t, TypeString, overlay.Entities["agenda"][0].Type)
}

func TestLoadMappingOverlay_DuplicateSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	content := `
entities:
  dining:
    - source: venue
      target: venue
      type: string
    - source: venue
      target: hall
      type: string
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadMappingOverlay(path)
	assert.Error(t, err)
}

func TestLoadMappingOverlay_MissingFile(t *testing.T) {
	_, err := LoadMappingOverlay(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMappingOverlay_Merge(t *testing.T) {
	base := []FieldMapping{
		{Source: "id", Target: "id", Type: TypeString},
		{Source: "name", Target: "name", Type: TypeString},
	}
	overlay := &MappingOverlay{
		Entities: map[string][]FieldMapping{
			"agenda": {
				{Source: "name", Target: "displayName", Type: TypeString}, // conflicts, skipped
				{Source: "track", Target: "track", Type: TypeString},
			},
		},
	}

	merged := overlay.Merge("agenda", base)
	require.Len(t, merged, 3)
	assert.Equal(t, "track", merged[2].Source)
	assert.NoError(t, CheckMappings(merged))

	// Unknown entity returns base untouched.
	assert.Equal(t, base, overlay.Merge("sponsor", base))
}
