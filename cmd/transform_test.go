package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/companion/internal/config"
	"github.com/gatherly/companion/internal/model"
)

func writeJSONFile(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runTransform(t *testing.T, entity, path string) error {
	t.Helper()
	cfg = &config.Config{}
	transformOut = filepath.Join(t.TempDir(), "out.json")
	defer func() { transformOut = "-" }()

	err := transformCmd.RunE(transformCmd, []string{entity, path})
	if err == nil {
		t.Cleanup(func() { _ = os.Remove(transformOut) })
	}
	return err
}

func TestTransformCommandAgenda(t *testing.T) {
	path := writeJSONFile(t, []map[string]any{
		{"id": "a1", "title": "Keynote", "date": "2026-06-10", "start_time": "09:00", "speaker": map[string]any{"name": "Jane"}},
	})

	cfg = &config.Config{}
	out := filepath.Join(t.TempDir(), "out.json")
	transformOut = out
	defer func() { transformOut = "-" }()

	require.NoError(t, transformCmd.RunE(transformCmd, []string{"agenda", path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var items []model.AgendaItem
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Jane", items[0].SpeakerInfo)
}

func TestTransformCommandSingleObject(t *testing.T) {
	path := writeJSONFile(t, map[string]any{
		"id": "s1", "name": "Acme", "level": "gold",
	})

	cfg = &config.Config{}
	out := filepath.Join(t.TempDir(), "out.json")
	transformOut = out
	defer func() { transformOut = "-" }()

	require.NoError(t, transformCmd.RunE(transformCmd, []string{"sponsor", path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var sponsors []model.Sponsor
	require.NoError(t, json.Unmarshal(data, &sponsors))
	require.Len(t, sponsors, 1)
	assert.Equal(t, "gold", sponsors[0].Tier)
}

func TestTransformCommandUnknownEntity(t *testing.T) {
	path := writeJSONFile(t, []map[string]any{})
	err := runTransform(t, "venues", path)
	assert.Error(t, err)
}

func TestTransformCommandInvalidRecord(t *testing.T) {
	path := writeJSONFile(t, []map[string]any{
		{"id": "a1", "date": "2026-06-10", "start_time": "09:00"},
	})
	err := runTransform(t, "agenda", path)
	assert.Error(t, err)
}

func TestNewTransformersWithOverlay(t *testing.T) {
	overlayPath := filepath.Join(t.TempDir(), "overlay.yaml")
	overlay := `entities:
  agenda:
    - source: track
      target: track
      type: string
      default: ""
`
	require.NoError(t, os.WriteFile(overlayPath, []byte(overlay), 0o644))

	tf, err := newTransformers(overlayPath)
	require.NoError(t, err)
	require.NotNil(t, tf.Agenda)
}

func TestNewTransformersMissingOverlay(t *testing.T) {
	_, err := newTransformers(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
