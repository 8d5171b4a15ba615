package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_AllSources(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "live.json"), `{
  "football": [{"name": "Arsenal vs Chelsea", "date": "2026-03-07T15:00:00Z"}],
  "tennis": []
}`)
	write(t, filepath.Join(dir, "rss.json"), `{"items": [{"title": "Arsenal host Chelsea"}, {"title": "  "}, {"title": "Open draw announced"}]}`)
	write(t, filepath.Join(dir, "sports", "Cycling.json"), `{"tournaments": [{"name": "Tour", "events": [{"title": "Stage 1", "time": "2026-07-04T13:00:00Z"}]}]}`)
	write(t, filepath.Join(dir, "sports", "readme.md"), "ignored")

	b, errs := Load(Paths{
		LiveEventsFile: filepath.Join(dir, "live.json"),
		RSSFile:        filepath.Join(dir, "rss.json"),
		SportDataDir:   filepath.Join(dir, "sports"),
	})
	require.Empty(t, errs)

	require.Len(t, b.Live["football"], 1)
	assert.Equal(t, "Arsenal vs Chelsea", b.Live["football"][0].Name)
	assert.Equal(t, []string{"Arsenal host Chelsea", "Open draw announced"}, b.Headlines)
	require.Contains(t, b.SportData, "cycling")
	assert.Equal(t, "Stage 1", b.SportData["cycling"].Tournaments[0].Events[0].Title)
}

func TestLoad_MissingSourcesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	b, errs := Load(Paths{
		LiveEventsFile: filepath.Join(dir, "absent.json"),
		RSSFile:        "",
		SportDataDir:   filepath.Join(dir, "absent"),
	})
	assert.Empty(t, errs)
	assert.Empty(t, b.Live)
	assert.Empty(t, b.Headlines)
	assert.Empty(t, b.SportData)
}

func TestLoad_MalformedSourceFailsAlone(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "live.json"), `[not an object`)
	write(t, filepath.Join(dir, "rss.json"), `{"items": [{"title": "Still here"}]}`)
	write(t, filepath.Join(dir, "sports", "golf.json"), `{"tournaments": 5}`)
	write(t, filepath.Join(dir, "sports", "rugby.json"), `{"tournaments": []}`)

	b, errs := Load(Paths{
		LiveEventsFile: filepath.Join(dir, "live.json"),
		RSSFile:        filepath.Join(dir, "rss.json"),
		SportDataDir:   filepath.Join(dir, "sports"),
	})
	assert.Len(t, errs, 2)
	assert.Empty(t, b.Live)
	assert.Equal(t, []string{"Still here"}, b.Headlines)
	assert.Contains(t, b.SportData, "rugby")
	assert.NotContains(t, b.SportData, "golf")
}

func TestBundle_MergeLive(t *testing.T) {
	b := &Bundle{Live: map[string][]models.LiveEvent{
		"football": {{Name: "old", Date: "2026-01-01"}},
		"tennis":   {{Name: "kept", Date: "2026-01-02"}},
	}}
	b.MergeLive(map[string][]models.LiveEvent{
		"football": {{Name: "new", Date: "2026-01-03"}},
		"f1":       {{Name: "Grand Prix", Date: "2026-01-04"}},
	})

	assert.Equal(t, "new", b.Live["football"][0].Name)
	assert.Equal(t, "kept", b.Live["tennis"][0].Name)
	assert.Len(t, b.Live["f1"], 1)

	empty := &Bundle{}
	empty.MergeLive(map[string][]models.LiveEvent{"golf": nil})
	assert.Contains(t, empty.Live, "golf")
}

func TestLoadLiveEvents_LowerCasesSportKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	write(t, path, `{
  "Football": [{"name": "Arsenal vs Chelsea", "date": "2026-03-07T15:00:00Z"}],
  "football": [{"name": "Spurs vs Fulham", "date": "2026-03-08T15:00:00Z"}],
  " F1 ": [{"name": "Bahrain Grand Prix", "date": "2026-03-01T15:00:00Z"}]
}`)

	live, err := LoadLiveEvents(path)
	require.NoError(t, err)

	assert.Len(t, live, 2)
	assert.Len(t, live["football"], 2)
	assert.Len(t, live["f1"], 1)
	assert.NotContains(t, live, "Football")
}

func TestBundle_MergeLiveLowerCasesSportKeys(t *testing.T) {
	b := &Bundle{Live: map[string][]models.LiveEvent{
		"football": {{Name: "old", Date: "2026-01-01"}},
	}}
	b.MergeLive(map[string][]models.LiveEvent{
		"Football": {{Name: "new", Date: "2026-01-03"}},
	})

	require.Len(t, b.Live["football"], 1)
	assert.Equal(t, "new", b.Live["football"][0].Name)
	assert.NotContains(t, b.Live, "Football")
}
