// Package evidence loads the pre-fetched evidence handed to each verification
// run: live scoreboard listings, the RSS headline digest and the local
// per-sport data files.
//
// A missing source is not an error. It simply contributes no evidence, and
// the verifiers that depend on it score zero.
package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/models"
)

// Bundle is the evidence available to one run.
type Bundle struct {
	Live      map[string][]models.LiveEvent
	Headlines []string
	SportData map[string]models.SportData
}

// Paths locates the evidence files.
type Paths struct {
	LiveEventsFile string
	RSSFile        string
	SportDataDir   string
}

// rssDigest is the on-disk RSS layout.
type rssDigest struct {
	Items []struct {
		Title string `json:"title"`
	} `json:"items"`
}

// Load reads every configured source. Each source fails independently: a
// malformed file is reported in the error slice and that source is left empty.
func Load(p Paths) (*Bundle, []error) {
	b := &Bundle{
		Live:      map[string][]models.LiveEvent{},
		SportData: map[string]models.SportData{},
	}
	var errs []error

	if live, err := LoadLiveEvents(p.LiveEventsFile); err != nil {
		errs = append(errs, err)
	} else {
		b.Live = live
	}

	if headlines, err := LoadRSS(p.RSSFile); err != nil {
		errs = append(errs, err)
	} else {
		b.Headlines = headlines
	}

	sportData, sportErrs := LoadSportData(p.SportDataDir)
	b.SportData = sportData
	errs = append(errs, sportErrs...)

	return b, errs
}

// readOptional returns nil data and no error when path is empty or missing.
func readOptional(kind, path string) ([]byte, error) {
	if path == "" {
		logger.Debug("No %s source configured", kind)
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No %s evidence at %s", kind, path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s evidence: %w", kind, err)
	}
	return data, nil
}

// LoadLiveEvents reads a JSON object mapping sport key to live events. Keys
// are lower-cased; listings whose keys differ only in case are combined.
func LoadLiveEvents(path string) (map[string][]models.LiveEvent, error) {
	live := map[string][]models.LiveEvent{}
	data, err := readOptional("live events", path)
	if err != nil || data == nil {
		return live, err
	}
	if err := json.Unmarshal(data, &live); err != nil {
		return map[string][]models.LiveEvent{}, fmt.Errorf("failed to decode live events %s: %w", path, err)
	}
	return foldSportKeys(live), nil
}

// foldSportKeys returns live keyed by lower-cased, trimmed sport.
func foldSportKeys(live map[string][]models.LiveEvent) map[string][]models.LiveEvent {
	keys := make([]string, 0, len(live))
	for k := range live {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string][]models.LiveEvent, len(live))
	for _, k := range keys {
		sport := strings.ToLower(strings.TrimSpace(k))
		out[sport] = append(out[sport], live[k]...)
	}
	return out
}

// LoadRSS reads the headline digest and returns the non-empty titles.
func LoadRSS(path string) ([]string, error) {
	data, err := readOptional("rss", path)
	if err != nil || data == nil {
		return nil, err
	}
	var digest rssDigest
	if err := json.Unmarshal(data, &digest); err != nil {
		return nil, fmt.Errorf("failed to decode rss digest %s: %w", path, err)
	}
	headlines := make([]string, 0, len(digest.Items))
	for _, item := range digest.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			headlines = append(headlines, t)
		}
	}
	return headlines, nil
}

// LoadSportData reads every <sport>.json file in dir. The sport key is the
// lower-cased file name without extension.
func LoadSportData(dir string) (map[string]models.SportData, []error) {
	out := map[string]models.SportData{}
	if dir == "" {
		logger.Debug("No sport data directory configured")
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No sport data at %s", dir)
		return out, nil
	}
	if err != nil {
		return out, []error{fmt.Errorf("failed to list sport data: %w", err)}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read sport data %s: %w", path, err))
			continue
		}
		var sd models.SportData
		if err := json.Unmarshal(data, &sd); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode sport data %s: %w", path, err))
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		out[key] = sd
	}
	return out, errs
}

// MergeLive overlays freshly fetched listings onto the bundle. A sport present
// in live replaces the file-loaded listing for that sport.
func (b *Bundle) MergeLive(live map[string][]models.LiveEvent) {
	if b.Live == nil {
		b.Live = map[string][]models.LiveEvent{}
	}
	for sport, events := range foldSportKeys(live) {
		b.Live[sport] = events
	}
}
