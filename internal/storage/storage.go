// Package storage persists event group files, the verification history and
// the hint and health reports produced by each run.
//
// Every write goes to a temporary file first and is then renamed over the
// target, so a run interrupted mid-write always leaves the previous version
// readable. Group files may be JSON or YAML; the format is taken from the
// file extension and preserved on write-back.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// GroupFile is a loaded event group together with where it came from.
type GroupFile struct {
	Path  string
	Group models.EventGroup

	// raw is the document as last read or written. Write-back patches it
	// so fields outside models.EventGroup survive.
	raw []byte
}

// LoadError reports a group file that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Store reads and writes event group files under a single directory.
type Store struct {
	groupsDir       string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// New creates a Store rooted at groupsDir.
func New(groupsDir string, filePermissions, dirPermissions os.FileMode) *Store {
	if filePermissions == 0 {
		filePermissions = 0644
	}
	if dirPermissions == 0 {
		dirPermissions = 0755
	}
	return &Store{
		groupsDir:       groupsDir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

func isGroupFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadGroups reads every group file in the groups directory, sorted by file
// name. A file that fails to load is reported in the error slice and skipped;
// the remaining groups are still returned.
func (s *Store) LoadGroups() ([]GroupFile, []error) {
	entries, err := os.ReadDir(s.groupsDir)
	if err != nil {
		return nil, []error{&LoadError{Path: s.groupsDir, Err: err}}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isGroupFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var groups []GroupFile
	var errs []error
	for _, name := range names {
		gf, err := s.LoadGroup(filepath.Join(s.groupsDir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, *gf)
	}
	return groups, errs
}

// LoadGroup reads one group file. A missing fileId defaults to the file's
// base name without extension.
func (s *Store) LoadGroup(path string) (*GroupFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var g models.EventGroup
	if isYAML(path) {
		err = yaml.Unmarshal(data, &g)
	} else {
		err = json.Unmarshal(data, &g)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to decode group: %w", err)}
	}

	if g.FileID == "" {
		base := filepath.Base(path)
		g.FileID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := g.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid group: %w", err)}
	}

	return &GroupFile{Path: path, Group: g, raw: data}, nil
}

// SaveGroup writes the group back to its original path in its original format.
// For a loaded group only the run-owned keys are rewritten: each event's
// time, needsResearch and verificationSummary. Every other key in the file
// is kept as it was.
func (s *Store) SaveGroup(gf *GroupFile) error {
	if err := gf.Group.Validate(); err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}

	var data []byte
	var err error
	switch {
	case gf.raw != nil && isYAML(gf.Path):
		data, err = patchYAMLGroup(gf.raw, &gf.Group)
	case gf.raw != nil:
		data, err = patchJSONGroup(gf.raw, &gf.Group)
	case isYAML(gf.Path):
		data, err = marshalYAML(&gf.Group)
	default:
		data, err = json.MarshalIndent(&gf.Group, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}

	if err := writeAtomic(gf.Path, data, s.filePermissions, s.dirPermissions); err != nil {
		return err
	}
	gf.raw = data
	return nil
}

// writeAtomic writes data to path via a temporary sibling and a rename.
func writeAtomic(path string, data []byte, filePermissions, dirPermissions os.FileMode) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// removeStaleTemp deletes a temporary file left behind by a crashed write.
func removeStaleTemp(path string) {
	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}
}
