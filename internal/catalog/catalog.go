// Package catalog persists the JSON source of truth and its sidecar files.
// Every producer rewrites the files wholesale; nothing is patched in place.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"curator/internal/model"
)

// Load reads the catalog from path.
func Load(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &cat, nil
}

// Save writes the catalog to path, preserving section and repo order.
func Save(path string, cat *model.Catalog) error {
	return writeJSON(path, cat)
}

// ExistingSet returns the lowercased identities of every entry.
func ExistingSet(cat *model.Catalog) map[string]bool {
	set := make(map[string]bool)
	for _, section := range cat.Sections {
		for _, repo := range section.Repos {
			set[repo.Key()] = true
		}
	}
	return set
}

// CountEntries returns the total number of entries across all sections.
func CountEntries(cat *model.Catalog) int {
	n := 0
	for _, section := range cat.Sections {
		n += len(section.Repos)
	}
	return n
}

// FindSection returns the section with the given id, or nil.
func FindSection(cat *model.Catalog, id string) *model.Section {
	for _, section := range cat.Sections {
		if section.ID == id {
			return section
		}
	}
	return nil
}

// FindEntry returns the section and entry matching the identity,
// case-insensitively, or nil if absent.
func FindEntry(cat *model.Catalog, fullName string) (*model.Section, *model.Entry) {
	key := strings.ToLower(fullName)
	for _, section := range cat.Sections {
		for _, repo := range section.Repos {
			if repo.Key() == key {
				return section, repo
			}
		}
	}
	return nil, nil
}

// LoadResults reads a discovery results file.
func LoadResults(path string) (*model.Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var res model.Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &res, nil
}

// SaveResults writes a discovery results file.
func SaveResults(path string, res *model.Results) error {
	return writeJSON(path, res)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
