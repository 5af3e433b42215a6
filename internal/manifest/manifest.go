// Package manifest models cms-index.json, the artifact enumerating every
// generated content artifact path.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"
)

// Manifest is the cms-index.json payload. Collections maps a group (company,
// services, contact, pages, news) to named artifact paths relative to the
// content-API root; Stats counts files per group.
type Manifest struct {
	Generated   string                       `json:"generated"`
	Version     string                       `json:"version"`
	Collections map[string]map[string]string `json:"collections"`
	Stats       map[string]int               `json:"stats"`
}

// New creates an empty manifest stamped with the given generation time.
func New(version string, generated time.Time) *Manifest {
	return &Manifest{
		Generated:   generated.UTC().Format(time.RFC3339),
		Version:     version,
		Collections: make(map[string]map[string]string),
		Stats:       make(map[string]int),
	}
}

// Add records one artifact under a collection group and bumps the group's
// file count.
func (m *Manifest) Add(group, name, path string) {
	coll, ok := m.Collections[group]
	if !ok {
		coll = make(map[string]string)
		m.Collections[group] = coll
	}
	coll[name] = path
	m.Stats[group+"_files"]++
}

// ToJSON serializes the manifest. Keys marshal in sorted order, so output is
// deterministic for unchanged inputs.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
