package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// DefaultDimensions is the embedding vector size used when no other
// value is configured.
const DefaultDimensions = 768

var defaultSectorNames = []string{
	"accounting",
	"hr",
	"legal",
	"engineering",
	"sales",
	"marketing",
}

// Sector maps a document sector onto its vector collection.
type Sector struct {
	Name       string `yaml:"name"`
	Collection string `yaml:"collection"`
	Dimensions uint64 `yaml:"dimensions"`
}

// SectorMap holds every known sector keyed by name. Documents filed
// under an unknown sector are rejected before any processing happens.
type SectorMap map[string]Sector

func (m SectorMap) Get(name string) (Sector, bool) {
	s, ok := m[name]
	return s, ok
}

// Names returns all sector names in sorted order.
func (m SectorMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultSectors builds a SectorMap from plain names, deriving the
// collection name from the sector name.
func DefaultSectors(names []string, dimensions uint64) SectorMap {
	m := make(SectorMap, len(names))
	for _, name := range names {
		m[name] = Sector{
			Name:       name,
			Collection: name + "-index",
			Dimensions: dimensions,
		}
	}
	return m
}

type sectorsFile struct {
	Sectors []Sector `yaml:"sectors"`
}

// LoadSectors reads a sector map from a yaml file. Missing collection
// names and dimensions fall back to defaults.
func LoadSectors(path string) (SectorMap, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sectors file: %w", err)
	}

	var sf sectorsFile
	if err := yaml.Unmarshal(file, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse sectors file: %w", err)
	}
	if len(sf.Sectors) == 0 {
		return nil, fmt.Errorf("sectors file %q defines no sectors", path)
	}

	m := make(SectorMap, len(sf.Sectors))
	for _, s := range sf.Sectors {
		if s.Name == "" {
			return nil, fmt.Errorf("sectors file %q contains a sector without a name", path)
		}
		if s.Collection == "" {
			s.Collection = s.Name + "-index"
		}
		if s.Dimensions == 0 {
			s.Dimensions = DefaultDimensions
		}
		m[s.Name] = s
	}

	return m, nil
}
