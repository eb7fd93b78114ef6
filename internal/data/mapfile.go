package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MapFile describes an arena: its grid dimensions and initial placements.
type MapFile struct {
	Name     string      `yaml:"name"`
	Rows     int         `yaml:"rows"`
	Cols     int         `yaml:"cols"`
	CellSize float64     `yaml:"cell_size"` // 0 = use the server default
	Player   Placement   `yaml:"player"`
	Objects  []Placement `yaml:"objects"`
}

// Placement puts one object from the catalog on the map.
type Placement struct {
	Config    string     `yaml:"config"`
	Pos       [2]float64 `yaml:"pos"`
	Direction [2]float64 `yaml:"direction"`
}

// LoadMap loads an arena from a YAML file.
func LoadMap(path string) (*MapFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	m, err := ParseMap(raw)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return m, nil
}

func ParseMap(raw []byte) (*MapFile, error) {
	var m MapFile
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if m.Rows <= 0 || m.Cols <= 0 {
		return nil, fmt.Errorf("map %q: rows and cols must be positive, got %dx%d", m.Name, m.Rows, m.Cols)
	}
	if m.Player.Config == "" {
		return nil, fmt.Errorf("map %q: no player placement", m.Name)
	}
	return &m, nil
}
