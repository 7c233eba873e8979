package planning

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxArchetypes bounds how many variants one generation run produces.
const MaxArchetypes = 5

// SelectionRule picks one record, or orders a list, for an archetype.
type SelectionRule string

const (
	RuleCheapest SelectionRule = "cheapest"
	RuleTopRated SelectionRule = "top_rated"
	RuleRandom   SelectionRule = "random"
	RuleSample   SelectionRule = "sample"
)

// Archetype is a named itinerary style driving the selection heuristics.
type Archetype struct {
	ID          string        `yaml:"id"`
	Label       string        `yaml:"label"`
	Description string        `yaml:"description"`
	Flight      SelectionRule `yaml:"flight"`
	Hotel       SelectionRule `yaml:"hotel"`
	Restaurants SelectionRule `yaml:"restaurants"`
	Keywords    []string      `yaml:"keywords"`
}

type archetypeFile struct {
	Name       string      `yaml:"name"`
	Archetypes []Archetype `yaml:"archetypes"`
}

//go:embed archetypes.yaml
var defaultArchetypes []byte

// DefaultArchetypes returns the built-in archetype set.
func DefaultArchetypes() []Archetype {
	set, err := parseArchetypes(defaultArchetypes)
	if err != nil {
		panic(fmt.Sprintf("embedded archetypes are invalid: %v", err))
	}
	return set
}

// LoadArchetypes reads an archetype file. An empty path returns the built-in
// set.
func LoadArchetypes(path string) ([]Archetype, error) {
	if path == "" {
		return DefaultArchetypes(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archetypes file: %w", err)
	}
	return parseArchetypes(data)
}

func parseArchetypes(data []byte) ([]Archetype, error) {
	var file archetypeFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse archetypes YAML: %w", err)
	}
	if len(file.Archetypes) == 0 {
		return nil, fmt.Errorf("archetypes file defines no archetypes")
	}
	if len(file.Archetypes) > MaxArchetypes {
		file.Archetypes = file.Archetypes[:MaxArchetypes]
	}

	seen := make(map[string]bool, len(file.Archetypes))
	for i, a := range file.Archetypes {
		if a.ID == "" {
			return nil, fmt.Errorf("archetype %d has no id", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate archetype id %q", a.ID)
		}
		seen[a.ID] = true
		if a.Label == "" {
			file.Archetypes[i].Label = a.ID
		}
		for field, rule := range map[string]SelectionRule{"flight": a.Flight, "hotel": a.Hotel, "restaurants": a.Restaurants} {
			if !rule.valid(field) {
				return nil, fmt.Errorf("archetype %q: unknown %s rule %q", a.ID, field, rule)
			}
		}
	}
	return file.Archetypes, nil
}

func (r SelectionRule) valid(field string) bool {
	switch r {
	case "", RuleCheapest, RuleTopRated:
		return true
	case RuleRandom:
		return field != "restaurants"
	case RuleSample:
		return field == "restaurants"
	}
	return false
}
