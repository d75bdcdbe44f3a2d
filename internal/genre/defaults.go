package genre

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

//go:embed default_genres.yaml
var defaultGenresYAML []byte

// Seed defines a genre of a seed taxonomy. Children nest under it; AlsoUnder
// names additional parents that appear earlier in the file.
type Seed struct {
	Name        string           `yaml:"name"`
	Type        domain.GenreType `yaml:"type"`
	Description string           `yaml:"description"`
	AKAs        []string         `yaml:"akas"`
	AlsoUnder   []string         `yaml:"also_under"`
	Children    []Seed           `yaml:"children"`
}

// SeedEntry is a flattened seed with every parent resolved to a name.
type SeedEntry struct {
	Name        string
	Type        domain.GenreType
	Description string
	AKAs        []string
	Parents     []string
}

// LoadSeeds decodes a seed taxonomy from YAML.
func LoadSeeds(r io.Reader) ([]Seed, error) {
	var seeds []Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seeds); err != nil {
		return nil, fmt.Errorf("decode seed taxonomy: %w", err)
	}
	return seeds, nil
}

// DefaultSeeds returns the built-in music taxonomy.
func DefaultSeeds() ([]Seed, error) {
	return LoadSeeds(bytes.NewReader(defaultGenresYAML))
}

// Flatten orders seeds so every genre follows all of its parents.
// It fails on repeated names and on parents that are not defined earlier.
func Flatten(seeds []Seed) ([]SeedEntry, error) {
	var entries []SeedEntry
	seen := make(map[string]bool)

	var walk func(seeds []Seed, parent string) error
	walk = func(seeds []Seed, parent string) error {
		for _, s := range seeds {
			if seen[s.Name] {
				return fmt.Errorf("seed %q defined twice", s.Name)
			}

			var parents []string
			if parent != "" {
				parents = append(parents, parent)
			}
			for _, p := range s.AlsoUnder {
				if !seen[p] {
					return fmt.Errorf("seed %q: parent %q must be defined earlier", s.Name, p)
				}
				parents = append(parents, p)
			}

			seen[s.Name] = true
			entries = append(entries, SeedEntry{
				Name:        s.Name,
				Type:        s.Type,
				Description: s.Description,
				AKAs:        s.AKAs,
				Parents:     parents,
			})

			if err := walk(s.Children, s.Name); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(seeds, ""); err != nil {
		return nil, err
	}
	return entries, nil
}
