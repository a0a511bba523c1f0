// Package catalog loads the card templates that decks are built from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/magefree/hearth-server-go/internal/game/effects"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Kind distinguishes unit templates from spell templates.
type Kind string

const (
	KindUnit  Kind = "unit"
	KindSpell Kind = "spell"
)

// ErrUnknownCard is returned when a deck list names a card the catalog lacks.
var ErrUnknownCard = errors.New("unknown card")

// Template describes a printable card.
type Template struct {
	Name        string `yaml:"name" json:"name"`
	Kind        Kind   `yaml:"-" json:"kind"`
	Cost        int    `yaml:"cost" json:"cost"`
	Attack      int    `yaml:"attack,omitempty" json:"attack,omitempty"`
	HP          int    `yaml:"hp,omitempty" json:"hp,omitempty"`
	Effect      string `yaml:"effect,omitempty" json:"effect,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog is the set of unit and spell templates available to deck builders.
type Catalog struct {
	Units  []Template `yaml:"units"`
	Spells []Template `yaml:"spells"`

	byName map[string]Template
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	for i := range c.Units {
		c.Units[i].Kind = KindUnit
	}
	for i := range c.Spells {
		c.Spells[i].Kind = KindSpell
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks template values and indexes templates by name.
func (c *Catalog) Validate() error {
	if len(c.Units) == 0 && len(c.Spells) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	byName := make(map[string]Template, len(c.Units)+len(c.Spells))
	for _, t := range append(append([]Template{}, c.Units...), c.Spells...) {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("%s template without a name", t.Kind)
		}
		if _, dup := byName[name]; dup {
			return fmt.Errorf("duplicate card name %q", name)
		}
		if t.Cost < 0 {
			return fmt.Errorf("%s: negative cost %d", name, t.Cost)
		}
		switch t.Kind {
		case KindUnit:
			if t.Attack < 0 {
				return fmt.Errorf("%s: negative attack %d", name, t.Attack)
			}
			if t.HP <= 0 {
				return fmt.Errorf("%s: hp must be positive, got %d", name, t.HP)
			}
		case KindSpell:
			if _, ok := effects.Lookup(t.Effect); !ok {
				return fmt.Errorf("%s: unknown effect %q (known: %s)", name, t.Effect, strings.Join(effects.Names(), ", "))
			}
		}
		byName[name] = t
	}
	c.byName = byName
	return nil
}

// Lookup finds a template by card name.
func (c *Catalog) Lookup(name string) (Template, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// RandomDeck builds n templates where every slot is a unit or a spell with
// equal probability, then a uniformly chosen template of that kind.
func (c *Catalog) RandomDeck(rng *rand.Rand, n int) []Template {
	out := make([]Template, 0, n)
	for i := 0; i < n; i++ {
		pool := c.Units
		if len(pool) == 0 || (len(c.Spells) > 0 && rng.IntN(2) == 1) {
			pool = c.Spells
		}
		out = append(out, pool[rng.IntN(len(pool))])
	}
	return out
}
