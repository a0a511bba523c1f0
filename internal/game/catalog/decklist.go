package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckFile represents the top-level deck list YAML structure.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry represents a single named deck.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a card and its count in a deck.
type CardEntry struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// DeckList is a resolved deck: templates in draw order.
type DeckList struct {
	Name      string
	Templates []Template
}

// LoadDeckList reads a deck list file and resolves every entry against the catalog.
func (c *Catalog) LoadDeckList(path string) ([]DeckList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck list: %w", err)
	}
	return c.ParseDeckList(data)
}

// ParseDeckList decodes a deck list and resolves it against the catalog.
func (c *Catalog) ParseDeckList(data []byte) ([]DeckList, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}
	if len(df.Decks) == 0 {
		return nil, fmt.Errorf("deck list has no decks")
	}

	lists := make([]DeckList, 0, len(df.Decks))
	for _, deck := range df.Decks {
		list := DeckList{Name: deck.Name}
		for _, entry := range deck.Cards {
			tmpl, ok := c.Lookup(entry.Name)
			if !ok {
				return nil, fmt.Errorf("deck %q: %q: %w", deck.Name, entry.Name, ErrUnknownCard)
			}
			if entry.Count < 0 {
				return nil, fmt.Errorf("deck %q: %q: negative count", deck.Name, entry.Name)
			}
			for i := 0; i < entry.Count; i++ {
				list.Templates = append(list.Templates, tmpl)
			}
		}
		lists = append(lists, list)
	}
	return lists, nil
}
