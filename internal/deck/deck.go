// Package deck loads vocabulary decks from TOML files.
package deck

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/sansu/internal/model"
)

// ChoiceCount is the number of options shown for each quiz card.
const ChoiceCount = 4

//go:embed demo.toml
var demoDeck []byte

type deckFile struct {
	Items []itemEntry `toml:"item"`
}

type itemEntry struct {
	Word       string   `toml:"word"`
	Definition string   `toml:"definition"`
	Example    string   `toml:"example"`
	Choices    []string `toml:"choices"`
	Answer     string   `toml:"answer"`
}

// Demo returns the built-in deck.
func Demo() ([]model.VocabularyItem, error) {
	return Parse(string(demoDeck))
}

// Load reads a deck from path, or the built-in deck when path is empty.
func Load(path string) ([]model.VocabularyItem, error) {
	if path == "" {
		return Demo()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	items, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Parse decodes and validates a TOML deck.
func Parse(data string) ([]model.VocabularyItem, error) {
	var file deckFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}
	items := make([]model.VocabularyItem, 0, len(file.Items))
	for _, entry := range file.Items {
		items = append(items, model.VocabularyItem{
			Word:       strings.TrimSpace(entry.Word),
			Definition: strings.TrimSpace(entry.Definition),
			Example:    strings.TrimSpace(entry.Example),
			Choices:    entry.Choices,
			Answer:     entry.Answer,
		})
	}
	if err := Validate(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Validate checks that every card has a word, four distinct choices and an
// answer among them. Words must be unique within a deck.
func Validate(items []model.VocabularyItem) error {
	if len(items) == 0 {
		return fmt.Errorf("deck is empty")
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.Word == "" {
			return fmt.Errorf("item %d: word is empty", i+1)
		}
		if _, ok := seen[item.Word]; ok {
			return fmt.Errorf("item %d: duplicate word %q", i+1, item.Word)
		}
		seen[item.Word] = struct{}{}
		if len(item.Choices) != ChoiceCount {
			return fmt.Errorf("item %q: expected %d choices, got %d", item.Word, ChoiceCount, len(item.Choices))
		}
		hasAnswer := false
		choiceSet := make(map[string]struct{}, len(item.Choices))
		for _, c := range item.Choices {
			if _, dup := choiceSet[c]; dup {
				return fmt.Errorf("item %q: duplicate choice %q", item.Word, c)
			}
			choiceSet[c] = struct{}{}
			if c == item.Answer {
				hasAnswer = true
			}
		}
		if !hasAnswer {
			return fmt.Errorf("item %q: answer %q is not one of the choices", item.Word, item.Answer)
		}
	}
	return nil
}
