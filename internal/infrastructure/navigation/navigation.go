// Package navigation loads the dashboard sidebar definition.
package navigation

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shelfvoice/portal/internal/core/domain"
)

//go:embed default.yaml
var defaultMenu []byte

// Default returns the built-in sidebar.
func Default() ([]domain.NavItem, error) {
	return Parse(defaultMenu)
}

// Load reads a sidebar definition from path, or the built-in one when path is
// empty.
func Load(path string) ([]domain.NavItem, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of entries. Every entry needs a name and either an
// href or children.
func Parse(data []byte) ([]domain.NavItem, error) {
	var items []domain.NavItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse navigation: %w", err)
	}
	if err := check(items); err != nil {
		return nil, err
	}
	return items, nil
}

func check(items []domain.NavItem) error {
	for _, it := range items {
		if it.Name == "" {
			return fmt.Errorf("navigation entry without name")
		}
		if it.Href == "" && len(it.Children) == 0 {
			return fmt.Errorf("navigation entry %q has neither href nor children", it.Name)
		}
		if err := check(it.Children); err != nil {
			return err
		}
	}
	return nil
}
