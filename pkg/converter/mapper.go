// Package converter provides conversion from Trade Republic transactions
// to YNAB transactions.
package converter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategoryMapping represents a mapping from a Trade Republic transaction
// type to a YNAB category.
type CategoryMapping struct {
	Type       string `yaml:"type"`
	CategoryID string `yaml:"category_id"`
	FlagColor  string `yaml:"flag_color"`
}

// MappingConfig represents the complete category mapping configuration.
type MappingConfig struct {
	Categories []CategoryMapping `yaml:"categories"`
}

// Mapper maps Trade Republic transaction types to YNAB categories.
type Mapper struct {
	config     MappingConfig
	categories map[string]CategoryMapping
}

// NewMapper creates a new Mapper from a YAML configuration file.
func NewMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var config MappingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	mapper := &Mapper{
		config:     config,
		categories: make(map[string]CategoryMapping),
	}

	mapper.buildCategoryMap()

	return mapper, nil
}

// buildCategoryMap builds the internal lookup map from configuration.
func (m *Mapper) buildCategoryMap() {
	for _, mapping := range m.config.Categories {
		m.categories[mapping.Type] = mapping
	}
}

// GetCategoryID returns the YNAB category ID for a transaction type.
// Returns empty string if no mapping is found.
func (m *Mapper) GetCategoryID(txType string) string {
	return m.categories[txType].CategoryID
}

// GetFlagColor returns the YNAB flag color for a transaction type.
// Returns empty string if no mapping is found.
func (m *Mapper) GetFlagColor(txType string) string {
	return m.categories[txType].FlagColor
}

// HasMapping checks if a mapping exists for a transaction type.
func (m *Mapper) HasMapping(txType string) bool {
	_, ok := m.categories[txType]
	return ok
}
