package dictionary

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// MediaWikiSource configures one MediaWiki-backed dictionary.
type MediaWikiSource struct {
	// ID overrides the derived instance id. Optional.
	ID string `json:"id,omitempty"`

	// Name is the display name shown to the user.
	Name string `json:"name"`

	// URL is the wiki root, e.g. "https://en.wiktionary.org/w".
	URL string `json:"url"`

	// Enabled toggles the source without removing it from the file.
	Enabled bool `json:"enabled"`
}

// ForvoConfig configures the Forvo pronunciation sources.
type ForvoConfig struct {
	Enabled bool `json:"enabled"`

	// APIKey is the apifree.forvo.com key. A shared default key is used
	// when empty.
	APIKey string `json:"apiKey,omitempty"`

	// LanguageCodes is a comma-separated list of two-letter codes, one
	// dictionary per code.
	LanguageCodes string `json:"languageCodes,omitempty"`
}

// SourcesConfig is the on-disk description of all configured sources.
type SourcesConfig struct {
	MediaWikis []MediaWikiSource `json:"mediawikis,omitempty"`
	Forvo      ForvoConfig       `json:"forvo,omitempty"`
}

// Validate reports the first problem found in the configuration.
func (c *SourcesConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.MediaWikis))
	for i, mw := range c.MediaWikis {
		if strings.TrimSpace(mw.URL) == "" {
			return fmt.Errorf("mediawikis[%d]: url must not be empty", i)
		}
		if mw.ID != "" {
			if _, ok := seen[mw.ID]; ok {
				return fmt.Errorf("mediawikis[%d]: duplicate id %q", i, mw.ID)
			}
			seen[mw.ID] = struct{}{}
		}
	}
	return nil
}

// LoadSources reads and validates a YAML sources file.
func LoadSources(path string) (*SourcesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var cfg SourcesConfig
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultSources returns the configuration used when no sources file
// exists.
func DefaultSources() *SourcesConfig {
	return &SourcesConfig{
		MediaWikis: []MediaWikiSource{
			{
				Name:    "English Wikipedia",
				URL:     "https://en.wikipedia.org/w",
				Enabled: true,
			},
			{
				Name:    "English Wiktionary",
				URL:     "https://en.wiktionary.org/w",
				Enabled: false,
			},
		},
	}
}
