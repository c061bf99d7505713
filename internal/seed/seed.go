package seed

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"sigs.k8s.io/yaml"

	"github.com/creatorfund/boostd/internal/boost"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Entry is one configuration in a seed file.
type Entry struct {
	BoostType    string          `json:"boostType"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	DurationDays int             `json:"durationDays"`
	Description  string          `json:"description"`
	Enabled      *bool           `json:"enabled,omitempty"`
	Conditions   map[string]any  `json:"conditions,omitempty"`
}

// File is the top-level document of a seed file.
type File struct {
	Configurations []Entry `json:"configurations"`
}

// Defaults returns the built-in boost configurations.
func Defaults() ([]boost.Config, error) {
	return Parse(defaultsYAML)
}

// Load reads and parses the seed file at path. An empty path yields Defaults.
func Load(path string) ([]boost.Config, error) {
	if path == "" {
		return Defaults()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML seed document. Entries default to enabled.
func Parse(data []byte) ([]boost.Config, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	configs := make([]boost.Config, 0, len(f.Configurations))
	for i, e := range f.Configurations {
		t, ok := boost.ParseType(e.BoostType)
		if !ok {
			return nil, fmt.Errorf("seed entry %d: unknown boost type %q", i, e.BoostType)
		}

		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}
		conditions := e.Conditions
		if conditions == nil {
			conditions = map[string]any{}
		}

		configs = append(configs, boost.Config{
			Type:         t,
			Multiplier:   e.Multiplier,
			DurationDays: e.DurationDays,
			Description:  e.Description,
			Enabled:      enabled,
			Conditions:   conditions,
		})
	}

	return configs, nil
}
