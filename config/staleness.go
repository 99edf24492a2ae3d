package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/oldfield/dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

// Staleness holds freshness threshold overrides in hours, read from a YAML
// file of domain: hours pairs plus an optional default key:
//
//	default: 168
//	FINANCE: 48
//	garden: 336
type Staleness struct {
	Default  float64
	ByDomain map[models.Domain]float64
}

// LoadThresholds reads the override file. An empty path yields no overrides.
func LoadThresholds(path string) (*Staleness, error) {
	s := &Staleness{ByDomain: map[models.Domain]float64{}}
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staleness config: %w", err)
	}

	raw := map[string]float64{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse staleness config %s: %w", path, err)
	}

	for key, hours := range raw {
		if hours <= 0 {
			return nil, fmt.Errorf("staleness for %s must be positive, got %v", key, hours)
		}
		name := strings.ToUpper(strings.TrimSpace(key))
		if name == "DEFAULT" {
			s.Default = hours
			continue
		}
		s.ByDomain[models.Domain(name)] = hours
	}
	return s, nil
}
