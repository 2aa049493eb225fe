package prompt

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/promptbench/promptbench/internal/models"
)

// DefaultSubject is the pool used when a problem carries no subject tag or
// an unknown one.
const DefaultSubject = "general"

//go:embed data/pools.yaml
var defaultPoolsYAML []byte

type poolEntry struct {
	Problem                string `yaml:"problem"`
	Solution               string `yaml:"solution"`
	ConditionalProbability bool   `yaml:"conditional_probability,omitempty"`
}

// LoadPools parses a subject-keyed example pool definition.
func LoadPools(data []byte) (map[string][]models.ExampleRecord, error) {
	var raw map[string][]poolEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing example pools: %w", err)
	}

	pools := make(map[string][]models.ExampleRecord, len(raw))
	for subject, entries := range raw {
		records := make([]models.ExampleRecord, 0, len(entries))
		for _, e := range entries {
			if e.Problem == "" || e.Solution == "" {
				return nil, fmt.Errorf("pool %q: example with empty problem or solution", subject)
			}
			records = append(records, models.ExampleRecord{
				Problem:                e.Problem,
				Solution:               e.Solution,
				ConditionalProbability: e.ConditionalProbability,
			})
		}
		pools[subject] = records
	}
	return pools, nil
}

// DefaultPools returns the compiled-in example pools. The embedded data is
// validated at build time by tests, so a parse failure here is a programming
// error.
func DefaultPools() map[string][]models.ExampleRecord {
	pools, err := LoadPools(defaultPoolsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded example pools are invalid: %v", err))
	}
	return pools
}
