package kb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// overridesFile is the YAML layout of a scenario override file:
//
//	scenarios:
//	  ORBITAL_BULL:
//	    learningRate: 0.1
//	    launchCostMUSD: 45
type overridesFile struct {
	Scenarios map[string]yaml.Node `yaml:"scenarios"`
}

// ApplyOverrides decodes a YAML override file and layers each scenario's
// fields over its current parameters. Nothing is applied unless every
// scenario in the file decodes cleanly. It returns the updated keys in
// model.AllScenarios order.
func (c *Catalog) ApplyOverrides(r io.Reader) ([]model.ScenarioKey, error) {
	var file overridesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scenario overrides: %w", err)
	}

	updated := make([]model.ScenarioParams, 0, len(file.Scenarios))
	for name, node := range file.Scenarios {
		key, err := model.ParseScenarioKey(name)
		if err != nil {
			return nil, err
		}
		p, err := c.Get(key)
		if err != nil {
			return nil, err
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode overrides for %s: %w", key, err)
		}
		p.Key = key
		updated = append(updated, p)
	}
	sort.Slice(updated, func(i, j int) bool {
		return scenarioIndex(updated[i].Key) < scenarioIndex(updated[j].Key)
	})

	keys := make([]model.ScenarioKey, 0, len(updated))
	for _, p := range updated {
		if err := c.Set(p); err != nil {
			return keys, err
		}
		keys = append(keys, p.Key)
	}
	return keys, nil
}

// ApplyOverridesFile reads overrides from path.
func (c *Catalog) ApplyOverridesFile(path string) ([]model.ScenarioKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario overrides: %w", err)
	}
	defer f.Close()
	return c.ApplyOverrides(f)
}

func scenarioIndex(key model.ScenarioKey) int {
	for i, k := range model.AllScenarios {
		if k == key {
			return i
		}
	}
	return len(model.AllScenarios)
}
