// Package forecast produces Monte Carlo percentile bands for the mix
// economics of a scenario.
package forecast

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// ErrInvalidSpec indicates a forecast spec that cannot be run.
var ErrInvalidSpec = errors.New("invalid forecast spec")

// Spec is the base configuration every replicate perturbs. The factory output
// multiplier is optional: it is jittered only when Config sets it.
type Spec struct {
	Config model.SimConfig `json:"config" yaml:",inline"`
}

// NewSpec wraps cfg as a forecast spec.
func NewSpec(cfg model.SimConfig) Spec {
	return Spec{Config: cfg}
}

// Validate reports whether the spec can be simulated.
func (s Spec) Validate() error {
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	return nil
}

// LoadSpec decodes a YAML spec on top of model.DefaultSimConfig, so a file
// only needs the fields it changes.
func LoadSpec(r io.Reader) (Spec, error) {
	spec := NewSpec(model.DefaultSimConfig())
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return Spec{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidSpec, err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// LoadSpecFile reads a YAML spec from path.
func LoadSpecFile(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, fmt.Errorf("open forecast spec: %w", err)
	}
	defer f.Close()
	return LoadSpec(f)
}
