package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventScenarioUpdated EventType = iota
	EventScenarioReset
)

// Event is emitted to subscribers when scenario parameters change.
type Event struct {
	Type   EventType
	Params model.ScenarioParams
}

// Catalog is an in-memory, thread-safe store of scenario parameters keyed by
// ScenarioKey. It starts out holding the built-in presets.
type Catalog struct {
	mu sync.RWMutex

	params map[model.ScenarioKey]model.ScenarioParams

	subs map[int]func(Event)
	next int
}

// NewCatalog constructs a catalog seeded with the built-in presets.
func NewCatalog() *Catalog {
	c := &Catalog{
		params: make(map[model.ScenarioKey]model.ScenarioParams, len(model.AllScenarios)),
		subs:   make(map[int]func(Event)),
	}
	for _, key := range model.AllScenarios {
		c.params[key] = Preset(key)
	}
	return c
}

// Get returns the parameters for key.
func (c *Catalog) Get(key model.ScenarioKey) (model.ScenarioParams, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.params[key]
	if !ok {
		return model.ScenarioParams{}, fmt.Errorf("%w: %q", model.ErrUnknownScenario, key)
	}
	return p, nil
}

// Set replaces the parameters for p.Key and notifies subscribers.
func (c *Catalog) Set(p model.ScenarioParams) error {
	if !p.Key.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownScenario, p.Key)
	}
	c.mu.Lock()
	c.params[p.Key] = p
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	notify(subs, Event{Type: EventScenarioUpdated, Params: p})
	return nil
}

// Reset restores the built-in preset for key.
func (c *Catalog) Reset(key model.ScenarioKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownScenario, key)
	}
	p := Preset(key)
	c.mu.Lock()
	c.params[key] = p
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventScenarioReset, Params: p})
	return nil
}

// List returns every scenario's parameters in model.AllScenarios order.
func (c *Catalog) List() []model.ScenarioParams {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.ScenarioParams, 0, len(c.params))
	for _, key := range model.AllScenarios {
		if p, ok := c.params[key]; ok {
			res = append(res, p)
		}
	}
	return res
}

// Subscribe registers a callback for catalog events. It returns an unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Catalog) snapshotSubsLocked() []func(Event) {
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
