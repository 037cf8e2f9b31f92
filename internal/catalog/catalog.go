// Package catalog holds the read-only scenario registry.
package catalog

import (
	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/embedding"
)

// Catalog is immutable after New; safe for concurrent readers.
type Catalog struct {
	specs []domain.ScenarioSpec
	index map[string]int
}

// New embeds every built-in entry once.
func New(embedder *embedding.Service) *Catalog {
	return FromSpecs(embedder, entries)
}

// FromSpecs builds a catalog over caller-supplied specs, keeping their order.
// Later duplicates of a scenario id are ignored.
func FromSpecs(embedder *embedding.Service, specs []domain.ScenarioSpec) *Catalog {
	if embedder == nil {
		embedder = embedding.New(embedding.DefaultDimension)
	}
	c := &Catalog{
		specs: make([]domain.ScenarioSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if _, ok := c.index[spec.ScenarioID]; ok {
			continue
		}
		spec.Embedding = embedder.Embed(spec.Narrative())
		c.index[spec.ScenarioID] = len(c.specs)
		c.specs = append(c.specs, spec)
	}
	return c
}

// All returns the entries in catalog order. Callers must not mutate them.
func (c *Catalog) All() []domain.ScenarioSpec {
	return c.specs
}

func (c *Catalog) Get(scenarioID string) (domain.ScenarioSpec, bool) {
	i, ok := c.index[scenarioID]
	if !ok {
		return domain.ScenarioSpec{}, false
	}
	return c.specs[i], true
}

func (c *Catalog) Len() int {
	return len(c.specs)
}
