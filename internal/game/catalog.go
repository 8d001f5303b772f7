package game

import (
	"sort"
	"sync"
)

// HeroBuilder creates a fresh hero entity. Every call must return a new
// entity with new skills.
type HeroBuilder func() *Entity

// EquipmentBuilder creates the skill an equipment piece grants.
type EquipmentBuilder func() *Skill

// Catalog maps catalog numbers to hero builders and equipment numbers to
// equipment builders. It is safe for concurrent use so one catalog can back
// many battles.
type Catalog struct {
	mu         sync.RWMutex
	heroes     map[int]HeroBuilder
	equipments map[int]EquipmentBuilder
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		heroes:     make(map[int]HeroBuilder),
		equipments: make(map[int]EquipmentBuilder),
	}
}

// RegisterHero registers a hero under no, replacing any previous builder.
func (c *Catalog) RegisterHero(no int, build HeroBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heroes[no] = build
}

// RegisterEquipment registers an equipment piece under no.
func (c *Catalog) RegisterEquipment(no int, build EquipmentBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.equipments[no] = build
}

// Hero returns the builder registered under no.
func (c *Catalog) Hero(no int) (HeroBuilder, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	build, ok := c.heroes[no]
	return build, ok
}

// Equipment returns the builder registered under no.
func (c *Catalog) Equipment(no int) (EquipmentBuilder, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	build, ok := c.equipments[no]
	return build, ok
}

// HeroNumbers returns the registered hero numbers in ascending order.
func (c *Catalog) HeroNumbers() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int, 0, len(c.heroes))
	for no := range c.heroes {
		out = append(out, no)
	}
	sort.Ints(out)
	return out
}
