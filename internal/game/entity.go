package game

import (
	"github.com/shikigami/battle-server-go/internal/game/effects"
)

// Team ids. Entities on TeamNeutral never count for the win rule and are
// never targeted as enemies.
const (
	TeamLeft    = 0
	TeamRight   = 1
	TeamNeutral = -1
)

// Entity defaults.
const (
	DefaultLevel = 40
	DefaultHP    = 1
)

// Entity is one combat participant.
type Entity struct {
	ID     int
	No     int
	Name   string
	TeamID int
	Level  int
	HP     float64
	Shield float64
	Dead   bool

	tags       []string
	properties map[effects.Property]float64
	skills     []*Skill
	data       map[string]string
}

// NewEntity creates an entity with every recognised property set to 0 and
// max hp set to DefaultHP. The id is assigned when the entity joins a battle.
func NewEntity(no int, name string) *Entity {
	e := &Entity{
		No:         no,
		Name:       name,
		TeamID:     TeamNeutral,
		Level:      DefaultLevel,
		HP:         DefaultHP,
		properties: make(map[effects.Property]float64, len(effects.Properties)),
		data:       make(map[string]string),
	}
	for _, p := range effects.Properties {
		e.properties[p] = 0
	}
	e.properties[effects.MaxHP] = DefaultHP
	return e
}

// SetProperty sets the base value of p. Unknown names are ignored.
func (e *Entity) SetProperty(p effects.Property, value float64) *Entity {
	if effects.IsProperty(p) {
		e.properties[p] = value
	}
	return e
}

// Property returns the base value of p.
func (e *Entity) Property(p effects.Property) (float64, bool) {
	v, ok := e.properties[p]
	return v, ok
}

// AddSkill appends a skill. Skills keep insertion order, which is also the
// order their handlers are discovered in.
func (e *Entity) AddSkill(s *Skill) *Entity {
	if s != nil {
		e.skills = append(e.skills, s)
	}
	return e
}

// Skills returns the entity's skills in order.
func (e *Entity) Skills() []*Skill {
	return e.skills
}

// Skill returns the first skill with slot no.
func (e *Entity) Skill(no int) *Skill {
	for _, s := range e.skills {
		if s.No == no {
			return s
		}
	}
	return nil
}

// AddTag adds a tag unless it is already present.
func (e *Entity) AddTag(tag string) {
	if !e.HasTag(tag) {
		e.tags = append(e.tags, tag)
	}
}

// RemoveTag removes a tag.
func (e *Entity) RemoveTag(tag string) {
	for i, t := range e.tags {
		if t == tag {
			e.tags = append(e.tags[:i:i], e.tags[i+1:]...)
			return
		}
	}
}

// HasTag reports whether the entity carries tag.
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Tags returns the tags in insertion order.
func (e *Entity) Tags() []string {
	return append([]string(nil), e.tags...)
}

// Data reads a scratch value.
func (e *Entity) Data(key string) (string, bool) {
	v, ok := e.data[key]
	return v, ok
}

// SetData stores a scratch value.
func (e *Entity) SetData(key, value string) {
	e.data[key] = value
}

// ClearData removes a scratch value.
func (e *Entity) ClearData(key string) {
	delete(e.data, key)
}

// competing reports whether the entity counts for the win rule.
func (e *Entity) competing() bool {
	return e.No != 0 && (e.TeamID == TeamLeft || e.TeamID == TeamRight) && !e.Dead
}
