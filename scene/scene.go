// Package scene is the host's ordered draw list. Each primitive is an entity in
// an ark world carrying its draw order and visibility; Execute runs the visible
// primitives in insertion order once per frame.
package scene

import (
	"sort"

	"github.com/mlange-42/ark/ecs"
)

// Primitive is one renderable unit of work in the draw list.
type Primitive interface {
	Name() string
	Execute()
}

// Slot holds the primitive and whether it is drawn.
type Slot struct {
	Primitive Primitive
	Show      bool
}

// Order is the insertion sequence number.
type Order struct {
	N uint64
}

// Scene is the draw list.
type Scene struct {
	world  *ecs.World
	mapper *ecs.Map2[Slot, Order]
	filter *ecs.Filter2[Slot, Order]
	next   uint64
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:  world,
		mapper: ecs.NewMap2[Slot, Order](world),
		filter: ecs.NewFilter2[Slot, Order](world),
	}
}

// Add appends a primitive after every existing one. New primitives are shown.
func (s *Scene) Add(p Primitive) ecs.Entity {
	slot := Slot{Primitive: p, Show: true}
	order := Order{N: s.next}
	s.next++
	return s.mapper.NewEntity(&slot, &order)
}

// Remove deletes one primitive. Returns false if it was already gone.
func (s *Scene) Remove(e ecs.Entity) bool {
	if !s.world.Alive(e) {
		return false
	}
	s.world.RemoveEntity(e)
	return true
}

// RemoveAll empties the scene.
func (s *Scene) RemoveAll() {
	var all []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		s.world.RemoveEntity(e)
	}
}

// SetShow toggles drawing of the given primitives. Dead entities are ignored.
func (s *Scene) SetShow(show bool, entities ...ecs.Entity) {
	for _, e := range entities {
		if !s.world.Alive(e) {
			continue
		}
		slot, _ := s.mapper.Get(e)
		slot.Show = show
	}
}

// Shown reports whether a primitive is alive and drawn.
func (s *Scene) Shown(e ecs.Entity) bool {
	if !s.world.Alive(e) {
		return false
	}
	slot, _ := s.mapper.Get(e)
	return slot.Show
}

type entry struct {
	order uint64
	slot  Slot
}

func (s *Scene) sorted() []entry {
	var entries []entry
	query := s.filter.Query()
	for query.Next() {
		slot, order := query.Get()
		entries = append(entries, entry{order: order.N, slot: *slot})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
	return entries
}

// Primitives returns every primitive in draw order, shown or not.
func (s *Scene) Primitives() []Primitive {
	entries := s.sorted()
	out := make([]Primitive, len(entries))
	for i, e := range entries {
		out[i] = e.slot.Primitive
	}
	return out
}

// Len returns the number of primitives.
func (s *Scene) Len() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Execute runs every shown primitive in draw order and returns how many ran.
func (s *Scene) Execute() int {
	ran := 0
	for _, e := range s.sorted() {
		if !e.slot.Show {
			continue
		}
		e.slot.Primitive.Execute()
		ran++
	}
	return ran
}
