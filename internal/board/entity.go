package board

import (
	"fmt"

	"github.com/talgya/trigrid/internal/grid"
)

// EntityRef is a generational handle to a board entity. A ref whose slot has
// been reused no longer resolves. The zero value never names an entity.
type EntityRef struct {
	Index uint32 `json:"index"`
	Gen   uint32 `json:"gen"`
}

// NoEntity is the zero ref.
var NoEntity = EntityRef{}

// IsZero reports whether r is the zero ref.
func (r EntityRef) IsZero() bool {
	return r.Gen == 0
}

func (r EntityRef) String() string {
	if r.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", r.Index, r.Gen)
}

// CompareRefs orders refs by index, then generation.
func CompareRefs(a, b EntityRef) int {
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	case a.Gen < b.Gen:
		return -1
	case a.Gen > b.Gen:
		return 1
	default:
		return 0
	}
}

// Kind names an entity template such as "plant" or "trash".
type Kind string

// Stat enumerates the adjustable entity statistics.
type Stat uint8

const (
	StatHealth Stat = iota
	StatRange
)

func (s Stat) String() string {
	switch s {
	case StatHealth:
		return "health"
	case StatRange:
		return "range"
	default:
		return "unknown"
	}
}

// Transform places an entity: the anchor cell and the facing its footprint
// is rotated to.
type Transform struct {
	Anchor grid.Coord     `json:"anchor"`
	Facing grid.Direction `json:"facing"`
}

// KindSpec describes an entity template.
type KindSpec struct {
	// Footprint is relative to an unflipped anchor facing Up. Empty means a
	// single cell.
	Footprint []grid.Coord
	// MaxHealth of zero means the kind does not track health and cannot be
	// killed by damage.
	MaxHealth int
	Range     int
}

// Entity is a live board occupant.
type Entity struct {
	Ref       EntityRef  `json:"ref"`
	Kind      Kind       `json:"kind"`
	Transform Transform  `json:"transform"`
	Cells     grid.Shape `json:"-"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"max_health"`
	Range     int        `json:"range"`
}

// Alive reports whether a health-tracking entity still has health left.
// Entities that do not track health are always alive.
func (e *Entity) Alive() bool {
	return e.MaxHealth == 0 || e.Health > 0
}
