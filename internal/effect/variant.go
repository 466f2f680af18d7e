package effect

import (
	"fmt"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/resource"
)

// Variant is the action an effect performs on its targets. The set of
// variants is closed.
type Variant interface {
	isVariant()
	String() string
}

// ApplyField adds Strength of Field to every target cell.
type ApplyField struct {
	Field    field.Type
	Strength int
}

// DamageEntities removes Amount health from every target entity. Damage is
// never given back.
type DamageEntities struct {
	Amount int
}

// ModifyRange adds Delta to the range of every target entity.
type ModifyRange struct {
	Delta int
}

// ProvideResource offers a resource from Faucet to the sinks of every
// target entity.
type ProvideResource struct {
	Faucet resource.FaucetID
}

// SpawnEntities places an entity of Kind on every empty target cell.
type SpawnEntities struct {
	Kind board.Kind
}

func (ApplyField) isVariant()      {}
func (DamageEntities) isVariant()  {}
func (ModifyRange) isVariant()     {}
func (ProvideResource) isVariant() {}
func (SpawnEntities) isVariant()   {}

func (v ApplyField) String() string      { return fmt.Sprintf("apply_field(%s, %d)", v.Field, v.Strength) }
func (v DamageEntities) String() string  { return fmt.Sprintf("damage(%d)", v.Amount) }
func (v ModifyRange) String() string     { return fmt.Sprintf("modify_range(%+d)", v.Delta) }
func (v ProvideResource) String() string { return fmt.Sprintf("provide_resource(faucet %d)", v.Faucet) }
func (v SpawnEntities) String() string   { return fmt.Sprintf("spawn(%s)", v.Kind) }

// Reversible reports whether the variant's side effects are undone when a
// target drops out or the effect deactivates.
func Reversible(v Variant) bool {
	switch v.(type) {
	case ApplyField, ModifyRange, ProvideResource:
		return true
	default:
		return false
	}
}

type targeting uint8

const (
	targetCells targeting = iota
	targetEmptyCells
	targetEntities
)

func targetOf(v Variant) targeting {
	switch v.(type) {
	case ApplyField:
		return targetCells
	case SpawnEntities:
		return targetEmptyCells
	default:
		return targetEntities
	}
}
