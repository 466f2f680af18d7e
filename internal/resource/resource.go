// Package resource implements faucet-to-sink resource allocation.
//
// A faucet produces typed resources, a sink consumes them. A resource is
// allocated to at most one sink at a time and its amount counts toward that
// sink until it is freed. Allocation is gated by ownership, type, per-sink
// limits and spatial overlap of the faucet and sink locations.
package resource

import (
	"errors"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/trigger"
)

// Type names a resource type. AnyType is compatible with every type.
type Type string

const AnyType Type = "any"

// Compatible reports whether a resource of type have satisfies want.
func Compatible(have, want Type) bool {
	return have == AnyType || want == AnyType || have == want
}

// AllocationKind says which stat a sink's amount feeds.
type AllocationKind uint8

const (
	NotAllocated AllocationKind = iota
	HealthIncrement
	RangeIncrement
)

func (k AllocationKind) String() string {
	switch k {
	case NotAllocated:
		return "not_allocated"
	case HealthIncrement:
		return "health_increment"
	case RangeIncrement:
		return "range_increment"
	default:
		return "unknown"
	}
}

// IDs are issued from one counter per flow and never reused.
type (
	FaucetID   uint64
	SinkID     uint64
	ResourceID uint64
)

var (
	ErrUnknownFaucet = errors.New("resource: unknown faucet")
	ErrInvalidAmount = errors.New("resource: amount must be positive")
	ErrInvalidSink   = errors.New("resource: sink needs an allocation kind")
)

// Resource is one unit produced by a faucet.
type Resource struct {
	ID     ResourceID     `json:"id"`
	Faucet FaucetID       `json:"faucet"`
	Sink   SinkID         `json:"sink,omitempty"`
	Type   Type           `json:"type"`
	Amount int            `json:"amount"`
	Kind   AllocationKind `json:"kind"`
	// Applied is set once the amount has been added to the sink.
	Applied bool `json:"applied"`
}

// Allocated reports whether the resource is held by a sink.
func (r Resource) Allocated() bool {
	return r.Sink != 0
}

// SinkConfig describes what a sink accepts and when.
type SinkConfig struct {
	Kind    AllocationKind
	Accepts Type
	// MaxAllocations caps successful allocations over the sink's lifetime.
	// Zero means unlimited.
	MaxAllocations int
	// MaxPerTurn caps allocations between counter resets. Zero means
	// unlimited.
	MaxPerTurn int
	// ApplyOn defers adding allocated amounts until that phase. None
	// applies immediately.
	ApplyOn trigger.Kind
	// ResetOn is the phase that clears the per-turn counter. None means
	// PlayerTurn.
	ResetOn trigger.Kind
}

func (c SinkConfig) resetPhase() trigger.Kind {
	if c.ResetOn == trigger.None {
		return trigger.PlayerTurn
	}
	return c.ResetOn
}

// FaucetState is a read-only view of a faucet.
type FaucetState struct {
	ID        FaucetID
	Owner     board.EntityRef
	Type      Type
	Amount    int
	Recycle   bool
	Resources []ResourceID
}

// SinkState is a read-only view of a sink.
type SinkState struct {
	ID        SinkID
	Owner     board.EntityRef
	Config    SinkConfig
	Amount    int
	Allocated []ResourceID
	PerTurn   int
	Lifetime  int
}

// Hooks are optional callbacks fired as allocations change.
type Hooks struct {
	OnAllocate func(r Resource)
	OnFree     func(r Resource)
	// OnAmount reports every change to a sink's applied amount.
	OnAmount func(sink SinkID, owner board.EntityRef, kind AllocationKind, delta int)
}
