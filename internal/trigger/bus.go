package trigger

import (
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/grid"
)

// Trigger is one broadcast event. Owner is set for local triggers, Causer
// and Locations for global ones. CauserKind is optional and lets
// subscribers filter on a causer that has already left the board.
type Trigger struct {
	Kind       Kind
	Cycle      uint64
	Owner      board.EntityRef
	Causer     board.EntityRef
	CauserKind board.Kind
	Locations  grid.Shape
}

// Subscriber receives the triggers it registered for.
type Subscriber interface {
	OnTrigger(t Trigger)
}

// Bus tracks the current phase and fans triggers out to subscribers.
//
// Delivery is synchronous and follows registration order. Each broadcast
// iterates a snapshot of the subscriber list, so subscriptions made or
// dropped while a broadcast is running take effect from the next one.
// Triggers fired from inside a broadcast are queued and delivered, in
// order, once the outermost broadcast has finished.
type Bus struct {
	current    Kind
	playerTurn bool
	cycle      uint64

	subscribers [kindCount][]Subscriber
	observers   []func(Trigger)

	depth   int
	pending []Trigger
}

// NewBus returns a bus parked on PlayerTurn at cycle zero, so the first
// AdvancePhase starts cycle one at NonPlayerTurn.
func NewBus() *Bus {
	return &Bus{current: PlayerTurn, playerTurn: true}
}

// Current returns the phase most recently entered.
func (b *Bus) Current() Kind {
	return b.current
}

// IsPlayerTurn reports whether the bus is parked on PlayerTurn.
func (b *Bus) IsPlayerTurn() bool {
	return b.playerTurn
}

// Cycle returns the number of cycles started so far.
func (b *Bus) Cycle() uint64 {
	return b.cycle
}

// Subscribe registers s for kind. Registering the same subscriber twice for
// one kind is a no-op.
func (b *Bus) Subscribe(kind Kind, s Subscriber) {
	if kind == None || kind >= kindCount || s == nil {
		return
	}
	if slices.Contains(b.subscribers[kind], s) {
		return
	}
	b.subscribers[kind] = append(b.subscribers[kind], s)
}

// Unsubscribe removes s from kind.
func (b *Bus) Unsubscribe(kind Kind, s Subscriber) {
	if kind >= kindCount {
		return
	}
	list := b.subscribers[kind]
	if i := slices.Index(list, s); i >= 0 {
		b.subscribers[kind] = slices.Delete(slices.Clone(list), i, i+1)
	}
}

// UnsubscribeAll removes s from every kind.
func (b *Bus) UnsubscribeAll(s Subscriber) {
	for k := range b.subscribers {
		b.Unsubscribe(Kind(k), s)
	}
}

// SubscriberCount returns the number of subscribers registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	if kind >= kindCount {
		return 0
	}
	return len(b.subscribers[kind])
}

// Observe registers fn to see every trigger before its subscribers do.
func (b *Bus) Observe(fn func(Trigger)) {
	if fn != nil {
		b.observers = append(b.observers, fn)
	}
}

// AdvancePhase moves to the next phase and broadcasts it. Wrapping from
// PlayerTurn to NonPlayerTurn starts a new cycle.
func (b *Bus) AdvancePhase() Trigger {
	next := b.current.NextPhase()
	if next == NonPlayerTurn {
		b.cycle++
	}
	b.current = next
	b.playerTurn = next == PlayerTurn
	t := Trigger{Kind: next, Cycle: b.cycle}
	b.fire(t)
	return t
}

// FireLocal broadcasts a local trigger for owner. It returns false without
// broadcasting when kind is not local.
func (b *Bus) FireLocal(kind Kind, owner board.EntityRef) bool {
	if kind.Family() != FamilyLocal {
		return false
	}
	return b.Emit(Trigger{Kind: kind, Owner: owner})
}

// FireGlobal broadcasts a global trigger. It returns false without
// broadcasting when kind is not global.
func (b *Bus) FireGlobal(kind Kind, causer board.EntityRef, locations grid.Shape) bool {
	if kind.Family() != FamilyGlobal {
		return false
	}
	return b.Emit(Trigger{Kind: kind, Causer: causer, Locations: locations})
}

// Emit broadcasts a local or global trigger stamped with the current cycle.
// Phases can only be entered through AdvancePhase, so phase kinds are
// rejected.
func (b *Bus) Emit(t Trigger) bool {
	switch t.Kind.Family() {
	case FamilyLocal, FamilyGlobal:
	default:
		return false
	}
	t.Cycle = b.cycle
	t.Locations = t.Locations.Clone()
	b.fire(t)
	return true
}

func (b *Bus) fire(t Trigger) {
	if b.depth > 0 {
		b.pending = append(b.pending, t)
		return
	}
	b.broadcast(t)
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		b.broadcast(next)
	}
}

func (b *Bus) broadcast(t Trigger) {
	b.depth++
	defer func() { b.depth-- }()

	for _, fn := range b.observers {
		fn(t)
	}
	// The slice header is copied here; Subscribe appends and Unsubscribe
	// clones, so the backing array seen by this loop is never rewritten.
	for _, s := range b.subscribers[t.Kind] {
		s.OnTrigger(t)
	}
}
