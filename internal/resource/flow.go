package resource

import (
	"fmt"
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/trigger"
)

type faucet struct {
	FaucetState
	locations grid.Shape
}

type sink struct {
	SinkState
	locations grid.Shape
	pending   []ResourceID
}

// Flow owns every faucet, sink and resource. It is not safe for concurrent
// use.
type Flow struct {
	Hooks Hooks

	nextID    uint64
	faucets   map[FaucetID]*faucet
	sinks     map[SinkID]*sink
	resources map[ResourceID]*Resource
}

var _ trigger.Subscriber = (*Flow)(nil)

// NewFlow returns an empty flow.
func NewFlow() *Flow {
	return &Flow{
		faucets:   make(map[FaucetID]*faucet),
		sinks:     make(map[SinkID]*sink),
		resources: make(map[ResourceID]*Resource),
	}
}

func (f *Flow) issue() uint64 {
	f.nextID++
	return f.nextID
}

// Attach subscribes the flow to every phase so deferred amounts are applied
// and per-turn counters reset.
func (f *Flow) Attach(bus *trigger.Bus) {
	for _, k := range trigger.Phases() {
		bus.Subscribe(k, f)
	}
}

// AddFaucet creates a faucet producing resources of typ worth amount each.
// A recycling faucet keeps freed resources for reuse; otherwise freeing
// destroys them.
func (f *Flow) AddFaucet(owner board.EntityRef, typ Type, amount int, recycle bool) (FaucetID, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("add faucet: %w", ErrInvalidAmount)
	}
	id := FaucetID(f.issue())
	f.faucets[id] = &faucet{
		FaucetState: FaucetState{ID: id, Owner: owner, Type: typ, Amount: amount, Recycle: recycle},
		locations:   make(grid.Shape),
	}
	return id, nil
}

// AddSink creates a sink for owner.
func (f *Flow) AddSink(owner board.EntityRef, cfg SinkConfig) (SinkID, error) {
	if cfg.Kind == NotAllocated {
		return 0, fmt.Errorf("add sink: %w", ErrInvalidSink)
	}
	if cfg.Accepts == "" {
		cfg.Accepts = AnyType
	}
	id := SinkID(f.issue())
	f.sinks[id] = &sink{
		SinkState: SinkState{ID: id, Owner: owner, Config: cfg},
		locations: make(grid.Shape),
	}
	return id, nil
}

// SetFaucetLocations replaces the cells a faucet can reach.
func (f *Flow) SetFaucetLocations(id FaucetID, locations grid.Shape) bool {
	fc, ok := f.faucets[id]
	if !ok {
		return false
	}
	fc.locations = locations.Clone()
	return true
}

// SetSinkLocations replaces the cells a sink occupies.
func (f *Flow) SetSinkLocations(id SinkID, locations grid.Shape) bool {
	s, ok := f.sinks[id]
	if !ok {
		return false
	}
	s.locations = locations.Clone()
	return true
}

// CreateResource returns a free resource of faucet, reusing an unallocated
// one when available.
func (f *Flow) CreateResource(id FaucetID) (ResourceID, error) {
	fc, ok := f.faucets[id]
	if !ok {
		return 0, fmt.Errorf("create resource from faucet %d: %w", id, ErrUnknownFaucet)
	}
	for _, rid := range fc.Resources {
		if !f.resources[rid].Allocated() {
			return rid, nil
		}
	}
	rid := ResourceID(f.issue())
	f.resources[rid] = &Resource{ID: rid, Faucet: id, Type: fc.Type, Amount: fc.Amount}
	fc.Resources = append(fc.Resources, rid)
	return rid, nil
}

// CanAllocate reports whether res may be allocated to sinkID now.
func (f *Flow) CanAllocate(res ResourceID, sinkID SinkID) bool {
	r, ok := f.resources[res]
	if !ok || r.Allocated() {
		return false
	}
	s, ok := f.sinks[sinkID]
	if !ok {
		return false
	}
	fc := f.faucets[r.Faucet]
	if !fc.Owner.IsZero() && fc.Owner == s.Owner {
		return false
	}
	if !Compatible(r.Type, s.Config.Accepts) {
		return false
	}
	if s.Config.MaxAllocations > 0 && s.Lifetime >= s.Config.MaxAllocations {
		return false
	}
	if s.Config.MaxPerTurn > 0 && s.PerTurn >= s.Config.MaxPerTurn {
		return false
	}
	return fc.locations.Intersects(s.locations)
}

// Allocate binds res to sinkID. It returns false, changing nothing, when
// CanAllocate would.
func (f *Flow) Allocate(res ResourceID, sinkID SinkID) bool {
	if !f.CanAllocate(res, sinkID) {
		return false
	}
	r := f.resources[res]
	s := f.sinks[sinkID]

	r.Sink = sinkID
	r.Kind = s.Config.Kind
	s.Allocated = append(s.Allocated, res)
	s.PerTurn++
	s.Lifetime++

	if f.Hooks.OnAllocate != nil {
		f.Hooks.OnAllocate(*r)
	}
	if s.Config.ApplyOn == trigger.None {
		f.apply(r, s)
	} else {
		s.pending = append(s.pending, res)
	}
	return true
}

func (f *Flow) apply(r *Resource, s *sink) {
	r.Applied = true
	s.Amount += r.Amount
	if f.Hooks.OnAmount != nil {
		f.Hooks.OnAmount(s.ID, s.Owner, s.Config.Kind, r.Amount)
	}
}

// Free releases an allocated resource. Freeing a resource that is not
// allocated is a programming error and panics.
func (f *Flow) Free(res ResourceID) {
	r, ok := f.resources[res]
	if !ok || !r.Allocated() {
		panic(fmt.Sprintf("resource: free of unallocated resource %d", res))
	}
	s := f.sinks[r.Sink]
	s.Allocated = removeID(s.Allocated, res)
	s.pending = removeID(s.pending, res)
	if r.Applied {
		s.Amount -= r.Amount
		if f.Hooks.OnAmount != nil {
			f.Hooks.OnAmount(s.ID, s.Owner, s.Config.Kind, -r.Amount)
		}
	}

	r.Sink = 0
	r.Kind = NotAllocated
	r.Applied = false
	if f.Hooks.OnFree != nil {
		f.Hooks.OnFree(*r)
	}

	fc := f.faucets[r.Faucet]
	if !fc.Recycle {
		fc.Resources = removeID(fc.Resources, res)
		delete(f.resources, res)
	}
}

// RemoveFaucet frees and destroys every resource of the faucet, then the
// faucet itself.
func (f *Flow) RemoveFaucet(id FaucetID) bool {
	fc, ok := f.faucets[id]
	if !ok {
		return false
	}
	for _, rid := range slices.Clone(fc.Resources) {
		if r, ok := f.resources[rid]; ok && r.Allocated() {
			f.Free(rid)
		}
		delete(f.resources, rid)
	}
	delete(f.faucets, id)
	return true
}

// RemoveSink frees everything allocated to the sink, then removes it.
func (f *Flow) RemoveSink(id SinkID) bool {
	s, ok := f.sinks[id]
	if !ok {
		return false
	}
	for _, rid := range slices.Clone(s.Allocated) {
		f.Free(rid)
	}
	delete(f.sinks, id)
	return true
}

// RemoveOwnedBy removes every faucet and sink owned by owner and returns
// how many were removed.
func (f *Flow) RemoveOwnedBy(owner board.EntityRef) int {
	n := 0
	for _, id := range f.SinksOwnedBy(owner) {
		if f.RemoveSink(id) {
			n++
		}
	}
	for _, id := range f.FaucetsOwnedBy(owner) {
		if f.RemoveFaucet(id) {
			n++
		}
	}
	return n
}

// OnTrigger applies deferred amounts and resets per-turn counters for the
// sinks configured for t's phase.
func (f *Flow) OnTrigger(t trigger.Trigger) {
	if t.Kind.Family() != trigger.FamilyPhase {
		return
	}
	for _, id := range sortedKeys(f.sinks) {
		s := f.sinks[id]
		if s.Config.ApplyOn == t.Kind {
			pending := s.pending
			s.pending = nil
			for _, rid := range pending {
				f.apply(f.resources[rid], s)
			}
		}
		if s.Config.resetPhase() == t.Kind {
			s.PerTurn = 0
		}
	}
}

// Resource returns a copy of res.
func (f *Flow) Resource(res ResourceID) (Resource, bool) {
	r, ok := f.resources[res]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// Faucet returns a view of the faucet.
func (f *Flow) Faucet(id FaucetID) (FaucetState, bool) {
	fc, ok := f.faucets[id]
	if !ok {
		return FaucetState{}, false
	}
	out := fc.FaucetState
	out.Resources = slices.Clone(fc.Resources)
	return out, true
}

// Sink returns a view of the sink.
func (f *Flow) Sink(id SinkID) (SinkState, bool) {
	s, ok := f.sinks[id]
	if !ok {
		return SinkState{}, false
	}
	out := s.SinkState
	out.Allocated = slices.Clone(s.Allocated)
	return out, true
}

// SinksOwnedBy returns the sinks of owner in creation order.
func (f *Flow) SinksOwnedBy(owner board.EntityRef) []SinkID {
	var out []SinkID
	for _, id := range sortedKeys(f.sinks) {
		if f.sinks[id].Owner == owner {
			out = append(out, id)
		}
	}
	return out
}

// FaucetsOwnedBy returns the faucets of owner in creation order.
func (f *Flow) FaucetsOwnedBy(owner board.EntityRef) []FaucetID {
	var out []FaucetID
	for _, id := range sortedKeys(f.faucets) {
		if f.faucets[id].Owner == owner {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the number of faucets, sinks and live resources.
func (f *Flow) Counts() (faucets, sinks, resources int) {
	return len(f.faucets), len(f.sinks), len(f.resources)
}

func removeID[T comparable](ids []T, id T) []T {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

func sortedKeys[K ~uint64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
