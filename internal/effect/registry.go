package effect

import (
	"errors"
	"fmt"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/trigger"
)

var (
	ErrNoVariant      = errors.New("effect: config has no variant")
	ErrInvalidTrigger = errors.New("effect: trigger kind cannot drive an effect")
	ErrInvalidVariant = errors.New("effect: invalid variant")
)

// ID is a generational handle to a registered effect. The zero value never
// names an effect.
type ID struct {
	Index uint32
	Gen   uint32
}

func (id ID) String() string {
	return fmt.Sprintf("effect#%d.%d", id.Index, id.Gen)
}

type registrySlot struct {
	gen    uint32
	effect *Effect
}

// Registry owns effects and keeps their bus subscriptions in step with
// their lifetime.
type Registry struct {
	bus   *trigger.Bus
	env   *Env
	slots []registrySlot
	free  []uint32
	live  int
}

// NewRegistry creates a registry whose effects subscribe to bus and act
// through env.
func NewRegistry(bus *trigger.Bus, env *Env) *Registry {
	if env == nil {
		env = &Env{}
	}
	return &Registry{bus: bus, env: env}
}

// Env returns the collaborators shared by every effect.
func (r *Registry) Env() *Env {
	return r.env
}

// Register validates cfg, creates the effect and subscribes it to every
// kind it activates or deactivates on.
func (r *Registry) Register(cfg Config) (ID, error) {
	if cfg.Variant == nil {
		return ID{}, ErrNoVariant
	}
	// The accumulator clamps at zero, so only positive sources retire exactly.
	if v, ok := cfg.Variant.(ApplyField); ok && v.Strength <= 0 {
		return ID{}, fmt.Errorf("register %s: %w: strength %d", cfg.Variant, ErrInvalidVariant, v.Strength)
	}
	kinds := make([]trigger.Kind, 0, len(cfg.ActivateOn)+len(cfg.DeactivateOn))
	kinds = append(kinds, cfg.ActivateOn...)
	kinds = append(kinds, cfg.DeactivateOn...)
	for _, k := range kinds {
		if k.Family() == trigger.FamilyNone {
			return ID{}, fmt.Errorf("register %s: %w: %v", cfg.Variant, ErrInvalidTrigger, k)
		}
	}
	cfg.Footprint = cfg.Footprint.Clone()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, registrySlot{})
	}
	s := &r.slots[idx]
	s.gen++
	id := ID{Index: idx, Gen: s.gen}
	s.effect = newEffect(id, cfg, r.env)
	r.live++

	if r.bus != nil {
		for _, k := range kinds {
			r.bus.Subscribe(k, s.effect)
		}
	}
	return id, nil
}

// Get returns the effect named by id.
func (r *Registry) Get(id ID) (*Effect, bool) {
	if id.Gen == 0 || int(id.Index) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[id.Index]
	if s.gen != id.Gen || s.effect == nil {
		return nil, false
	}
	return s.effect, true
}

// Unregister destroys the effect, reversing what it holds, and drops its
// subscriptions. Stale ids are ignored.
func (r *Registry) Unregister(id ID) bool {
	e, ok := r.Get(id)
	if !ok {
		return false
	}
	e.Destroy()
	if r.bus != nil {
		r.bus.UnsubscribeAll(e)
	}
	r.slots[id.Index].effect = nil
	r.free = append(r.free, id.Index)
	r.live--
	return true
}

// OwnedBy returns the effects of owner in slot order.
func (r *Registry) OwnedBy(owner board.EntityRef) []ID {
	var out []ID
	for _, e := range r.Effects() {
		if e.Owner() == owner {
			out = append(out, e.id)
		}
	}
	return out
}

// UnregisterOwnedBy unregisters every effect of owner and returns how many
// were removed.
func (r *Registry) UnregisterOwnedBy(owner board.EntityRef) int {
	n := 0
	for _, id := range r.OwnedBy(owner) {
		if r.Unregister(id) {
			n++
		}
	}
	return n
}

// Effects returns the live effects in slot order.
func (r *Registry) Effects() []*Effect {
	out := make([]*Effect, 0, r.live)
	for _, s := range r.slots {
		if s.effect != nil {
			out = append(out, s.effect)
		}
	}
	return out
}

// Len returns the number of live effects.
func (r *Registry) Len() int {
	return r.live
}
