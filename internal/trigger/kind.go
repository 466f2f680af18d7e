// Package trigger defines the phase cycle and the event bus that drives
// every effect in the simulation.
package trigger

// Kind enumerates trigger types. Kinds fall into three families: phases
// advance the turn cycle, local triggers concern one owner, and global
// triggers report board changes at a set of locations.
type Kind uint8

const (
	// None is the zero kind. It is never broadcast.
	None Kind = iota

	// Phases, in cycle order.
	NonPlayerTurn
	PlantActive
	Damage
	TrashActive
	Spawn
	Growth
	PlayerTurn

	// Local.
	Activated
	Deactivated

	// Global.
	EntitySpawned
	EntityKilled
	EntitySpawnedOther
	EntityRemoved

	kindCount
)

// Family groups trigger kinds by how they are raised and filtered.
type Family uint8

const (
	FamilyNone Family = iota
	FamilyPhase
	FamilyLocal
	FamilyGlobal
)

var kindNames = [kindCount]string{
	None:               "None",
	NonPlayerTurn:      "NonPlayerTurn",
	PlantActive:        "PlantActive",
	Damage:             "Damage",
	TrashActive:        "TrashActive",
	Spawn:              "Spawn",
	Growth:             "Growth",
	PlayerTurn:         "PlayerTurn",
	Activated:          "Activated",
	Deactivated:        "Deactivated",
	EntitySpawned:      "EntitySpawned",
	EntityKilled:       "EntityKilled",
	EntitySpawnedOther: "EntitySpawnedOther",
	EntityRemoved:      "EntityRemoved",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// Family returns the family k belongs to.
func (k Kind) Family() Family {
	switch {
	case k >= NonPlayerTurn && k <= PlayerTurn:
		return FamilyPhase
	case k == Activated || k == Deactivated:
		return FamilyLocal
	case k >= EntitySpawned && k <= EntityRemoved:
		return FamilyGlobal
	default:
		return FamilyNone
	}
}

// NextPhase returns the phase after k, wrapping PlayerTurn back to
// NonPlayerTurn. Non-phase kinds yield NonPlayerTurn.
func (k Kind) NextPhase() Kind {
	if k.Family() != FamilyPhase || k == PlayerTurn {
		return NonPlayerTurn
	}
	return k + 1
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for k := NonPlayerTurn; k < kindCount; k++ {
		if kindNames[k] == s {
			return k, true
		}
	}
	return None, false
}

// Phases returns the phase kinds in cycle order.
func Phases() []Kind {
	return []Kind{NonPlayerTurn, PlantActive, Damage, TrashActive, Spawn, Growth, PlayerTurn}
}

// PhaseCount is the number of phases in one cycle.
const PhaseCount = 7
