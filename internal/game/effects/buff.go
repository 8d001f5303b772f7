package effects

import "fmt"

// GlobalOwner is the owner id of buffs that apply to every entity.
const GlobalOwner = -1

// Property is the name of a combat statistic.
type Property string

const (
	MaxHP          Property = "max_hp"
	Attack         Property = "atk"
	Defense        Property = "def"
	Speed          Property = "spd"
	Critical       Property = "cri"
	CriticalDamage Property = "cri_dmg"
	EffectHit      Property = "eft_hit"
	EffectResist   Property = "eft_res"
	DamageDealtUp  Property = "dmg_dealt_buff"
	DamageDealtDn  Property = "dmg_dealt_debuff"
	DamageTakenUp  Property = "dmg_taken_buff"
	DamageTakenDn  Property = "dmg_taken_debuff"
	DefenseIgnore  Property = "def_neg"
	DefenseIgnoreP Property = "def_neg_p"
	HpSteal        Property = "hp_steal"
)

// Properties lists every recognised property in canonical order.
var Properties = []Property{
	MaxHP, Attack, Defense, Speed, Critical, CriticalDamage, EffectHit,
	EffectResist, DamageDealtUp, DamageDealtDn, DamageTakenUp, DamageTakenDn,
	DefenseIgnore, DefenseIgnoreP, HpSteal,
}

// IsProperty reports whether name is a recognised property.
func IsProperty(name Property) bool {
	for _, p := range Properties {
		if p == name {
			return true
		}
	}
	return false
}

// EffectKind selects how an effect combines with the running value.
type EffectKind int

const (
	// FixedAdd adds the magnitude.
	FixedAdd EffectKind = iota + 1
	// Set replaces the running value.
	Set
	// RateOfBase adds magnitude times the unmodified base value.
	RateOfBase
	// ClampMax raises the running value to at least the magnitude.
	ClampMax
	// ClampMin lowers the running value to at most the magnitude.
	ClampMin
)

func (k EffectKind) String() string {
	switch k {
	case FixedAdd:
		return "FIXED"
	case Set:
		return "SET"
	case RateOfBase:
		return "ADD_RATE"
	case ClampMax:
		return "MAX"
	case ClampMin:
		return "MIN"
	default:
		return fmt.Sprintf("KIND_%d", int(k))
	}
}

// Effect is the property modification a buff carries.
type Effect struct {
	Property Property
	Kind     EffectKind
	Value    float64
}

// Apply folds the effect into current. base is the unmodified value.
func (e Effect) Apply(current, base float64) float64 {
	switch e.Kind {
	case FixedAdd:
		return current + e.Value
	case Set:
		return e.Value
	case RateOfBase:
		return current + base*e.Value
	case ClampMax:
		if e.Value > current {
			return e.Value
		}
		return current
	case ClampMin:
		if e.Value < current {
			return e.Value
		}
		return current
	default:
		return current
	}
}

// Param is a capability flag of a buff.
type Param uint16

const (
	ParamAffectProperty Param = 1 << iota
	ParamControl
	ParamProbability
	ParamDependOn
	ParamEnchantment
	ParamCountDownBySource
	ParamBuff
	ParamDebuff
)

// Control is the kind of control a control buff imposes.
type Control int

const (
	ControlNone Control = iota
	ControlEquipmentSeal
	ControlPassiveSeal
	ControlConfusion
	ControlDizzy
	ControlFrozen
	ControlImprisonment
	ControlPolymorph
	ControlProvoke
	ControlSilence
	ControlSleep
	ControlTaunt
)

var controlNames = [...]string{
	"NONE", "EQUIPMENT_SEAL", "PASSIVE_SEAL", "CONFUSION", "DIZZY", "FROZEN",
	"IMPRISONMENT", "POLYMORPH", "PROVOKE", "SILENCE", "SLEEP", "TAUNT",
}

func (c Control) String() string {
	if c >= 0 && int(c) < len(controlNames) {
		return controlNames[c]
	}
	return fmt.Sprintf("CONTROL_%d", int(c))
}

// Incapacitating lists the controls that stop an entity from acting.
var Incapacitating = []Control{ControlFrozen, ControlDizzy, ControlSleep, ControlPolymorph}

// BuffRef names a buff by owner and name.
type BuffRef struct {
	OwnerID int
	Name    string
}

// Buff is a timed or conditional modifier attached to an entity or to the
// whole battle. Buffs are compared by identity; ID is assigned when the buff
// first enters a Collection and is only used for display and checksums.
type Buff struct {
	ID          int
	OwnerID     int
	SourceID    int
	Name        string
	MaxCount    int
	CountDown   int
	Params      Param
	Control     Control
	Effect      *Effect
	Probability float64
	DependsOn   BuffRef
}

// Has reports whether all of params are set.
func (b *Buff) Has(params Param) bool {
	return b.Params&params == params
}

// IsGlobal reports whether the buff applies to every entity.
func (b *Buff) IsGlobal() bool {
	return b.OwnerID == GlobalOwner
}

// IsControl reports whether the buff imposes one of controls.
func (b *Buff) IsControl(controls ...Control) bool {
	if !b.Has(ParamControl) || b.Control == ControlNone {
		return false
	}
	for _, c := range controls {
		if b.Control == c {
			return true
		}
	}
	return false
}

func (b *Buff) String() string {
	return fmt.Sprintf("%s#%d(owner=%d,source=%d)", b.Name, b.ID, b.OwnerID, b.SourceID)
}
