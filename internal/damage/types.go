package damage

import "errors"

// ErrConfig marks malformed weapon, modifier or flag data.
// Every validation error in this module wraps it.
var ErrConfig = errors.New("configuration error")

type DamageType string

const (
	Impact   DamageType = "impact"
	Puncture DamageType = "puncture"
	Slash    DamageType = "slash"

	Heat        DamageType = "heat"
	Cold        DamageType = "cold"
	Electricity DamageType = "electricity"
	Toxin       DamageType = "toxin"
	Blast       DamageType = "blast"
	Corrosive   DamageType = "corrosive"
	Gas         DamageType = "gas"
	Magnetic    DamageType = "magnetic"
	Radiation   DamageType = "radiation"
	Viral       DamageType = "viral"
)

// DamageTypes lists every supported type in reporting order.
var DamageTypes = []DamageType{
	Impact, Puncture, Slash,
	Heat, Cold, Electricity, Toxin,
	Blast, Corrosive, Gas, Magnetic, Radiation, Viral,
}

func (t DamageType) Physical() bool {
	return t == Impact || t == Puncture || t == Slash
}

func (t DamageType) Valid() bool {
	for _, d := range DamageTypes {
		if d == t {
			return true
		}
	}
	return false
}

type Stat string

const (
	StatDamage        Stat = "damage"
	StatTypeDamage    Stat = "type_damage"
	StatCritChance    Stat = "crit_chance"
	StatCritDamage    Stat = "crit_damage"
	StatStatusChance  Stat = "status_chance"
	StatFactionDamage Stat = "faction_damage"
	StatFireRate      Stat = "fire_rate"
)

// Mode selects how an effect value combines with others of the same stat.
type Mode string

const (
	// ModeAdditive values are summed with every other additive value of the
	// same stat, then applied once as (1 + sum) to the base.
	ModeAdditive Mode = "additive"
	// ModeMultiplicative values each contribute their own (1 + v) factor.
	ModeMultiplicative Mode = "multiplicative"
	// ModeFlat values are added as-is after scaling.
	ModeFlat Mode = "flat"
)

// WeaponProfile is the unmodded weapon. Treat it as read-only once built.
type WeaponProfile struct {
	Name           string
	Damage         map[DamageType]float64
	CritChance     float64
	CritMultiplier float64
	StatusChance   float64
	FireRate       float64
	Tags           []string
	// FactionDamage is innate bonus damage against a faction (0.5 = +50%).
	FactionDamage map[string]float64
}

// BaseTotal sums the base damage over all types.
func (w WeaponProfile) BaseTotal() float64 {
	total := 0.0
	for _, t := range DamageTypes {
		total += w.Damage[t]
	}
	return total
}

func (w WeaponProfile) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Effect struct {
	Stat Stat
	// Type is the damage type for StatTypeDamage.
	Type DamageType
	// Faction is the target faction for StatFactionDamage.
	Faction string
	Value   float64
	Mode    Mode
	// ScalesWithCombo multiplies Value by ConditionFlags.ComboMultiplier.
	ScalesWithCombo bool
	// WeaponTag restricts the effect to weapons carrying the tag.
	WeaponTag string
}

type Modifier struct {
	Name    string
	Effects []Effect
	Cost    int
	// ExclusionGroup names the set of alternatives this modifier belongs to.
	// At most one member of a group may be equipped.
	ExclusionGroup string
	Fixed          bool
}

type Multiplier struct {
	Active     bool
	Multiplier float64
}

// Value returns the multiplier, or 1 when inactive.
func (m Multiplier) Value() float64 {
	if !m.Active {
		return 1
	}
	return m.Multiplier
}

// StatusCritSynergy grants critical damage proportional to status chance and
// to the share of one damage type in the aggregated hit.
type StatusCritSynergy struct {
	Active bool
	Scale  float64
	Type   DamageType
}

type StatusAssumption struct {
	ProcsPerHit float64
	// ProcDamage is the damage of one proc as a fraction of the
	// faction-adjusted hit.
	ProcDamage float64
	Stacks     int
}

type StackMode string

const (
	StackPercent StackMode = "percent"
	StackFlat    StackMode = "flat"
)

// StackingArcane models a bonus that accumulates per hit or kill. The model
// uses a steady-state stack count instead of simulating the build-up.
type StackingArcane struct {
	Active   bool
	PerStack float64
	Stacks   int
	// Cap of 0 means uncapped.
	Cap  int
	Mode StackMode
}

// ConditionFlags holds the combat assumptions of one optimization run.
type ConditionFlags struct {
	TargetFaction    string
	ComboMultiplier  float64
	CritAmplifier    Multiplier
	CritChanceArcane Multiplier
	FlatCritChance   float64
	Synergy          StatusCritSynergy
	Status           StatusAssumption
	Arcane           StackingArcane
}

func (f ConditionFlags) combo() float64 {
	if f.ComboMultiplier == 0 {
		return 1
	}
	return f.ComboMultiplier
}

// Contribution records one effect value for breakdown reporting.
type Contribution struct {
	Stat     Stat
	Type     DamageType
	Modifier string
	Value    float64
	Mode     Mode
}

type CategoryDamage struct {
	Type   DamageType
	Damage float64
}

// Result is the per-hit outcome of one build. Total is the ranking key.
type Result struct {
	BaseMultiplier float64
	Categories     []CategoryDamage
	FlatDamage     float64
	// Aggregated is the stage-1 hit: categories plus flat damage.
	Aggregated float64

	FactionMultiplier float64
	AfterFaction      float64

	CritChance          float64
	CritTier            int
	CritRemainder       float64
	EffectiveCritChance float64
	CritMultiplier      float64
	SynergyBonus        float64
	ExpectedCritMul     float64
	CritAdjusted        float64

	StatusChance float64
	StatusDamage float64

	ArcaneStacks int
	ArcaneBonus  float64

	Total     float64
	FireRate  float64
	PerSecond float64

	Contributions []Contribution
}

// Category returns the stage-1 damage of one type.
func (r Result) Category(t DamageType) float64 {
	for _, c := range r.Categories {
		if c.Type == t {
			return c.Damage
		}
	}
	return 0
}

// Share returns the fraction of the aggregated hit dealt as type t.
func (r Result) Share(t DamageType) float64 {
	if r.Aggregated == 0 {
		return 0
	}
	return r.Category(t) / r.Aggregated
}

// ContributionsFor filters contributions by stat.
func (r Result) ContributionsFor(stat Stat) []Contribution {
	var out []Contribution
	for _, c := range r.Contributions {
		if c.Stat == stat {
			out = append(out, c)
		}
	}
	return out
}
