package damage

import (
	"fmt"
	"math"
	"sort"
)

// Model evaluates builds for one weapon under one set of flags.
// It holds no mutable state and is safe for concurrent use.
type Model struct {
	weapon WeaponProfile
	flags  ConditionFlags
}

// NewModel validates the weapon and flags once so that repeated evaluations
// only check the modifier set.
func NewModel(weapon WeaponProfile, flags ConditionFlags) (*Model, error) {
	if err := ValidateWeapon(weapon); err != nil {
		return nil, err
	}
	if err := ValidateFlags(flags); err != nil {
		return nil, err
	}
	return &Model{weapon: weapon, flags: flags}, nil
}

func (m *Model) Weapon() WeaponProfile { return m.weapon }

func (m *Model) Flags() ConditionFlags { return m.flags }

// Evaluate computes the expected per-hit damage of the weapon with mods
// equipped. The input order of mods does not affect the result.
func (m *Model) Evaluate(mods []Modifier) (Result, error) {
	if err := ValidateSet(mods); err != nil {
		return Result{}, err
	}
	return evaluate(m.weapon, canonical(mods), m.flags), nil
}

// Evaluate is the one-shot form of Model.Evaluate.
func Evaluate(weapon WeaponProfile, mods []Modifier, flags ConditionFlags) (Result, error) {
	m, err := NewModel(weapon, flags)
	if err != nil {
		return Result{}, err
	}
	return m.Evaluate(mods)
}

func canonical(mods []Modifier) []Modifier {
	out := make([]Modifier, len(mods))
	copy(out, mods)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// accum collects the effects of one stat: additive values sum, multiplicative
// values compound, flat values are added after scaling.
type accum struct {
	add  float64
	mult float64
	flat float64
}

func newAccum() accum { return accum{mult: 1} }

func (a *accum) apply(mode Mode, v float64) {
	switch mode {
	case ModeMultiplicative:
		a.mult *= 1 + v
	case ModeFlat:
		a.flat += v
	default:
		a.add += v
	}
}

func (a accum) scale(base float64) float64 {
	return base*(1+a.add)*a.mult + a.flat
}

type stats struct {
	damage  accum
	types   map[DamageType]*accum
	crit    accum
	critDmg accum
	status  accum
	faction accum
	rate    accum
	contrib []Contribution
}

func collect(weapon WeaponProfile, mods []Modifier, flags ConditionFlags) stats {
	s := stats{
		damage:  newAccum(),
		types:   make(map[DamageType]*accum),
		crit:    newAccum(),
		critDmg: newAccum(),
		status:  newAccum(),
		faction: newAccum(),
		rate:    newAccum(),
	}
	for _, m := range mods {
		for _, e := range m.Effects {
			if e.WeaponTag != "" && !weapon.HasTag(e.WeaponTag) {
				continue
			}
			if e.Stat == StatFactionDamage && e.Faction != flags.TargetFaction {
				continue
			}
			v := e.Value
			if e.ScalesWithCombo {
				v *= flags.combo()
			}
			var a *accum
			switch e.Stat {
			case StatDamage:
				a = &s.damage
			case StatTypeDamage:
				a = s.types[e.Type]
				if a == nil {
					n := newAccum()
					a = &n
					s.types[e.Type] = a
				}
			case StatCritChance:
				a = &s.crit
			case StatCritDamage:
				a = &s.critDmg
			case StatStatusChance:
				a = &s.status
			case StatFactionDamage:
				a = &s.faction
			case StatFireRate:
				a = &s.rate
			default:
				continue
			}
			a.apply(e.Mode, v)
			mode := e.Mode
			if mode == "" {
				mode = ModeAdditive
			}
			s.contrib = append(s.contrib, Contribution{Stat: e.Stat, Type: e.Type, Modifier: m.Name, Value: v, Mode: mode})
		}
	}
	return s
}

func evaluate(weapon WeaponProfile, mods []Modifier, flags ConditionFlags) Result {
	s := collect(weapon, mods, flags)
	r := Result{Contributions: s.contrib}

	// Stage 1: per-type damage.
	baseTotal := weapon.BaseTotal()
	r.BaseMultiplier = (1 + s.damage.add) * s.damage.mult
	r.FlatDamage = s.damage.flat
	for _, t := range DamageTypes {
		base := weapon.Damage[t]
		a := newAccum()
		if p := s.types[t]; p != nil {
			a = *p
		}
		var d float64
		if t.Physical() {
			d = base*r.BaseMultiplier*(1+a.add)*a.mult + a.flat
		} else {
			d = (base+baseTotal*a.add)*r.BaseMultiplier*a.mult + a.flat
		}
		if d == 0 && base == 0 {
			continue
		}
		r.Categories = append(r.Categories, CategoryDamage{Type: t, Damage: d})
		r.Aggregated += d
	}
	r.Aggregated += r.FlatDamage

	// Stage 2: faction bonus on the aggregate.
	r.FactionMultiplier = 1
	if flags.TargetFaction != "" {
		r.FactionMultiplier = (1 + weapon.FactionDamage[flags.TargetFaction] + s.faction.add) * s.faction.mult
	}
	r.AfterFaction = r.Aggregated * r.FactionMultiplier

	// Status chance feeds both the synergy bonus and stage 5.
	r.StatusChance = math.Max(0, s.status.scale(weapon.StatusChance))

	// Stage 3: critical chance, multiplier and tiers.
	cc := weapon.CritChance*(1+s.crit.add)*s.crit.mult*flags.CritChanceArcane.Value() + s.crit.flat + flags.FlatCritChance
	r.CritChance = math.Max(0, cc)
	if flags.Synergy.Active {
		r.SynergyBonus = flags.Synergy.Scale * r.StatusChance * r.Share(flags.Synergy.Type)
	}
	r.CritMultiplier = (s.critDmg.scale(weapon.CritMultiplier) + r.SynergyBonus) * flags.CritAmplifier.Value()
	r.CritTier, r.CritRemainder, r.EffectiveCritChance, r.ExpectedCritMul = resolveCrit(r.CritChance, r.CritMultiplier)

	// Stage 4: expected value over the crit roll.
	r.CritAdjusted = r.AfterFaction * (1 + (r.ExpectedCritMul-1)*r.EffectiveCritChance)

	// Stage 5: status damage, summed with the critical path.
	stacks := max(flags.Status.Stacks, 1)
	r.StatusDamage = r.StatusChance * flags.Status.ProcsPerHit * flags.Status.ProcDamage * float64(stacks) * r.AfterFaction

	// Stage 6: steady-state stacking arcane.
	if a := flags.Arcane; a.Active {
		r.ArcaneStacks = a.Stacks
		if a.Cap > 0 && r.ArcaneStacks > a.Cap {
			r.ArcaneStacks = a.Cap
		}
		switch a.Mode {
		case StackFlat:
			r.ArcaneBonus = a.PerStack * float64(r.ArcaneStacks)
		default:
			r.ArcaneBonus = (r.CritAdjusted + r.StatusDamage) * a.PerStack * float64(r.ArcaneStacks)
		}
	}

	r.Total = r.CritAdjusted + r.StatusDamage + r.ArcaneBonus
	r.FireRate = math.Max(0, s.rate.scale(weapon.FireRate))
	r.PerSecond = r.Total * r.FireRate
	return r
}

// resolveCrit splits the crit chance into a guaranteed tier and the chance of
// reaching the next one. Tier k multiplies damage by 1 + k*(cd-1).
//
// Below 100% the hit crits with probability cc at tier 1. From 100% on every
// hit crits, and the multiplier is the remainder-weighted average of the
// guaranteed tier and the next.
func resolveCrit(cc, cd float64) (tier int, rem, effective, expected float64) {
	tierMul := func(k int) float64 { return 1 + float64(k)*(cd-1) }

	tier = int(math.Floor(cc))
	rem = cc - float64(tier)
	if tier == 0 {
		effective = rem
		expected = tierMul(1)
	} else {
		effective = 1
		expected = (1-rem)*tierMul(tier) + rem*tierMul(tier+1)
	}
	if tier < 0 || rem < 0 || rem >= 1 || effective < 0 || effective > 1 || math.IsNaN(expected) {
		panic(fmt.Sprintf("damage: crit resolution out of range (cc=%v tier=%d rem=%v effective=%v)", cc, tier, rem, effective))
	}
	return tier, rem, effective, expected
}
