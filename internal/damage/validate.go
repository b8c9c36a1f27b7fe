package damage

import (
	"fmt"
	"math"
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ValidateWeapon(w WeaponProfile) error {
	for t, v := range w.Damage {
		if !t.Valid() {
			return configErrorf("weapon %q: unknown damage type %q", w.Name, t)
		}
		if !finite(v) || v < 0 {
			return configErrorf("weapon %q: %s damage must be a non-negative number, got %v", w.Name, t, v)
		}
	}
	if w.BaseTotal() <= 0 {
		return configErrorf("weapon %q: base damage must be positive", w.Name)
	}
	if !finite(w.CritChance) || w.CritChance < 0 {
		return configErrorf("weapon %q: crit_chance must be >= 0, got %v", w.Name, w.CritChance)
	}
	if !finite(w.CritMultiplier) || w.CritMultiplier < 1 {
		return configErrorf("weapon %q: crit_multiplier must be >= 1, got %v", w.Name, w.CritMultiplier)
	}
	if !finite(w.StatusChance) || w.StatusChance < 0 {
		return configErrorf("weapon %q: status_chance must be >= 0, got %v", w.Name, w.StatusChance)
	}
	if !finite(w.FireRate) || w.FireRate < 0 {
		return configErrorf("weapon %q: fire_rate must be >= 0, got %v", w.Name, w.FireRate)
	}
	for faction, v := range w.FactionDamage {
		if faction == "" {
			return configErrorf("weapon %q: faction_damage has an empty faction", w.Name)
		}
		if !finite(v) {
			return configErrorf("weapon %q: faction_damage[%s] is not a finite number", w.Name, faction)
		}
	}
	return nil
}

func validateMultiplier(name string, m Multiplier) error {
	if !m.Active {
		return nil
	}
	if !finite(m.Multiplier) || m.Multiplier <= 0 {
		return configErrorf("flags.%s: multiplier must be > 0, got %v", name, m.Multiplier)
	}
	return nil
}

func ValidateFlags(f ConditionFlags) error {
	if !finite(f.ComboMultiplier) || (f.ComboMultiplier != 0 && f.ComboMultiplier < 1) {
		return configErrorf("flags.combo_multiplier must be >= 1, got %v", f.ComboMultiplier)
	}
	if err := validateMultiplier("crit_amplifier", f.CritAmplifier); err != nil {
		return err
	}
	if err := validateMultiplier("crit_chance_arcane", f.CritChanceArcane); err != nil {
		return err
	}
	if !finite(f.FlatCritChance) || f.FlatCritChance < 0 {
		return configErrorf("flags.flat_crit_chance must be >= 0, got %v", f.FlatCritChance)
	}
	if f.Synergy.Active {
		if !f.Synergy.Type.Valid() {
			return configErrorf("flags.status_crit_synergy: unknown damage type %q", f.Synergy.Type)
		}
		if !finite(f.Synergy.Scale) || f.Synergy.Scale < 0 {
			return configErrorf("flags.status_crit_synergy.scale must be >= 0, got %v", f.Synergy.Scale)
		}
	}
	s := f.Status
	if !finite(s.ProcsPerHit) || s.ProcsPerHit < 0 {
		return configErrorf("flags.status.procs_per_hit must be >= 0, got %v", s.ProcsPerHit)
	}
	if !finite(s.ProcDamage) || s.ProcDamage < 0 {
		return configErrorf("flags.status.proc_damage must be >= 0, got %v", s.ProcDamage)
	}
	if s.Stacks < 0 {
		return configErrorf("flags.status.stacks must be >= 0, got %d", s.Stacks)
	}
	if a := f.Arcane; a.Active {
		if !finite(a.PerStack) {
			return configErrorf("flags.stacking_arcane.per_stack is not a finite number")
		}
		if a.Stacks < 0 || a.Cap < 0 {
			return configErrorf("flags.stacking_arcane: stacks and cap must be >= 0")
		}
		if a.Mode != StackPercent && a.Mode != StackFlat {
			return configErrorf("flags.stacking_arcane.mode must be %q or %q, got %q", StackPercent, StackFlat, a.Mode)
		}
	}
	return nil
}

func validateEffect(mod string, e Effect) error {
	switch e.Mode {
	case "", ModeAdditive, ModeMultiplicative, ModeFlat:
	default:
		return configErrorf("modifier %q: unknown mode %q", mod, e.Mode)
	}
	if !finite(e.Value) {
		return configErrorf("modifier %q: %s value is not a finite number", mod, e.Stat)
	}
	switch e.Stat {
	case StatDamage, StatCritChance, StatCritDamage, StatStatusChance, StatFireRate:
	case StatTypeDamage:
		if !e.Type.Valid() {
			return configErrorf("modifier %q: unknown damage type %q", mod, e.Type)
		}
	case StatFactionDamage:
		if e.Faction == "" {
			return configErrorf("modifier %q: faction_damage needs a faction", mod)
		}
		if e.Mode == ModeFlat {
			return configErrorf("modifier %q: faction_damage cannot be flat", mod)
		}
	default:
		return configErrorf("modifier %q: unknown stat %q", mod, e.Stat)
	}
	return nil
}

func ValidateModifier(m Modifier) error {
	if m.Name == "" {
		return configErrorf("modifier with empty name")
	}
	if m.Cost < 0 {
		return configErrorf("modifier %q: negative slot cost %d", m.Name, m.Cost)
	}
	for _, e := range m.Effects {
		if err := validateEffect(m.Name, e); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSet checks the modifiers of one resolved build: each must be valid,
// names must be unique and no exclusion group may appear twice.
func ValidateSet(mods []Modifier) error {
	names := make(map[string]struct{}, len(mods))
	groups := make(map[string]string, len(mods))
	for _, m := range mods {
		if err := ValidateModifier(m); err != nil {
			return err
		}
		if _, ok := names[m.Name]; ok {
			return configErrorf("duplicate modifier %q", m.Name)
		}
		names[m.Name] = struct{}{}
		if m.ExclusionGroup == "" {
			continue
		}
		if other, ok := groups[m.ExclusionGroup]; ok {
			return configErrorf("modifiers %q and %q are mutually exclusive (group %q)", other, m.Name, m.ExclusionGroup)
		}
		groups[m.ExclusionGroup] = m.Name
	}
	return nil
}
