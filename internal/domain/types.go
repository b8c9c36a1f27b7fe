package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the optimizer data file (optimizer_config.yaml).
type Config struct {
	Name string `yaml:"name"`
	// MaxSlots is the total slot capacity of the weapon. Fixed mods use part
	// of it; the rest is the budget for optional mods.
	MaxSlots      int    `yaml:"max_slots"`
	TopN          int    `yaml:"top_n"`
	Workers       int    `yaml:"workers"`
	MaxCandidates int    `yaml:"max_candidates"`
	LogLevel      string `yaml:"log_level"`

	Weapon        Weapon `yaml:"weapon"`
	Flags         Flags  `yaml:"flags"`
	FixedMods     []Mod  `yaml:"fixed_mods"`
	AvailableMods []Mod  `yaml:"available_mods"`
}

type Weapon struct {
	Name           string             `yaml:"name"`
	Damage         map[string]float64 `yaml:"damage"`
	CritChance     float64            `yaml:"crit_chance"`
	CritMultiplier float64            `yaml:"crit_multiplier"`
	StatusChance   float64            `yaml:"status_chance"`
	FireRate       float64            `yaml:"fire_rate"`
	Tags           []string           `yaml:"tags"`
	FactionDamage  map[string]float64 `yaml:"faction_damage"`
}

// Flags are the combat assumptions. Zero multipliers mean "not equipped".
type Flags struct {
	TargetFaction     string          `yaml:"target_faction"`
	ComboMultiplier   float64         `yaml:"combo_multiplier"`
	CritAmplifier     float64         `yaml:"crit_amplifier"`
	CritChanceArcane  float64         `yaml:"crit_chance_arcane"`
	FlatCritChance    float64         `yaml:"flat_crit_chance"`
	StatusCritSynergy *Synergy        `yaml:"status_crit_synergy"`
	Status            Status          `yaml:"status"`
	StackingArcane    *StackingArcane `yaml:"stacking_arcane"`
}

type Synergy struct {
	Scale float64 `yaml:"scale"`
	Type  string  `yaml:"type"`
}

type Status struct {
	ProcsPerHit float64 `yaml:"procs_per_hit"`
	ProcDamage  float64 `yaml:"proc_damage"`
	Stacks      int     `yaml:"stacks"`
}

type StackingArcane struct {
	PerStack float64 `yaml:"per_stack"`
	Stacks   int     `yaml:"stacks"`
	Cap      int     `yaml:"cap"`
	Mode     string  `yaml:"mode"`
}

type Mod struct {
	Name string `yaml:"name"`
	// Cost defaults to 1 when omitted.
	Cost           *int     `yaml:"cost"`
	ExclusionGroup string   `yaml:"exclusion_group"`
	Effects        []Effect `yaml:"effects"`
}

type Effect struct {
	Stat            string  `yaml:"stat"`
	Type            string  `yaml:"type"`
	Faction         string  `yaml:"faction"`
	Value           float64 `yaml:"value"`
	Mode            string  `yaml:"mode"`
	ScalesWithCombo bool    `yaml:"scales_with_combo"`
	WeaponTag       string  `yaml:"weapon_tag"`
}

func checkKeys(where string, value *yaml.Node, allowed map[string]struct{}) error {
	if value == nil || value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k := value.Content[i]
		if k.Kind != yaml.ScalarNode {
			continue
		}
		if _, ok := allowed[k.Value]; !ok {
			return fmt.Errorf("%s: unsupported key %q (line %d)", where, k.Value, k.Line)
		}
	}
	return nil
}

func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	allowed := map[string]struct{}{
		"name":           {},
		"max_slots":      {},
		"top_n":          {},
		"workers":        {},
		"max_candidates": {},
		"log_level":      {},
		"weapon":         {},
		"flags":          {},
		"fixed_mods":     {},
		"available_mods": {},
	}
	if err := checkKeys("config", value, allowed); err != nil {
		return err
	}

	type raw Config
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*c = Config(tmp)
	return nil
}

func (w *Weapon) UnmarshalYAML(value *yaml.Node) error {
	allowed := map[string]struct{}{
		"name":            {},
		"damage":          {},
		"crit_chance":     {},
		"crit_multiplier": {},
		"status_chance":   {},
		"fire_rate":       {},
		"tags":            {},
		"faction_damage":  {},
	}
	if err := checkKeys("weapon", value, allowed); err != nil {
		return err
	}

	type raw Weapon
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*w = Weapon(tmp)
	return nil
}

func (f *Flags) UnmarshalYAML(value *yaml.Node) error {
	allowed := map[string]struct{}{
		"target_faction":      {},
		"combo_multiplier":    {},
		"crit_amplifier":      {},
		"crit_chance_arcane":  {},
		"flat_crit_chance":    {},
		"status_crit_synergy": {},
		"status":              {},
		"stacking_arcane":     {},
	}
	if err := checkKeys("flags", value, allowed); err != nil {
		return err
	}

	type raw Flags
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*f = Flags(tmp)
	return nil
}

func (m *Mod) UnmarshalYAML(value *yaml.Node) error {
	allowed := map[string]struct{}{
		"name":            {},
		"cost":            {},
		"exclusion_group": {},
		"effects":         {},
	}
	if err := checkKeys("mod", value, allowed); err != nil {
		return err
	}

	type raw Mod
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*m = Mod(tmp)
	return nil
}

func (e *Effect) UnmarshalYAML(value *yaml.Node) error {
	allowed := map[string]struct{}{
		"stat":              {},
		"type":              {},
		"faction":           {},
		"value":             {},
		"mode":              {},
		"scales_with_combo": {},
		"weapon_tag":        {},
	}
	if err := checkKeys("effect", value, allowed); err != nil {
		return err
	}

	type raw Effect
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*e = Effect(tmp)
	return nil
}
