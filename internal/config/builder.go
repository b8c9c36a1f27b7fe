// Package config turns the decoded data file into a validated Bundle.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/damage"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/domain"
)

const (
	DefaultTopN = 5
	// DefaultSynergyScale is the status/crit synergy scale of Arcane Doughty.
	DefaultSynergyScale = 10.0
	DefaultSynergyType  = damage.Puncture
)

// Bundle is everything one optimization run needs. Build returns fresh
// copies of all maps and slices; treat a Bundle as read-only.
type Bundle struct {
	Name      string
	Weapon    damage.WeaponProfile
	Flags     damage.ConditionFlags
	Fixed     []damage.Modifier
	Available []damage.Modifier
	// SlotBudget is max_slots minus the cost of the fixed mods.
	SlotBudget    int
	MaxSlots      int
	TopN          int
	Workers       int
	MaxCandidates int
	LogLevel      slog.Level
}

type Builder struct {
	cfg       domain.Config
	overrides Overrides
}

func NewBuilder(cfg domain.Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) WithOverrides(o Overrides) *Builder {
	b.overrides = o
	return b
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{damage.ErrConfig}, args...)...)
}

// Build converts and validates the data file. All problems are reported
// together; every returned error wraps damage.ErrConfig.
func (b *Builder) Build() (Bundle, error) {
	cfg := b.cfg
	var errs []error

	weapon := convertWeapon(cfg.Weapon)
	if err := damage.ValidateWeapon(weapon); err != nil {
		errs = append(errs, err)
	}
	flags := convertFlags(cfg.Flags)
	if err := damage.ValidateFlags(flags); err != nil {
		errs = append(errs, err)
	}

	fixed, err := convertMods(cfg.FixedMods, true)
	if err != nil {
		errs = append(errs, fmt.Errorf("fixed_mods: %w", err))
	}
	available, err := convertMods(cfg.AvailableMods, false)
	if err != nil {
		errs = append(errs, fmt.Errorf("available_mods: %w", err))
	}

	if cfg.MaxSlots < 0 {
		errs = append(errs, configErrorf("max_slots must be >= 0, got %d", cfg.MaxSlots))
	}
	fixedCost := 0
	for _, m := range fixed {
		fixedCost += m.Cost
	}
	budget := cfg.MaxSlots - fixedCost
	if cfg.MaxSlots >= 0 && budget < 0 {
		errs = append(errs, configErrorf("too many fixed mods: they use %d of %d slots", fixedCost, cfg.MaxSlots))
	}

	topN := cfg.TopN
	if b.overrides.TopN != nil {
		topN = *b.overrides.TopN
	}
	if topN == 0 {
		topN = DefaultTopN
	}
	if topN < 1 {
		errs = append(errs, configErrorf("top_n must be >= 1, got %d", topN))
	}

	workers := cfg.Workers
	if b.overrides.Workers != nil {
		workers = *b.overrides.Workers
	}
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 0 {
		errs = append(errs, configErrorf("workers must be >= 0, got %d", workers))
	}

	maxCandidates := cfg.MaxCandidates
	if b.overrides.MaxCandidates != nil {
		maxCandidates = *b.overrides.MaxCandidates
	}
	if maxCandidates < 0 {
		errs = append(errs, configErrorf("max_candidates must be >= 0, got %d", maxCandidates))
	}

	levelName := cfg.LogLevel
	if b.overrides.LogLevel != nil {
		levelName = *b.overrides.LogLevel
	}
	level, err := ParseLogLevel(levelName)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Bundle{}, errors.Join(errs...)
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = weapon.Name
	}
	if name == "" {
		name = "build"
	}

	return Bundle{
		Name:          name,
		Weapon:        weapon,
		Flags:         flags,
		Fixed:         fixed,
		Available:     available,
		SlotBudget:    budget,
		MaxSlots:      cfg.MaxSlots,
		TopN:          topN,
		Workers:       workers,
		MaxCandidates: maxCandidates,
		LogLevel:      level,
	}, nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level; empty is info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, configErrorf("log_level must be debug, info, warn or error, got %q", level)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func convertWeapon(w domain.Weapon) damage.WeaponProfile {
	out := damage.WeaponProfile{
		Name:           strings.TrimSpace(w.Name),
		Damage:         make(map[damage.DamageType]float64, len(w.Damage)),
		CritChance:     w.CritChance,
		CritMultiplier: w.CritMultiplier,
		StatusChance:   w.StatusChance,
		FireRate:       w.FireRate,
	}
	if len(w.FactionDamage) > 0 {
		out.FactionDamage = make(map[string]float64, len(w.FactionDamage))
		for k, v := range w.FactionDamage {
			out.FactionDamage[normalize(k)] += v
		}
	}
	for k, v := range w.Damage {
		out.Damage[damage.DamageType(normalize(k))] += v
	}
	for _, tag := range w.Tags {
		out.Tags = append(out.Tags, normalize(tag))
	}
	return out
}

func multiplier(v float64) damage.Multiplier {
	if v == 0 {
		return damage.Multiplier{}
	}
	return damage.Multiplier{Active: true, Multiplier: v}
}

func convertFlags(f domain.Flags) damage.ConditionFlags {
	out := damage.ConditionFlags{
		TargetFaction:    normalize(f.TargetFaction),
		ComboMultiplier:  f.ComboMultiplier,
		CritAmplifier:    multiplier(f.CritAmplifier),
		CritChanceArcane: multiplier(f.CritChanceArcane),
		FlatCritChance:   f.FlatCritChance,
		Status: damage.StatusAssumption{
			ProcsPerHit: f.Status.ProcsPerHit,
			ProcDamage:  f.Status.ProcDamage,
			Stacks:      f.Status.Stacks,
		},
	}
	if s := f.StatusCritSynergy; s != nil {
		out.Synergy = damage.StatusCritSynergy{Active: true, Scale: s.Scale, Type: damage.DamageType(normalize(s.Type))}
		if out.Synergy.Scale == 0 {
			out.Synergy.Scale = DefaultSynergyScale
		}
		if out.Synergy.Type == "" {
			out.Synergy.Type = DefaultSynergyType
		}
	}
	if a := f.StackingArcane; a != nil {
		out.Arcane = damage.StackingArcane{
			Active:   true,
			PerStack: a.PerStack,
			Stacks:   a.Stacks,
			Cap:      a.Cap,
			Mode:     damage.StackMode(normalize(a.Mode)),
		}
		if out.Arcane.Mode == "" {
			out.Arcane.Mode = damage.StackPercent
		}
	}
	return out
}

func convertMods(in []domain.Mod, fixed bool) ([]damage.Modifier, error) {
	out := make([]damage.Modifier, 0, len(in))
	for i, m := range in {
		mod := damage.Modifier{
			Name:           strings.TrimSpace(m.Name),
			Cost:           1,
			ExclusionGroup: normalize(m.ExclusionGroup),
			Fixed:          fixed,
		}
		if m.Cost != nil {
			mod.Cost = *m.Cost
		}
		for _, e := range m.Effects {
			mod.Effects = append(mod.Effects, damage.Effect{
				Stat:            damage.Stat(normalize(e.Stat)),
				Type:            damage.DamageType(normalize(e.Type)),
				Faction:         normalize(e.Faction),
				Value:           e.Value,
				Mode:            damage.Mode(normalize(e.Mode)),
				ScalesWithCombo: e.ScalesWithCombo,
				WeaponTag:       normalize(e.WeaponTag),
			})
		}
		if err := damage.ValidateModifier(mod); err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, mod)
	}
	return out, nil
}
