package damage

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func plainWeapon() WeaponProfile {
	return WeaponProfile{
		Name:           "test",
		Damage:         map[DamageType]float64{Impact: 100},
		CritChance:     0,
		CritMultiplier: 2,
		FireRate:       1,
	}
}

func mod(name string, effects ...Effect) Modifier {
	return Modifier{Name: name, Cost: 1, Effects: effects}
}

func TestEvaluate_CritTierScenario(t *testing.T) {
	w := WeaponProfile{
		Name:           "physical",
		Damage:         map[DamageType]float64{Impact: 100},
		CritChance:     0.25,
		CritMultiplier: 2.0,
		FireRate:       1,
	}
	mods := []Modifier{
		mod("crit chance", Effect{Stat: StatCritChance, Value: 0.90, Mode: ModeFlat}),
		mod("crit damage", Effect{Stat: StatCritDamage, Value: 1.20}),
	}

	r, err := Evaluate(w, mods, ConditionFlags{})
	require.NoError(t, err)

	assert.InDelta(t, 1.15, r.CritChance, eps)
	assert.Equal(t, 1, r.CritTier)
	assert.InDelta(t, 0.15, r.CritRemainder, eps)
	assert.InDelta(t, 1.0, r.EffectiveCritChance, eps)
	assert.InDelta(t, 4.4, r.CritMultiplier, eps)
	// 0.85 * 4.4 + 0.15 * 7.8
	assert.InDelta(t, 4.91, r.ExpectedCritMul, eps)
	assert.InDelta(t, 491.0, r.Total, eps)
}

func TestEvaluate_Deterministic(t *testing.T) {
	w := plainWeapon()
	w.CritChance = 0.3
	w.StatusChance = 0.2
	mods := []Modifier{
		mod("a", Effect{Stat: StatDamage, Value: 1.65}),
		mod("b", Effect{Stat: StatTypeDamage, Type: Heat, Value: 0.9}),
		mod("c", Effect{Stat: StatCritChance, Value: 2.2}),
	}
	flags := ConditionFlags{Status: StatusAssumption{ProcsPerHit: 1, ProcDamage: 0.3, Stacks: 2}}

	r1, err := Evaluate(w, mods, flags)
	require.NoError(t, err)
	r2, err := Evaluate(w, mods, flags)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	w := plainWeapon()
	w.Damage = map[DamageType]float64{Impact: 14, Puncture: 126}
	w.CritChance = 0.4
	w.StatusChance = 0.2
	mods := []Modifier{
		mod("Primed Pressure Point", Effect{Stat: StatDamage, Value: 1.65}),
		mod("Auger Strike", Effect{Stat: StatTypeDamage, Type: Puncture, Value: 1.2}),
		mod("Shocking Touch", Effect{Stat: StatTypeDamage, Type: Electricity, Value: 0.9}),
		mod("Sacrificial Steel", Effect{Stat: StatCritChance, Value: 2.2}),
		mod("Organ Shatter", Effect{Stat: StatCritDamage, Value: 0.9}),
	}
	reversed := make([]Modifier, len(mods))
	for i, m := range mods {
		reversed[len(mods)-1-i] = m
	}

	r1, err := Evaluate(w, mods, ConditionFlags{})
	require.NoError(t, err)
	r2, err := Evaluate(w, reversed, ConditionFlags{})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestEvaluate_SameStatPercentagesAdd(t *testing.T) {
	w := plainWeapon()

	r, err := Evaluate(w, []Modifier{
		mod("a", Effect{Stat: StatDamage, Value: 0.5}),
		mod("b", Effect{Stat: StatDamage, Value: 0.5}),
	}, ConditionFlags{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, r.BaseMultiplier, eps)
	assert.InDelta(t, 200.0, r.Total, eps)

	r, err = Evaluate(w, []Modifier{
		mod("a", Effect{Stat: StatDamage, Value: 0.5}),
		mod("b", Effect{Stat: StatDamage, Value: 0.5, Mode: ModeMultiplicative}),
	}, ConditionFlags{})
	require.NoError(t, err)
	assert.InDelta(t, 2.25, r.BaseMultiplier, eps)
	assert.InDelta(t, 225.0, r.Total, eps)
}

func TestEvaluate_TypeDamage(t *testing.T) {
	w := plainWeapon()
	w.Damage = map[DamageType]float64{Impact: 20, Puncture: 80}

	r, err := Evaluate(w, []Modifier{
		mod("puncture", Effect{Stat: StatTypeDamage, Type: Puncture, Value: 0.5}),
		mod("heat", Effect{Stat: StatTypeDamage, Type: Heat, Value: 0.9}),
		mod("damage", Effect{Stat: StatDamage, Value: 1.0}),
		mod("flat", Effect{Stat: StatDamage, Value: 144, Mode: ModeFlat}),
	}, ConditionFlags{})
	require.NoError(t, err)

	assert.InDelta(t, 40.0, r.Category(Impact), eps)
	// physical percentages scale the type's own base only
	assert.InDelta(t, 240.0, r.Category(Puncture), eps)
	// elemental percentages scale the whole base
	assert.InDelta(t, 180.0, r.Category(Heat), eps)
	assert.InDelta(t, 144.0, r.FlatDamage, eps)
	assert.InDelta(t, 604.0, r.Aggregated, eps)
	assert.InDelta(t, 240.0/604.0, r.Share(Puncture), eps)
	assert.Zero(t, r.Category(Slash))
}

func TestEvaluate_FactionBonus(t *testing.T) {
	w := plainWeapon()
	w.FactionDamage = map[string]float64{"grineer": 0.2}
	mods := []Modifier{
		mod("bane", Effect{Stat: StatFactionDamage, Faction: "grineer", Value: 0.3}),
		mod("other bane", Effect{Stat: StatFactionDamage, Faction: "corpus", Value: 0.3}),
	}

	r, err := Evaluate(w, mods, ConditionFlags{TargetFaction: "grineer"})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, r.FactionMultiplier, eps)
	assert.InDelta(t, 100.0, r.Aggregated, eps)
	assert.InDelta(t, 150.0, r.AfterFaction, eps)
	assert.InDelta(t, 150.0, r.Total, eps)

	r, err = Evaluate(w, mods, ConditionFlags{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.FactionMultiplier, eps)
	assert.InDelta(t, 100.0, r.Total, eps)
}

func TestEvaluate_CritAmplifierOnlyTouchesMultiplier(t *testing.T) {
	w := plainWeapon()
	w.CritChance = 0.5

	r, err := Evaluate(w, nil, ConditionFlags{CritAmplifier: Multiplier{Active: true, Multiplier: 1.5}})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, r.CritMultiplier, eps)
	assert.InDelta(t, 0.5, r.CritChance, eps)
	assert.InDelta(t, 100.0, r.AfterFaction, eps)
	assert.InDelta(t, 200.0, r.Total, eps)
}

func TestEvaluate_CritChanceArcaneAndFlatChance(t *testing.T) {
	w := plainWeapon()
	w.CritChance = 0.4
	mods := []Modifier{mod("crit", Effect{Stat: StatCritChance, Value: 1.0})}
	flags := ConditionFlags{
		CritChanceArcane: Multiplier{Active: true, Multiplier: 2.8},
		FlatCritChance:   0.45,
	}

	r, err := Evaluate(w, mods, flags)
	require.NoError(t, err)
	// 0.4 * 2 * 2.8 + 0.45
	assert.InDelta(t, 2.69, r.CritChance, eps)
	assert.Equal(t, 2, r.CritTier)
	assert.InDelta(t, 0.69, r.CritRemainder, eps)
}

func TestEvaluate_ComboScalingAndWeaponTag(t *testing.T) {
	w := plainWeapon()
	w.CritChance = 0.1
	w.Tags = []string{"melee"}
	mods := []Modifier{
		mod("blood rush", Effect{Stat: StatCritChance, Value: 0.4, ScalesWithCombo: true}),
		mod("rifle only", Effect{Stat: StatDamage, Value: 5, WeaponTag: "rifle"}),
		mod("melee only", Effect{Stat: StatDamage, Value: 1, WeaponTag: "melee"}),
	}

	r, err := Evaluate(w, mods, ConditionFlags{ComboMultiplier: 11})
	require.NoError(t, err)
	// 0.1 * (1 + 4.4)
	assert.InDelta(t, 0.54, r.CritChance, eps)
	assert.InDelta(t, 2.0, r.BaseMultiplier, eps)
	assert.Len(t, r.ContributionsFor(StatDamage), 1)
	assert.InDelta(t, 4.4, r.ContributionsFor(StatCritChance)[0].Value, eps)
}

func TestEvaluate_StatusIsAdditive(t *testing.T) {
	w := plainWeapon()
	w.StatusChance = 0.25
	mods := []Modifier{mod("status", Effect{Stat: StatStatusChance, Value: 1.0})}
	flags := ConditionFlags{Status: StatusAssumption{ProcsPerHit: 1, ProcDamage: 0.2, Stacks: 2}}

	r, err := Evaluate(w, mods, flags)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.StatusChance, eps)
	// 0.5 * 1 * 0.2 * 2 * 100
	assert.InDelta(t, 20.0, r.StatusDamage, eps)
	assert.InDelta(t, 120.0, r.Total, eps)
}

func TestEvaluate_StatusCritSynergy(t *testing.T) {
	w := plainWeapon()
	w.Damage = map[DamageType]float64{Impact: 14, Puncture: 126}
	w.CritMultiplier = 1.5
	w.StatusChance = 0.2
	flags := ConditionFlags{Synergy: StatusCritSynergy{Active: true, Scale: 10, Type: Puncture}}

	r, err := Evaluate(w, nil, flags)
	require.NoError(t, err)
	// 10 * 0.2 * 126/140
	assert.InDelta(t, 1.8, r.SynergyBonus, eps)
	assert.InDelta(t, 3.3, r.CritMultiplier, eps)
}

func TestEvaluate_StackingArcane(t *testing.T) {
	w := plainWeapon()

	r, err := Evaluate(w, nil, ConditionFlags{Arcane: StackingArcane{Active: true, PerStack: 0.1, Stacks: 12, Cap: 10, Mode: StackPercent}})
	require.NoError(t, err)
	assert.Equal(t, 10, r.ArcaneStacks)
	assert.InDelta(t, 100.0, r.ArcaneBonus, eps)
	assert.InDelta(t, 200.0, r.Total, eps)

	r, err = Evaluate(w, nil, ConditionFlags{Arcane: StackingArcane{Active: true, PerStack: 15, Stacks: 4, Mode: StackFlat}})
	require.NoError(t, err)
	assert.Equal(t, 4, r.ArcaneStacks)
	assert.InDelta(t, 160.0, r.Total, eps)
}

func TestEvaluate_PerSecond(t *testing.T) {
	w := plainWeapon()
	w.FireRate = 1.2
	mods := []Modifier{mod("speed", Effect{Stat: StatFireRate, Value: 0.25})}

	r, err := Evaluate(w, mods, ConditionFlags{})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, r.FireRate, eps)
	assert.InDelta(t, 150.0, r.PerSecond, eps)
}

func TestEvaluate_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	stats := []Effect{
		{Stat: StatDamage},
		{Stat: StatTypeDamage, Type: Puncture},
		{Stat: StatTypeDamage, Type: Heat},
		{Stat: StatCritChance},
		{Stat: StatCritChance, Mode: ModeFlat},
		{Stat: StatCritDamage},
		{Stat: StatStatusChance},
		{Stat: StatFactionDamage, Faction: "grineer"},
	}
	flags := ConditionFlags{
		TargetFaction: "grineer",
		Synergy:       StatusCritSynergy{Active: true, Scale: 10, Type: Puncture},
		Status:        StatusAssumption{ProcsPerHit: 1, ProcDamage: 0.25, Stacks: 1},
		Arcane:        StackingArcane{Active: true, PerStack: 0.05, Stacks: 6, Mode: StackPercent},
	}

	for i := 0; i < 500; i++ {
		w := WeaponProfile{
			Name:           "random",
			Damage:         map[DamageType]float64{Impact: 1 + rng.Float64()*50, Puncture: rng.Float64() * 150},
			CritChance:     rng.Float64() * 0.5,
			CritMultiplier: 1 + rng.Float64()*2,
			StatusChance:   rng.Float64() * 0.5,
			FireRate:       1,
		}
		var base []Modifier
		n := rng.IntN(4)
		for j := 0; j < n; j++ {
			e := stats[rng.IntN(len(stats))]
			e.Value = rng.Float64() * 2
			base = append(base, mod(string(rune('a'+j)), e))
		}
		extra := stats[rng.IntN(len(stats))]
		extra.Value = rng.Float64() * 2

		before, err := Evaluate(w, base, flags)
		require.NoError(t, err)
		after, err := Evaluate(w, append(base, mod("extra", extra)), flags)
		require.NoError(t, err)
		require.GreaterOrEqualf(t, after.Total, before.Total-eps, "adding %+v decreased total", extra)
	}
}

func TestResolveCrit(t *testing.T) {
	tests := []struct {
		cc, cd    float64
		tier      int
		effective float64
		expected  float64
	}{
		{cc: 0, cd: 2, tier: 0, effective: 0, expected: 2},
		{cc: 0.5, cd: 2, tier: 0, effective: 0.5, expected: 2},
		{cc: 1, cd: 2, tier: 1, effective: 1, expected: 2},
		{cc: 2.25, cd: 3, tier: 2, effective: 1, expected: 5.5},
	}
	for _, tt := range tests {
		tier, _, effective, expected := resolveCrit(tt.cc, tt.cd)
		assert.Equal(t, tt.tier, tier, "cc=%v", tt.cc)
		assert.InDelta(t, tt.effective, effective, eps, "cc=%v", tt.cc)
		assert.InDelta(t, tt.expected, expected, eps, "cc=%v", tt.cc)
	}
}

func TestEvaluate_RejectsMalformedData(t *testing.T) {
	w := plainWeapon()
	tests := map[string][]Modifier{
		"negative cost":  {{Name: "x", Cost: -1}},
		"empty name":     {{Cost: 1}},
		"duplicate name": {mod("x"), mod("x")},
		"same group": {
			{Name: "a", Cost: 1, ExclusionGroup: "g"},
			{Name: "b", Cost: 1, ExclusionGroup: "g"},
		},
		"unknown stat":    {mod("x", Effect{Stat: "speed"})},
		"unknown type":    {mod("x", Effect{Stat: StatTypeDamage, Type: "void"})},
		"unknown mode":    {mod("x", Effect{Stat: StatDamage, Mode: "exp"})},
		"faction missing": {mod("x", Effect{Stat: StatFactionDamage, Value: 0.3})},
		"flat faction":    {mod("x", Effect{Stat: StatFactionDamage, Faction: "f", Mode: ModeFlat})},
	}
	for name, mods := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(w, mods, ConditionFlags{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
		})
	}
}

func TestNewModel_RejectsBadWeaponAndFlags(t *testing.T) {
	w := plainWeapon()
	w.CritMultiplier = 0.5
	_, err := NewModel(w, ConditionFlags{})
	require.ErrorIs(t, err, ErrConfig)

	w = plainWeapon()
	w.Damage = map[DamageType]float64{}
	_, err = NewModel(w, ConditionFlags{})
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewModel(plainWeapon(), ConditionFlags{ComboMultiplier: 0.5})
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewModel(plainWeapon(), ConditionFlags{Arcane: StackingArcane{Active: true, Mode: "linear"}})
	require.ErrorIs(t, err, ErrConfig)
}
