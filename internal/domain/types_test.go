package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshal_RejectsUnknownKeys(t *testing.T) {
	cases := map[string]string{
		"top level": "" +
			"name: test\n" +
			"max_slot: 8\n",
		"weapon": "" +
			"weapon:\n" +
			"  name: dagger\n" +
			"  crit: 0.4\n",
		"flags": "" +
			"flags:\n" +
			"  arcane_fury: 2.8\n",
		"mod": "" +
			"available_mods:\n" +
			"  - name: pressure point\n" +
			"    slot: 1\n",
		"effect": "" +
			"available_mods:\n" +
			"  - name: pressure point\n" +
			"    effects:\n" +
			"      - stat: damage\n" +
			"        amount: 1.2\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			var cfg Config
			err := yaml.Unmarshal([]byte(in), &cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported key")
		})
	}
}

func TestConfigUnmarshal_FullDocument(t *testing.T) {
	in := "" +
		"name: ceramic\n" +
		"max_slots: 8\n" +
		"top_n: 3\n" +
		"weapon:\n" +
		"  name: Ceramic Dagger\n" +
		"  damage: {impact: 14, puncture: 126}\n" +
		"  crit_chance: 0.4\n" +
		"  crit_multiplier: 1.5\n" +
		"  tags: [melee, dagger]\n" +
		"flags:\n" +
		"  target_faction: grineer\n" +
		"  crit_chance_arcane: 2.8\n" +
		"  status_crit_synergy: {scale: 10, type: puncture}\n" +
		"fixed_mods:\n" +
		"  - name: primed pressure point\n" +
		"    exclusion_group: pressure\n" +
		"    effects:\n" +
		"      - {stat: damage, value: 1.65}\n" +
		"available_mods:\n" +
		"  - name: blood rush\n" +
		"    cost: 2\n" +
		"    effects:\n" +
		"      - {stat: crit_chance, value: 0.4, scales_with_combo: true, weapon_tag: melee}\n"

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(in), &cfg))

	assert.Equal(t, "ceramic", cfg.Name)
	assert.Equal(t, 8, cfg.MaxSlots)
	assert.Equal(t, 126.0, cfg.Weapon.Damage["puncture"])
	assert.Equal(t, []string{"melee", "dagger"}, cfg.Weapon.Tags)
	require.NotNil(t, cfg.Flags.StatusCritSynergy)
	assert.Equal(t, "puncture", cfg.Flags.StatusCritSynergy.Type)
	assert.Nil(t, cfg.Flags.StackingArcane)

	require.Len(t, cfg.FixedMods, 1)
	assert.Nil(t, cfg.FixedMods[0].Cost)
	require.Len(t, cfg.AvailableMods, 1)
	require.NotNil(t, cfg.AvailableMods[0].Cost)
	assert.Equal(t, 2, *cfg.AvailableMods[0].Cost)
	assert.True(t, cfg.AvailableMods[0].Effects[0].ScalesWithCombo)
	assert.Equal(t, "melee", cfg.AvailableMods[0].Effects[0].WeaponTag)
}
