package output

import (
	"io"
	"math"
	"strings"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/config"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/damage"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/optimizer"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrintResults writes the ranked builds with a per-stat breakdown.
func PrintResults(w io.Writer, out *optimizer.Outcome, b config.Bundle) {
	p := message.NewPrinter(language.English)
	if out == nil || len(out.Builds) == 0 {
		p.Fprintln(w, "No results")
		return
	}

	p.Fprintf(w, "%s: top %d of %d builds (%d evaluated, %d skipped), slot budget %d\n\n",
		b.Weapon.Name, len(out.Builds), out.SearchSpace, out.Evaluated, out.Skipped, b.SlotBudget)
	for i, r := range out.Builds {
		p.Fprintf(w, "Build %d:\n", i+1)
		printBuild(p, w, out.Fixed, r, b)
		p.Fprintln(w)
	}
}

func buildNames(fixed []damage.Modifier, r optimizer.Ranked) []string {
	names := make([]string, 0, len(fixed)+len(r.Candidate.Mods))
	for _, m := range fixed {
		names = append(names, m.Name)
	}
	return append(names, r.Candidate.Names()...)
}

func printBuild(p *message.Printer, w io.Writer, fixed []damage.Modifier, r optimizer.Ranked, b config.Bundle) {
	res := r.Result
	weapon := b.Weapon
	flags := b.Flags

	names := buildNames(fixed, r)
	if len(names) == 0 {
		p.Fprintln(w, "Mods: (none)")
	} else {
		p.Fprintf(w, "Mods: %s\n", strings.Join(names, ", "))
	}
	p.Fprintf(w, "Total Damage: %.2f\n", res.Total)
	if res.PerSecond > 0 {
		p.Fprintf(w, "Damage Per Second: %.2f\n", res.PerSecond)
	}
	p.Fprintln(w, "Details:")

	p.Fprintf(w, "  Weapon Damage: %.2f (Base %.2f)%s\n",
		res.Aggregated, weapon.BaseTotal(), contributions(p, res, damage.StatDamage))

	var ccNotes []string
	if flags.CritChanceArcane.Active {
		ccNotes = append(ccNotes, p.Sprintf("x%.2f from arcane", flags.CritChanceArcane.Multiplier))
	}
	if flags.FlatCritChance > 0 {
		ccNotes = append(ccNotes, p.Sprintf("%.2f%% flat from arcane", flags.FlatCritChance*100))
	}
	ccNotes = append(ccNotes, p.Sprintf("tier %d, %.2f%% toward next", res.CritTier, res.CritRemainder*100))
	p.Fprintf(w, "  Critical Chance: %.2f%% (Base %.2f%%)%s [%s]\n",
		res.CritChance*100, weapon.CritChance*100, contributions(p, res, damage.StatCritChance), strings.Join(ccNotes, ", "))

	var cdNotes []string
	if flags.Synergy.Active {
		cdNotes = append(cdNotes, p.Sprintf("synergy bonus %.2f", res.SynergyBonus))
	}
	if flags.CritAmplifier.Active {
		cdNotes = append(cdNotes, p.Sprintf("x%.2f amplifier", flags.CritAmplifier.Multiplier))
	}
	cdNotes = append(cdNotes, p.Sprintf("expected x%.2f", res.ExpectedCritMul))
	p.Fprintf(w, "  Critical Damage: %.2fx (Base %.2fx)%s [%s]\n",
		res.CritMultiplier, weapon.CritMultiplier, contributions(p, res, damage.StatCritDamage), strings.Join(cdNotes, ", "))

	p.Fprintf(w, "  Status Chance: %.2f%% (Base %.2f%%)%s\n",
		res.StatusChance*100, weapon.StatusChance*100, contributions(p, res, damage.StatStatusChance))

	if flags.Synergy.Active {
		t := flags.Synergy.Type
		base := 0.0
		if total := weapon.BaseTotal(); total > 0 {
			base = weapon.Damage[t] / total
		}
		p.Fprintf(w, "  %s Share: %.2f%% (Base %.2f%%)\n", title(string(t)), res.Share(t)*100, base*100)
	}

	if flags.TargetFaction != "" {
		p.Fprintf(w, "  Faction Multiplier: %.2f (applied against %s)\n", res.FactionMultiplier, flags.TargetFaction)
	} else {
		p.Fprintf(w, "  Faction Multiplier: %.2f (inactive)\n", res.FactionMultiplier)
	}
	if res.StatusDamage > 0 {
		p.Fprintf(w, "  Status Damage: %.2f\n", res.StatusDamage)
	}
	if flags.Arcane.Active {
		p.Fprintf(w, "  Stacking Arcane: %d stacks, +%.2f\n", res.ArcaneStacks, res.ArcaneBonus)
	}

	p.Fprintln(w, "  Damage Types:")
	for _, c := range res.Categories {
		if c.Damage == 0 {
			continue
		}
		p.Fprintf(w, "    %s: %.2f\n", title(string(c.Type)), c.Damage)
	}
	if res.FlatDamage != 0 {
		p.Fprintf(w, "    Flat: %.2f\n", res.FlatDamage)
	}
}

// contributions renders " (+90.00% from A + x1.50 from B)" or "".
func contributions(p *message.Printer, res damage.Result, stat damage.Stat) string {
	cs := res.ContributionsFor(stat)
	if len(cs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		switch c.Mode {
		case damage.ModeFlat:
			parts = append(parts, sign(c.Value)+p.Sprintf("%.2f flat from %s", math.Abs(c.Value), c.Modifier))
		case damage.ModeMultiplicative:
			parts = append(parts, p.Sprintf("x%.2f from %s", 1+c.Value, c.Modifier))
		default:
			parts = append(parts, sign(c.Value)+p.Sprintf("%.2f%% from %s", math.Abs(c.Value*100), c.Modifier))
		}
	}
	return " (" + strings.Join(parts, " + ") + ")"
}

func sign(v float64) string {
	if v < 0 {
		return "-"
	}
	return "+"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
