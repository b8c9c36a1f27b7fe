package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/config"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/damage"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/optimizer"

	"github.com/xuri/excelize/v2"
)

const (
	ResultsSheet = "Builds"
	RunSheet     = "Run"
)

func colName(n int) string {
	// 1-indexed: 1 -> A, 26 -> Z, 27 -> AA
	if n <= 0 {
		return ""
	}
	out := ""
	for n > 0 {
		n--
		out = string(rune('A'+(n%26))) + out
		n /= 26
	}
	return out
}

type column struct {
	header  string
	percent bool
	value   func(rank int, r optimizer.Ranked) any
}

type columnGroup struct {
	title   string
	columns []column
}

// usedTypes returns the damage types dealt by the weapon or by any ranked
// build, in reporting order.
func usedTypes(weapon damage.WeaponProfile, builds []optimizer.Ranked) []damage.DamageType {
	used := make(map[damage.DamageType]bool)
	for t, v := range weapon.Damage {
		if v > 0 {
			used[t] = true
		}
	}
	for _, r := range builds {
		for _, c := range r.Result.Categories {
			if c.Damage != 0 {
				used[c.Type] = true
			}
		}
	}
	var out []damage.DamageType
	for _, t := range damage.DamageTypes {
		if used[t] {
			out = append(out, t)
		}
	}
	return out
}

func resultGroups(b config.Bundle, out *optimizer.Outcome) []columnGroup {
	best := 0.0
	if len(out.Builds) > 0 {
		best = out.Builds[0].Result.Total
	}

	groups := []columnGroup{
		{title: "Build", columns: []column{
			{header: "Rank", value: func(rank int, _ optimizer.Ranked) any { return rank }},
			{header: "Mods", value: func(_ int, r optimizer.Ranked) any { return strings.Join(r.Candidate.Names(), ", ") }},
			{header: "Mod Count", value: func(_ int, r optimizer.Ranked) any { return len(r.Candidate.Mods) }},
			{header: "Cost", value: func(_ int, r optimizer.Ranked) any { return r.Candidate.Cost() }},
		}},
		{title: "Damage", columns: []column{
			{header: "Total", value: func(_ int, r optimizer.Ranked) any { return r.Result.Total }},
			{header: "% of Best", percent: true, value: func(_ int, r optimizer.Ranked) any {
				if best <= 0 {
					return nil
				}
				return r.Result.Total / best
			}},
			{header: "Per Second", value: func(_ int, r optimizer.Ranked) any { return r.Result.PerSecond }},
			{header: "Weapon Damage", value: func(_ int, r optimizer.Ranked) any { return r.Result.Aggregated }},
		}},
		{title: "Critical", columns: []column{
			{header: "Chance", percent: true, value: func(_ int, r optimizer.Ranked) any { return r.Result.CritChance }},
			{header: "Tier", value: func(_ int, r optimizer.Ranked) any { return r.Result.CritTier }},
			{header: "Multiplier", value: func(_ int, r optimizer.Ranked) any { return r.Result.CritMultiplier }},
			{header: "Synergy Bonus", value: func(_ int, r optimizer.Ranked) any { return r.Result.SynergyBonus }},
			{header: "Expected", value: func(_ int, r optimizer.Ranked) any { return r.Result.ExpectedCritMul }},
		}},
		{title: "Status & Faction", columns: []column{
			{header: "Status Chance", percent: true, value: func(_ int, r optimizer.Ranked) any { return r.Result.StatusChance }},
			{header: "Status Damage", value: func(_ int, r optimizer.Ranked) any { return r.Result.StatusDamage }},
			{header: "Faction", value: func(_ int, r optimizer.Ranked) any { return r.Result.FactionMultiplier }},
			{header: "Arcane Bonus", value: func(_ int, r optimizer.Ranked) any { return r.Result.ArcaneBonus }},
		}},
	}

	var types []column
	for _, t := range usedTypes(b.Weapon, out.Builds) {
		types = append(types, column{header: title(string(t)), value: func(_ int, r optimizer.Ranked) any {
			return r.Result.Category(t)
		}})
	}
	if len(types) > 0 {
		groups = append(groups, columnGroup{title: "Damage Types", columns: types})
	}
	return groups
}

// ExportXLSX writes the ranking to
// output/build_optimizer/<yyyymmdd>_build_optimizer_<name>.xlsx under appRoot.
func ExportXLSX(appRoot string, b config.Bundle, out *optimizer.Outcome) (string, error) {
	return exportXLSX(filepath.Join(appRoot, "output", "build_optimizer"), b, out, time.Now())
}

func exportXLSX(dir string, b config.Bundle, out *optimizer.Outcome, now time.Time) (string, error) {
	if out == nil {
		return "", fmt.Errorf("export: no results")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return "", err
	}
	sheet := ResultsSheet

	// Headers (2 rows):
	// Row 1: group title (merged across its columns)
	// Row 2: metric names
	groups := resultGroups(b, out)
	var cols []column
	for _, g := range groups {
		start := len(cols) + 1
		end := start + len(g.columns) - 1
		if end > start {
			_ = f.MergeCell(sheet, fmt.Sprintf("%s1", colName(start)), fmt.Sprintf("%s1", colName(end)))
		}
		f.SetCellValue(sheet, fmt.Sprintf("%s1", colName(start)), g.title)
		for i, c := range g.columns {
			f.SetCellValue(sheet, fmt.Sprintf("%s2", colName(start+i)), c.header)
		}
		cols = append(cols, g.columns...)
	}
	lastCol := colName(len(cols))

	headerStyleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s2", lastCol), headerStyleID); err != nil {
		return "", err
	}

	for i, r := range out.Builds {
		row := i + 3
		for j, c := range cols {
			v := c.value(i+1, r)
			if v == nil {
				continue
			}
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", colName(j+1), row), v)
		}
	}

	// Percent formatting: 1.0 => 100%
	if len(out.Builds) > 0 {
		styleID, err := f.NewStyle(&excelize.Style{NumFmt: 10})
		if err != nil {
			return "", err
		}
		lastRow := len(out.Builds) + 2
		for j, c := range cols {
			if !c.percent {
				continue
			}
			col := colName(j + 1)
			if err := f.SetCellStyle(sheet, fmt.Sprintf("%s3", col), fmt.Sprintf("%s%d", col, lastRow), styleID); err != nil {
				return "", err
			}
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return "", err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"}); err != nil {
		return "", err
	}

	if err := writeRunSheet(f, b, out); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s_build_optimizer_%s.xlsx", now.Format("20060102"), fileSafe(b.Name)))
	if err := f.SaveAs(filename); err != nil {
		return "", err
	}
	return filename, nil
}

func writeRunSheet(f *excelize.File, b config.Bundle, out *optimizer.Outcome) error {
	if _, err := f.NewSheet(RunSheet); err != nil {
		return err
	}
	fixed := make([]string, 0, len(out.Fixed))
	for _, m := range out.Fixed {
		fixed = append(fixed, m.Name)
	}
	rows := [][2]any{
		{"Weapon", b.Weapon.Name},
		{"Max Slots", b.MaxSlots},
		{"Slot Budget", b.SlotBudget},
		{"Fixed Mods", strings.Join(fixed, ", ")},
		{"Available Mods", len(b.Available)},
		{"Target Faction", b.Flags.TargetFaction},
		{"Search Space", out.SearchSpace},
		{"Evaluated", out.Evaluated},
		{"Skipped", out.Skipped},
	}
	for i, r := range rows {
		f.SetCellValue(RunSheet, fmt.Sprintf("A%d", i+1), r[0])
		f.SetCellValue(RunSheet, fmt.Sprintf("B%d", i+1), r[1])
	}
	return f.SetColWidth(RunSheet, "A", "A", 18)
}

func fileSafe(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "build"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
