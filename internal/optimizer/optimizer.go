// Package optimizer finds the best modifier builds for a weapon.
//
// The search is an exact brute-force enumeration: every subset of the
// available modifiers that fits the slot budget is evaluated with the damage
// model, so the returned optimum is the true optimum. The number of subsets is
// sum C(n, k) for k = 0..budget; pools are expected to stay small enough for
// that, and Request.MaxCandidates bounds the walk when they do not.
package optimizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/damage"

	"golang.org/x/sync/errgroup"
)

const batchSize = 512

type Request struct {
	Weapon damage.WeaponProfile
	Flags  damage.ConditionFlags
	// Fixed modifiers are part of every build and do not use the budget.
	Fixed     []damage.Modifier
	Available []damage.Modifier
	// SlotBudget bounds both the number and the total cost of the optional
	// modifiers in one build.
	SlotBudget int
	TopN       int
	// Workers > 1 evaluates batches of candidates concurrently.
	Workers int
	// MaxCandidates rejects searches larger than this many subsets (0 = no cap).
	MaxCandidates int
	// OnProgress is called after each evaluated batch, never concurrently.
	OnProgress func(done, total int)
}

// Candidate is one selection of optional modifiers.
type Candidate struct {
	Mods []damage.Modifier
	// Seq is the position of the subset in enumeration order.
	Seq int
}

func (c Candidate) Names() []string {
	out := make([]string, len(c.Mods))
	for i, m := range c.Mods {
		out[i] = m.Name
	}
	return out
}

func (c Candidate) Cost() int {
	total := 0
	for _, m := range c.Mods {
		total += m.Cost
	}
	return total
}

type Ranked struct {
	Candidate Candidate
	Result    damage.Result
}

type Outcome struct {
	Fixed []damage.Modifier
	// Builds are sorted best first.
	Builds []Ranked
	// Evaluated counts the subsets passed to the damage model, Skipped the
	// ones rejected for cost or mutual exclusion.
	Evaluated   int
	Skipped     int
	SearchSpace int
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{damage.ErrConfig}, args...)...)
}

// Optimize enumerates every admissible build and returns the TopN best by
// expected damage per hit.
func Optimize(ctx context.Context, req Request) (*Outcome, error) {
	model, err := req.validate()
	if err != nil {
		return nil, err
	}

	space := CountCandidates(len(req.Available), req.SlotBudget)
	if req.MaxCandidates > 0 && space > req.MaxCandidates {
		return nil, configErrorf("search space of %d builds exceeds max_candidates=%d", space, req.MaxCandidates)
	}

	p := newPlan(req)
	acc := &accumulator{top: newTopN(req.TopN), total: space, onProgress: req.OnProgress}

	if req.Workers > 1 {
		err = runParallel(ctx, p, model, acc, req.Workers)
	} else {
		err = runSequential(ctx, p, model, acc)
	}
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Fixed:       append([]damage.Modifier(nil), req.Fixed...),
		Builds:      acc.top.sorted(),
		Evaluated:   acc.evaluated,
		Skipped:     acc.skipped,
		SearchSpace: space,
	}, nil
}

func (req Request) validate() (*damage.Model, error) {
	if req.SlotBudget < 0 {
		return nil, configErrorf("slot budget must be >= 0, got %d", req.SlotBudget)
	}
	if req.TopN < 1 {
		return nil, configErrorf("top_n must be >= 1, got %d", req.TopN)
	}
	model, err := damage.NewModel(req.Weapon, req.Flags)
	if err != nil {
		return nil, err
	}
	if err := damage.ValidateSet(req.Fixed); err != nil {
		return nil, fmt.Errorf("fixed mods: %w", err)
	}

	names := make(map[string]struct{}, len(req.Fixed)+len(req.Available))
	members := make(map[string]int)
	for _, m := range req.Fixed {
		names[m.Name] = struct{}{}
		if m.ExclusionGroup != "" {
			members[m.ExclusionGroup]++
		}
	}
	for _, m := range req.Available {
		if err := damage.ValidateModifier(m); err != nil {
			return nil, fmt.Errorf("available mods: %w", err)
		}
		if _, ok := names[m.Name]; ok {
			return nil, configErrorf("duplicate modifier %q", m.Name)
		}
		names[m.Name] = struct{}{}
		if m.ExclusionGroup != "" {
			members[m.ExclusionGroup]++
		}
	}
	for group, n := range members {
		if n < 2 {
			return nil, configErrorf("exclusion group %q has a single member", group)
		}
	}
	return model, nil
}

// plan is the read-only view of a request shared by all workers.
type plan struct {
	fixed     []damage.Modifier
	available []damage.Modifier
	budget    int
	// groups[i] is the exclusion group index of available[i], or -1.
	groups []int
	// blocked[g] is set when a fixed modifier already occupies group g.
	blocked []bool
}

func newPlan(req Request) *plan {
	p := &plan{
		fixed:     req.Fixed,
		available: req.Available,
		budget:    req.SlotBudget,
		groups:    make([]int, len(req.Available)),
	}
	index := make(map[string]int)
	groupOf := func(name string) int {
		g, ok := index[name]
		if !ok {
			g = len(index)
			index[name] = g
			p.blocked = append(p.blocked, false)
		}
		return g
	}
	for i, m := range req.Available {
		p.groups[i] = -1
		if m.ExclusionGroup != "" {
			p.groups[i] = groupOf(m.ExclusionGroup)
		}
	}
	for _, m := range req.Fixed {
		if m.ExclusionGroup != "" {
			p.blocked[groupOf(m.ExclusionGroup)] = true
		}
	}
	return p
}

// admissible reports whether the subset fits the budget and holds at most one
// member of every exclusion group.
func (p *plan) admissible(idx []int) bool {
	cost := 0
	for i, a := range idx {
		cost += p.available[a].Cost
		g := p.groups[a]
		if g < 0 {
			continue
		}
		if p.blocked[g] {
			return false
		}
		for _, b := range idx[:i] {
			if p.groups[b] == g {
				return false
			}
		}
	}
	return cost <= p.budget
}

type item struct {
	seq int
	idx []int
}

func (p *plan) evaluate(model *damage.Model, it item) (Ranked, error) {
	chosen := make([]damage.Modifier, len(it.idx))
	for i, a := range it.idx {
		chosen[i] = p.available[a]
	}
	resolved := make([]damage.Modifier, 0, len(p.fixed)+len(chosen))
	resolved = append(resolved, p.fixed...)
	resolved = append(resolved, chosen...)
	res, err := model.Evaluate(resolved)
	if err != nil {
		return Ranked{}, err
	}
	return Ranked{Candidate: Candidate{Mods: chosen, Seq: it.seq}, Result: res}, nil
}

func (p *plan) evaluateBatch(model *damage.Model, items []item, limit int) (*topN, error) {
	local := newTopN(limit)
	for _, it := range items {
		r, err := p.evaluate(model, it)
		if err != nil {
			return nil, err
		}
		local.offer(r)
	}
	return local, nil
}

// accumulator is the shared top-N of a run.
type accumulator struct {
	mu         sync.Mutex
	top        *topN
	evaluated  int
	skipped    int
	total      int
	onProgress func(done, total int)
}

func (a *accumulator) add(local *topN, evaluated, skipped int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if local != nil {
		a.top.merge(local)
	}
	a.evaluated += evaluated
	a.skipped += skipped
	if a.onProgress != nil {
		a.onProgress(a.evaluated+a.skipped, a.total)
	}
}

// batches walks the subsets and hands admissible ones to emit in groups of
// batchSize, together with the number of subsets skipped since the last call.
func (p *plan) batches(ctx context.Context, emit func(items []item, skipped int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		items   = make([]item, 0, batchSize)
		skipped int
		seq     int
		err     error
	)
	forEachSubset(len(p.available), p.budget, func(idx []int) bool {
		s := seq
		seq++
		if !p.admissible(idx) {
			skipped++
			return true
		}
		items = append(items, item{seq: s, idx: append([]int(nil), idx...)})
		if len(items) < batchSize {
			return true
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		if err = emit(items, skipped); err != nil {
			return false
		}
		items = make([]item, 0, batchSize)
		skipped = 0
		return true
	})
	if err != nil {
		return err
	}
	if len(items) > 0 || skipped > 0 {
		return emit(items, skipped)
	}
	return nil
}

func runSequential(ctx context.Context, p *plan, model *damage.Model, acc *accumulator) error {
	return p.batches(ctx, func(items []item, skipped int) error {
		local, err := p.evaluateBatch(model, items, acc.top.limit)
		if err != nil {
			return err
		}
		acc.add(local, len(items), skipped)
		return nil
	})
}

func runParallel(ctx context.Context, p *plan, model *damage.Model, acc *accumulator, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	err := p.batches(gctx, func(items []item, skipped int) error {
		g.Go(func() error {
			local, err := p.evaluateBatch(model, items, acc.top.limit)
			if err != nil {
				return err
			}
			acc.add(local, len(items), skipped)
			return nil
		})
		return nil
	})
	if werr := g.Wait(); werr != nil {
		return werr
	}
	return err
}
