// Package exam selects concrete problem sets that satisfy a difficulty
// distribution request.
package exam

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/hakwonlab/mathbank/internal/model"
)

// ErrNoMatchingProblems signals that not a single pool problem matched the
// requested distribution. An exam is never created with zero problems.
var ErrNoMatchingProblems = errors.New("no problems match the requested distribution")

// DefaultPoints is the per-problem point value assigned at assembly time.
// Callers may adjust points later through exam editing, outside this engine.
const DefaultPoints = 5

// Candidate is one pool entry: a classified, eligible problem.
type Candidate struct {
	ProblemID  int64
	Difficulty int
}

// Selected is one chosen problem with its final position and points.
type Selected struct {
	ProblemID  int64 `json:"problem_id"`
	Difficulty int   `json:"difficulty"`
	OrderIndex int   `json:"order_index"`
	Points     int   `json:"points"`
}

// Assembler picks problems from a candidate pool. The zero value shuffles
// with the process-wide random source; tests inject a seeded one.
type Assembler struct {
	rnd    *rand.Rand
	points int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRand sets a deterministic random source.
func WithRand(r *rand.Rand) Option {
	return func(a *Assembler) { a.rnd = r }
}

// WithPoints overrides the default per-problem points.
func WithPoints(p int) Option {
	return func(a *Assembler) { a.points = p }
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{points: DefaultPoints}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble shuffles the pool and fills each requested bucket in the order
// the buckets were supplied, taking only problems whose difficulty equals
// the bucket's value. A bucket that cannot be filled is under-filled and
// reported as a warning; problems of other difficulties are never
// substituted. An empty final selection returns ErrNoMatchingProblems.
func (a *Assembler) Assemble(pool []Candidate, request []model.BucketCount) ([]Selected, []string, error) {
	if len(request) == 0 {
		return nil, nil, fmt.Errorf("difficulty distribution is empty")
	}

	type target struct {
		label string
		value int
		count int
	}
	targets := make([]target, 0, len(request))
	seen := make(map[string]bool, len(request))
	for _, bc := range request {
		value, ok := model.BucketValue(bc.Label)
		if !ok {
			return nil, nil, fmt.Errorf("unknown difficulty bucket %q", bc.Label)
		}
		if seen[bc.Label] {
			return nil, nil, fmt.Errorf("duplicate difficulty bucket %q", bc.Label)
		}
		seen[bc.Label] = true
		if bc.Count < 0 {
			return nil, nil, fmt.Errorf("bucket %s: negative count %d", bc.Label, bc.Count)
		}
		targets = append(targets, target{label: bc.Label, value: value, count: bc.Count})
	}

	shuffled := append([]Candidate(nil), pool...)
	a.shuffle(shuffled)

	var selected []Selected
	var warnings []string
	for _, tgt := range targets {
		taken := 0
		for _, c := range shuffled {
			if taken == tgt.count {
				break
			}
			if c.Difficulty == tgt.value {
				selected = append(selected, Selected{
					ProblemID:  c.ProblemID,
					Difficulty: c.Difficulty,
					OrderIndex: len(selected) + 1,
					Points:     a.points,
				})
				taken++
			}
		}
		if taken < tgt.count {
			warnings = append(warnings,
				fmt.Sprintf("bucket %s: requested %d, only %d available", tgt.label, tgt.count, taken))
		}
	}

	if len(selected) == 0 {
		return nil, nil, ErrNoMatchingProblems
	}
	return selected, warnings, nil
}

func (a *Assembler) shuffle(pool []Candidate) {
	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if a.rnd != nil {
		a.rnd.Shuffle(len(pool), swap)
		return
	}
	rand.Shuffle(len(pool), swap)
}
