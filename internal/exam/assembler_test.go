package exam

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/hakwonlab/mathbank/internal/model"
)

func poolFixture() []Candidate {
	difficulties := []int{5, 5, 4, 4, 4, 3, 3, 2, 1, 1}
	pool := make([]Candidate, len(difficulties))
	for i, d := range difficulties {
		pool[i] = Candidate{ProblemID: int64(i + 1), Difficulty: d}
	}
	return pool
}

func seededAssembler(seed uint64) *Assembler {
	return New(WithRand(rand.New(rand.NewPCG(seed, 0))))
}

func countByDifficulty(selected []Selected) map[int]int {
	counts := map[int]int{}
	for _, s := range selected {
		counts[s.Difficulty]++
	}
	return counts
}

func TestAssembleDistribution(t *testing.T) {
	request := []model.BucketCount{
		{Label: model.BucketHigh, Count: 2},
		{Label: model.BucketMid, Count: 1},
		{Label: model.BucketLow, Count: 1},
	}

	// Bucket membership and counts must hold for any shuffle order.
	for seed := uint64(0); seed < 20; seed++ {
		selected, warnings, err := seededAssembler(seed).Assemble(poolFixture(), request)
		if err != nil {
			t.Fatalf("seed %d: Assemble: %v", seed, err)
		}
		if len(warnings) != 0 {
			t.Errorf("seed %d: unexpected warnings %v", seed, warnings)
		}
		if len(selected) != 4 {
			t.Fatalf("seed %d: selected %d problems, want 4", seed, len(selected))
		}

		counts := countByDifficulty(selected)
		if counts[4] != 2 || counts[3] != 1 || counts[2] != 1 {
			t.Errorf("seed %d: counts = %v, want 2x4 1x3 1x2", seed, counts)
		}
		for d := range counts {
			if d != 4 && d != 3 && d != 2 {
				t.Errorf("seed %d: problem of unrequested difficulty %d selected", seed, d)
			}
		}
	}
}

func TestAssembleOrderIndexAndPoints(t *testing.T) {
	request := []model.BucketCount{
		{Label: model.BucketHighest, Count: 2},
		{Label: model.BucketLowest, Count: 2},
	}
	selected, _, err := seededAssembler(7).Assemble(poolFixture(), request)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, s := range selected {
		if s.OrderIndex != i+1 {
			t.Errorf("OrderIndex[%d] = %d, want %d", i, s.OrderIndex, i+1)
		}
		if s.Points != DefaultPoints {
			t.Errorf("Points = %d, want %d", s.Points, DefaultPoints)
		}
	}

	// Bucket order is the supply order: 최상 problems come before 최하.
	if selected[0].Difficulty != 5 || selected[1].Difficulty != 5 {
		t.Error("first bucket's problems should lead the selection")
	}
	if selected[2].Difficulty != 1 || selected[3].Difficulty != 1 {
		t.Error("second bucket's problems should follow")
	}
}

func TestAssembleNoDuplicateProblems(t *testing.T) {
	request := []model.BucketCount{
		{Label: model.BucketHigh, Count: 3},
		{Label: model.BucketMid, Count: 2},
	}
	selected, _, err := seededAssembler(3).Assemble(poolFixture(), request)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	seen := map[int64]bool{}
	for _, s := range selected {
		if seen[s.ProblemID] {
			t.Errorf("problem %d selected twice", s.ProblemID)
		}
		seen[s.ProblemID] = true
	}
}

func TestAssembleShortfall(t *testing.T) {
	// Only one difficulty-5 problem exists; request five.
	pool := []Candidate{
		{ProblemID: 1, Difficulty: 5},
		{ProblemID: 2, Difficulty: 3},
	}
	request := []model.BucketCount{{Label: model.BucketHighest, Count: 5}}

	selected, warnings, err := seededAssembler(1).Assemble(pool, request)
	if err != nil {
		t.Fatalf("shortfall must not fail: %v", err)
	}
	if len(selected) != 1 {
		t.Fatalf("selected %d, want 1", len(selected))
	}
	if selected[0].Difficulty != 5 {
		t.Error("shortfall must never substitute another difficulty")
	}
	if len(warnings) != 1 {
		t.Errorf("expected one shortfall warning, got %v", warnings)
	}
}

func TestAssembleEmptySelection(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		request := []model.BucketCount{{Label: model.BucketMid, Count: 2}}
		_, _, err := seededAssembler(1).Assemble(nil, request)
		if !errors.Is(err, ErrNoMatchingProblems) {
			t.Errorf("err = %v, want ErrNoMatchingProblems", err)
		}
	})

	t.Run("no difficulty match", func(t *testing.T) {
		pool := []Candidate{{ProblemID: 1, Difficulty: 2}}
		request := []model.BucketCount{{Label: model.BucketHighest, Count: 1}}
		_, _, err := seededAssembler(1).Assemble(pool, request)
		if !errors.Is(err, ErrNoMatchingProblems) {
			t.Errorf("err = %v, want ErrNoMatchingProblems", err)
		}
	})
}

func TestAssembleInvalidRequest(t *testing.T) {
	pool := poolFixture()
	tests := []struct {
		name    string
		request []model.BucketCount
	}{
		{"empty request", nil},
		{"unknown label", []model.BucketCount{{Label: "extreme", Count: 1}}},
		{"negative count", []model.BucketCount{{Label: model.BucketMid, Count: -1}}},
		{"duplicate label", []model.BucketCount{
			{Label: model.BucketMid, Count: 1},
			{Label: model.BucketMid, Count: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := seededAssembler(1).Assemble(pool, tt.request); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
