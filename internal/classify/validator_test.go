package classify

import (
	"slices"
	"testing"

	"github.com/hakwonlab/mathbank/internal/model"
	"github.com/hakwonlab/mathbank/internal/rubric"
)

func TestValidateResultKnownType(t *testing.T) {
	res := Result{
		ExpandedTypeCode: "MT-H1-AL-01-001",
		Difficulty:       2,
		CognitiveDomain:  "CALCULATION",
		Confidence:       0.9,
	}

	cls, err := ValidateResult(res, snapshotFixture(), ModeLight)
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if cls.TypeCode != "MT-H1-AL-01-001" {
		t.Errorf("TypeCode = %q", cls.TypeCode)
	}
	if cls.Difficulty != 2 {
		t.Errorf("Difficulty = %d, want 2", cls.Difficulty)
	}
	if cls.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", cls.Confidence)
	}
	if len(cls.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cls.Warnings)
	}
}

func TestValidateResultUnknownType(t *testing.T) {
	res := Result{
		ExpandedTypeCode: "MT-H9-XX-99-999",
		Difficulty:       3,
		CognitiveDomain:  "INFERENCE",
		Confidence:       0.8,
	}

	cls, err := ValidateResult(res, snapshotFixture(), ModeLight)
	if err != nil {
		t.Fatalf("unknown code must be stored, not rejected: %v", err)
	}
	if !slices.Contains(cls.Warnings, WarnUnknownTypeCode) {
		t.Errorf("missing %s warning, got %v", WarnUnknownTypeCode, cls.Warnings)
	}
	if cls.Confidence != 0 {
		t.Errorf("confidence = %v, want forced 0", cls.Confidence)
	}
	if cls.IsVerified {
		t.Error("unknown-code classification must stay unverified")
	}
	if cls.TypeCode != "MT-H9-XX-99-999" {
		t.Errorf("free-form code must be preserved, got %q", cls.TypeCode)
	}
}

func TestValidateResultInactiveTypeIsUnknown(t *testing.T) {
	res := Result{
		ExpandedTypeCode: "MT-H1-AL-02-001", // present but inactive
		Difficulty:       3,
		CognitiveDomain:  "CALCULATION",
		Confidence:       0.7,
	}

	cls, err := ValidateResult(res, snapshotFixture(), ModeLight)
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if !slices.Contains(cls.Warnings, WarnUnknownTypeCode) {
		t.Error("inactive type code should be treated as unknown")
	}
}

func TestValidateResultDifficultyClamp(t *testing.T) {
	tests := []struct {
		name       string
		difficulty int
		want       int
	}{
		{"below type min clamps up", 1, 2},  // type range 2-4
		{"above type max clamps down", 5, 4},
		{"inside range untouched", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Result{
				ExpandedTypeCode: "MT-H1-AL-01-002",
				Difficulty:       tt.difficulty,
				CognitiveDomain:  "UNDERSTANDING",
				Confidence:       0.5,
			}
			cls, err := ValidateResult(res, snapshotFixture(), ModeLight)
			if err != nil {
				t.Fatalf("ValidateResult: %v", err)
			}
			if cls.Difficulty != tt.want {
				t.Errorf("Difficulty = %d, want %d", cls.Difficulty, tt.want)
			}
			clamped := slices.Contains(cls.Warnings, WarnDifficultyClamped)
			if (tt.difficulty != tt.want) != clamped {
				t.Errorf("clamp warning = %v for %d->%d", clamped, tt.difficulty, tt.want)
			}
		})
	}
}

func TestValidateResultFullModeRecomputesRubric(t *testing.T) {
	res := Result{
		ExpandedTypeCode: "MT-H1-AL-01-001",
		Difficulty:       2,
		CognitiveDomain:  "CALCULATION",
		Confidence:       0.9,
		DifficultyScoring: &model.DifficultyScoring{
			ConceptCount:         2,
			StepCount:            2,
			ExpressionComplexity: 2,
			UnknownCount:         1,
			CalcComplexity:       1,
			TrapElement:          0,
			// Model claims wrong arithmetic; both must be discarded.
			Total: 99,
			Grade: "상",
		},
	}

	cls, err := ValidateResult(res, snapshotFixture(), ModeFull)
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if cls.DifficultyScoring == nil {
		t.Fatal("full mode must retain the scoring breakdown")
	}
	if cls.DifficultyScoring.Total != 8 {
		t.Errorf("Total = %d, want recomputed 8", cls.DifficultyScoring.Total)
	}
	if cls.DifficultyScoring.Grade != rubric.GradeMid {
		t.Errorf("Grade = %q, want recomputed %q", cls.DifficultyScoring.Grade, rubric.GradeMid)
	}
	if !slices.Contains(cls.Warnings, WarnRubricRecomputed) {
		t.Errorf("missing %s warning, got %v", WarnRubricRecomputed, cls.Warnings)
	}
}

func TestValidateResultFullModeErrors(t *testing.T) {
	base := Result{
		ExpandedTypeCode: "MT-H1-AL-01-001",
		Difficulty:       2,
		CognitiveDomain:  "CALCULATION",
		Confidence:       0.9,
	}

	t.Run("missing scoring", func(t *testing.T) {
		if _, err := ValidateResult(base, snapshotFixture(), ModeFull); err == nil {
			t.Error("full mode without scoring should error")
		}
	})

	t.Run("axis outside domain", func(t *testing.T) {
		res := base
		res.DifficultyScoring = &model.DifficultyScoring{
			ConceptCount: 0, StepCount: 1, ExpressionComplexity: 1,
			UnknownCount: 1, CalcComplexity: 0, TrapElement: 0,
		}
		if _, err := ValidateResult(res, snapshotFixture(), ModeFull); err == nil {
			t.Error("out-of-domain axis should error, not clamp")
		}
	})
}

func TestValidateResultBadCognitive(t *testing.T) {
	res := Result{
		ExpandedTypeCode: "MT-H1-AL-01-001",
		Difficulty:       2,
		CognitiveDomain:  "GUESSING",
		Confidence:       0.9,
	}
	if _, err := ValidateResult(res, snapshotFixture(), ModeLight); err == nil {
		t.Error("invalid cognitive domain should error")
	}
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		raw     string
		wantErr bool
	}{
		{
			"valid light", ModeLight,
			`{"expanded_type_code":"MT-H1-AL-01-001","difficulty":3,"cognitive_domain":"CALCULATION","confidence":0.8}`,
			false,
		},
		{
			"missing field", ModeLight,
			`{"difficulty":3,"cognitive_domain":"CALCULATION","confidence":0.8}`,
			true,
		},
		{
			"difficulty out of range", ModeLight,
			`{"expanded_type_code":"X","difficulty":6,"cognitive_domain":"CALCULATION","confidence":0.8}`,
			true,
		},
		{
			"bad cognitive enum", ModeLight,
			`{"expanded_type_code":"X","difficulty":3,"cognitive_domain":"GUESSING","confidence":0.8}`,
			true,
		},
		{
			"not JSON", ModeLight,
			`I think it is a quadratic equation`,
			true,
		},
		{
			"full without scoring", ModeFull,
			`{"expanded_type_code":"X","difficulty":3,"cognitive_domain":"CALCULATION","confidence":0.8}`,
			true,
		},
		{
			"valid full", ModeFull,
			`{"expanded_type_code":"X","difficulty":3,"cognitive_domain":"CALCULATION","confidence":0.8,
			  "difficulty_scoring":{"concept_count":1,"step_count":1,"expression_complexity":1,
			  "unknown_count":1,"calc_complexity":0,"trap_element":0,"total":4,"grade":"하"}}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchema([]byte(tt.raw), tt.mode)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
