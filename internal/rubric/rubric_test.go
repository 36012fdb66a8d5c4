package rubric

import "testing"

func TestGradeFor(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{3, GradeLow},
		{4, GradeLow},
		{5, GradeLow},
		{6, GradeMidLow},
		{7, GradeMidLow},
		{8, GradeMid},
		{9, GradeMid},
		{10, GradeMidHigh},
		{11, GradeMidHigh},
		{12, GradeHigh},
		{16, GradeHigh},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.total); got != tt.want {
			t.Errorf("GradeFor(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}

func TestScoringValidate(t *testing.T) {
	valid := Scoring{
		ConceptCount:         2,
		StepCount:            2,
		ExpressionComplexity: 1,
		UnknownCount:         1,
		CalcComplexity:       1,
		TrapElement:          0,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid scoring rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(*Scoring)
	}{
		{"concept_count zero", func(s *Scoring) { s.ConceptCount = 0 }},
		{"step_count too high", func(s *Scoring) { s.StepCount = 4 }},
		{"expression_complexity negative", func(s *Scoring) { s.ExpressionComplexity = -1 }},
		{"unknown_count zero", func(s *Scoring) { s.UnknownCount = 0 }},
		{"calc_complexity too high", func(s *Scoring) { s.CalcComplexity = 3 }},
		{"trap_element negative", func(s *Scoring) { s.TrapElement = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mut(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestGradeBoundaries(t *testing.T) {
	// Total exactly 5 stays in the lower bucket; 6 starts the next one.
	low := Scoring{ConceptCount: 1, StepCount: 1, ExpressionComplexity: 1, UnknownCount: 1, CalcComplexity: 1, TrapElement: 0}
	total, grade, err := Grade(low)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if total != 5 || grade != GradeLow {
		t.Errorf("total=%d grade=%q, want 5 %q", total, grade, GradeLow)
	}

	midLow := low
	midLow.TrapElement = 1
	total, grade, err = Grade(midLow)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if total != 6 || grade != GradeMidLow {
		t.Errorf("total=%d grade=%q, want 6 %q", total, grade, GradeMidLow)
	}
}

func TestGradeRepeatable(t *testing.T) {
	s := Scoring{ConceptCount: 3, StepCount: 2, ExpressionComplexity: 2, UnknownCount: 2, CalcComplexity: 2, TrapElement: 1}
	t1, g1, err := Grade(s)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	t2, g2, err := Grade(s)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if t1 != t2 || g1 != g2 {
		t.Errorf("Grade not repeatable: (%d,%q) vs (%d,%q)", t1, g1, t2, g2)
	}
	if t1 != 12 || g1 != GradeHigh {
		t.Errorf("total=%d grade=%q, want 12 %q", t1, g1, GradeHigh)
	}
}

func TestGradeRejectsInvalid(t *testing.T) {
	s := Scoring{ConceptCount: 0, StepCount: 1, ExpressionComplexity: 1, UnknownCount: 1}
	if _, _, err := Grade(s); err == nil {
		t.Error("Grade should reject out-of-domain axis")
	}
}
