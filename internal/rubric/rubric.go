// Package rubric implements the six-axis difficulty scoring rubric.
//
// Four axes (concept count, step count, expression complexity, unknown
// count) score 1-3; two axes (calculation complexity, trap element) score
// 0-2. The total maps to a discrete grade label through fixed thresholds.
// This function is the single source of truth for totals and grades:
// derived arithmetic reported by the classification model is always
// recomputed here.
package rubric

import "fmt"

// Grade labels, lowest to highest.
const (
	GradeLow     = "하"
	GradeMidLow  = "중하"
	GradeMid     = "중"
	GradeMidHigh = "중상"
	GradeHigh    = "상"
)

// Scoring holds the six raw axis scores supplied by a classifier.
type Scoring struct {
	ConceptCount         int `json:"concept_count"`
	StepCount            int `json:"step_count"`
	ExpressionComplexity int `json:"expression_complexity"`
	UnknownCount         int `json:"unknown_count"`
	CalcComplexity       int `json:"calc_complexity"`
	TrapElement          int `json:"trap_element"`
}

// Validate checks each axis against its declared domain. Scores outside the
// domain are an error surfaced to the caller, never clamped.
func (s Scoring) Validate() error {
	axes := []struct {
		name     string
		value    int
		min, max int
	}{
		{"concept_count", s.ConceptCount, 1, 3},
		{"step_count", s.StepCount, 1, 3},
		{"expression_complexity", s.ExpressionComplexity, 1, 3},
		{"unknown_count", s.UnknownCount, 1, 3},
		{"calc_complexity", s.CalcComplexity, 0, 2},
		{"trap_element", s.TrapElement, 0, 2},
	}
	for _, a := range axes {
		if a.value < a.min || a.value > a.max {
			return fmt.Errorf("axis %s = %d outside domain [%d,%d]", a.name, a.value, a.min, a.max)
		}
	}
	return nil
}

// Total returns the sum of all six axes.
func (s Scoring) Total() int {
	return s.ConceptCount + s.StepCount + s.ExpressionComplexity +
		s.UnknownCount + s.CalcComplexity + s.TrapElement
}

// GradeFor maps a total to its grade label. Boundary values belong to the
// lower bucket: 5 is still 하, 6 starts 중하.
func GradeFor(total int) string {
	switch {
	case total <= 5:
		return GradeLow
	case total <= 7:
		return GradeMidLow
	case total <= 9:
		return GradeMid
	case total <= 11:
		return GradeMidHigh
	default:
		return GradeHigh
	}
}

// Grade validates the scoring and returns its total and grade label.
func Grade(s Scoring) (total int, grade string, err error) {
	if err := s.Validate(); err != nil {
		return 0, "", err
	}
	total = s.Total()
	return total, GradeFor(total), nil
}

// Describe renders the rubric as instruction text for the classification
// prompt in full mode.
func Describe() string {
	return `난이도 채점 기준 (여섯 축의 합으로 등급 결정):
- concept_count: 필요한 개념 수 (1=단일 개념, 2=두 개념 결합, 3=셋 이상)
- step_count: 풀이 단계 수 (1=한 단계, 2=두 단계, 3=세 단계 이상)
- expression_complexity: 식 표현의 복잡도 (1=단순, 2=보통, 3=복잡)
- unknown_count: 미지수/변수 개수 (1=하나, 2=둘, 3=셋 이상)
- calc_complexity: 계산 부담 (0=암산 수준, 1=보통, 2=복잡한 계산)
- trap_element: 함정/예외 요소 (0=없음, 1=한 가지, 2=두 가지 이상)

총점 -> 등급: 3-5 하, 6-7 중하, 8-9 중, 10-11 중상, 12 이상 상.
total과 grade는 서버가 재계산하므로 축 점수만 정확히 기재할 것.`
}
