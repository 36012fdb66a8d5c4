package classify

import (
	"fmt"

	"github.com/hakwonlab/mathbank/internal/model"
	"github.com/hakwonlab/mathbank/internal/rubric"
)

// Warning codes recorded on a classification during validation.
const (
	WarnUnknownTypeCode   = "UNKNOWN_TYPE_CODE"
	WarnDifficultyClamped = "DIFFICULTY_CLAMPED"
	WarnRubricRecomputed  = "RUBRIC_RECOMPUTED"
)

// Result is the decoded structured response of the classification model.
type Result struct {
	ExpandedTypeCode  string                   `json:"expanded_type_code"`
	Difficulty        int                      `json:"difficulty"`
	CognitiveDomain   string                   `json:"cognitive_domain"`
	Confidence        float64                  `json:"confidence"`
	DifficultyScoring *model.DifficultyScoring `json:"difficulty_scoring,omitempty"`
}

// ValidateResult turns a schema-checked model response into a storable
// classification, applying the repair rules:
//
//   - an unknown or inactive type code is kept but flagged, with confidence
//     forced to 0 and the record left unverified;
//   - a difficulty outside the type's declared range is clamped to the
//     nearest bound and recorded as a warning;
//   - in full mode, total and grade are always recomputed from the raw axis
//     scores; the model's own arithmetic is discarded.
//
// Only contract violations that have no authoritative repair (missing
// scoring, axis scores outside their domain, a bad cognitive value) are
// returned as errors.
func ValidateResult(res Result, snapshot []model.TypeRecord, mode Mode) (model.Classification, error) {
	if !model.ValidCognitive(res.CognitiveDomain) {
		return model.Classification{}, fmt.Errorf("invalid cognitive domain %q", res.CognitiveDomain)
	}

	cls := model.Classification{
		TypeCode:        res.ExpandedTypeCode,
		Difficulty:      res.Difficulty,
		CognitiveDomain: model.CognitiveDomain(res.CognitiveDomain),
		Confidence:      res.Confidence,
	}

	var rec *model.TypeRecord
	for i := range snapshot {
		if snapshot[i].TypeCode == res.ExpandedTypeCode && snapshot[i].IsActive {
			rec = &snapshot[i]
			break
		}
	}

	if rec == nil {
		cls.Warnings = append(cls.Warnings, WarnUnknownTypeCode)
		cls.Confidence = 0
		cls.IsVerified = false
		cls.Difficulty = clamp(cls.Difficulty, 1, 5)
	} else {
		clamped := clamp(cls.Difficulty, rec.DifficultyMin, rec.DifficultyMax)
		if clamped != cls.Difficulty {
			cls.Warnings = append(cls.Warnings, WarnDifficultyClamped)
			cls.Difficulty = clamped
		}
	}

	if mode == ModeFull {
		if res.DifficultyScoring == nil {
			return model.Classification{}, fmt.Errorf("full mode response missing difficulty_scoring")
		}
		scoring := rubric.Scoring{
			ConceptCount:         res.DifficultyScoring.ConceptCount,
			StepCount:            res.DifficultyScoring.StepCount,
			ExpressionComplexity: res.DifficultyScoring.ExpressionComplexity,
			UnknownCount:         res.DifficultyScoring.UnknownCount,
			CalcComplexity:       res.DifficultyScoring.CalcComplexity,
			TrapElement:          res.DifficultyScoring.TrapElement,
		}
		total, grade, err := rubric.Grade(scoring)
		if err != nil {
			return model.Classification{}, fmt.Errorf("difficulty scoring: %w", err)
		}
		if res.DifficultyScoring.Total != total || res.DifficultyScoring.Grade != grade {
			cls.Warnings = append(cls.Warnings, WarnRubricRecomputed)
		}
		cls.DifficultyScoring = &model.DifficultyScoring{
			ConceptCount:         scoring.ConceptCount,
			StepCount:            scoring.StepCount,
			ExpressionComplexity: scoring.ExpressionComplexity,
			UnknownCount:         scoring.UnknownCount,
			CalcComplexity:       scoring.CalcComplexity,
			TrapElement:          scoring.TrapElement,
			Total:                total,
			Grade:                grade,
		}
	}

	return cls, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
