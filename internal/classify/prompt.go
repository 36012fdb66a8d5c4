// Package classify drives the external classification model: it builds the
// instruction prompt, checks the structured response against a schema, and
// validates/repairs the result against the taxonomy and rubric before it is
// persisted.
package classify

import (
	"fmt"
	"strings"

	"github.com/hakwonlab/mathbank/internal/model"
	"github.com/hakwonlab/mathbank/internal/rubric"
)

// Mode selects the classification prompt verbosity. Light mode asks only for
// the selected type and difficulty; full mode additionally demands the
// six-axis rubric breakdown.
type Mode string

const (
	ModeLight Mode = "light"
	ModeFull  Mode = "full"
)

// ValidMode reports whether s names a known mode.
func ValidMode(s string) bool {
	return Mode(s) == ModeLight || Mode(s) == ModeFull
}

// PromptOptions configures BuildPrompt.
type PromptOptions struct {
	Mode      Mode
	LevelCode string // restrict candidate types to one level; empty = all
}

// BuildPrompt composes the deterministic system prompt for the external
// model from a taxonomy snapshot. It performs no I/O and never returns an
// empty string: a snapshot with no matching rows falls back to a compact
// description of the code grammar so classification can proceed free-form.
func BuildPrompt(snapshot []model.TypeRecord, opts PromptOptions) string {
	var candidates []model.TypeRecord
	for _, rec := range snapshot {
		if !rec.IsActive {
			continue
		}
		if opts.LevelCode != "" && rec.LevelCode != opts.LevelCode {
			continue
		}
		candidates = append(candidates, rec)
	}

	var sb strings.Builder
	sb.WriteString("당신은 수학 문항 분류 전문가입니다. 주어진 문제를 교육과정 유형 체계의 ")
	sb.WriteString("단 하나의 유형 코드에 배정하고 난이도를 판정하세요.\n\n")

	if len(candidates) == 0 {
		sb.WriteString(fallbackGrammar)
	} else {
		sb.WriteString("후보 유형 목록:\n\n")
		sb.WriteString("| type_code | type_name | standard_code | cognitive | difficulty |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, c := range candidates {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d-%d |\n",
				c.TypeCode, c.TypeName, c.StandardCode, c.Cognitive,
				c.DifficultyMin, c.DifficultyMax)
		}
		sb.WriteString("\n위 목록에서 가장 적합한 type_code 하나를 expanded_type_code로 선택하세요.\n")
	}

	if opts.Mode == ModeFull {
		sb.WriteString("\n")
		sb.WriteString(rubric.Describe())
		sb.WriteString("\n\n다음 필드를 가진 JSON 객체로만 응답하세요:\n")
		sb.WriteString(`{"expanded_type_code": "<코드>", "difficulty": <1-5 정수>, ` +
			`"cognitive_domain": "<CALCULATION|UNDERSTANDING|INFERENCE|PROBLEM_SOLVING>", ` +
			`"confidence": <0.0-1.0>, "difficulty_scoring": {"concept_count": <1-3>, ` +
			`"step_count": <1-3>, "expression_complexity": <1-3>, "unknown_count": <1-3>, ` +
			`"calc_complexity": <0-2>, "trap_element": <0-2>, "total": <합>, "grade": "<등급>"}}`)
	} else {
		sb.WriteString("\n다음 필드를 가진 JSON 객체로만 응답하세요:\n")
		sb.WriteString(`{"expanded_type_code": "<코드>", "difficulty": <1-5 정수>, ` +
			`"cognitive_domain": "<CALCULATION|UNDERSTANDING|INFERENCE|PROBLEM_SOLVING>", ` +
			`"confidence": <0.0-1.0>}`)
	}
	sb.WriteString("\n")

	return sb.String()
}

// fallbackGrammar keeps degraded free-form classification possible when the
// taxonomy snapshot is empty for the requested filter.
const fallbackGrammar = `유형 목록을 사용할 수 없습니다. 코드 문법에 따라 자유 형식 코드를 생성하세요.

코드 문법: MT-{LEVEL}-{DOMAIN}-{표준 순번 2자리}-{유형 순번 3자리}
LEVEL: E56(초5-6), M1/M2/M3(중1-3), H1(고1 공통), H2(고2), H3(고3)
DOMAIN: NU(수와 연산), AL(문자와 식), FN(함수), GE(기하), ST(확률과 통계)
예시: MT-H1-AL-01-003
`
