package classify

import (
	"strings"
	"testing"

	"github.com/hakwonlab/mathbank/internal/model"
)

func snapshotFixture() []model.TypeRecord {
	return []model.TypeRecord{
		{
			TypeCode:      "MT-H1-AL-01-001",
			TypeName:      "다항식의 덧셈과 뺄셈",
			StandardCode:  "10수학01-01",
			Cognitive:     model.CognitiveCalculation,
			DifficultyMin: 1,
			DifficultyMax: 3,
			LevelCode:     "H1",
			DomainCode:    "AL",
			IsActive:      true,
		},
		{
			TypeCode:      "MT-H1-AL-01-002",
			TypeName:      "다항식의 곱셈",
			StandardCode:  "10수학01-01",
			Cognitive:     model.CognitiveUnderstanding,
			DifficultyMin: 2,
			DifficultyMax: 4,
			LevelCode:     "H1",
			DomainCode:    "AL",
			IsActive:      true,
		},
		{
			TypeCode:      "MT-M3-GE-01-001",
			TypeName:      "삼각비",
			StandardCode:  "9수학02-01",
			Cognitive:     model.CognitiveInference,
			DifficultyMin: 1,
			DifficultyMax: 5,
			LevelCode:     "M3",
			DomainCode:    "GE",
			IsActive:      true,
		},
		{
			TypeCode:      "MT-H1-AL-02-001",
			TypeName:      "비활성 유형",
			StandardCode:  "10수학01-02",
			Cognitive:     model.CognitiveCalculation,
			DifficultyMin: 1,
			DifficultyMax: 5,
			LevelCode:     "H1",
			DomainCode:    "AL",
			IsActive:      false,
		},
	}
}

func TestBuildPromptLight(t *testing.T) {
	prompt := BuildPrompt(snapshotFixture(), PromptOptions{Mode: ModeLight, LevelCode: "H1"})

	if !strings.Contains(prompt, "MT-H1-AL-01-001") {
		t.Error("prompt should list H1 candidate types")
	}
	if !strings.Contains(prompt, "1-3") {
		t.Error("prompt should show the difficulty range of a candidate")
	}
	if strings.Contains(prompt, "MT-M3-GE-01-001") {
		t.Error("prompt should not list types outside the requested level")
	}
	if strings.Contains(prompt, "MT-H1-AL-02-001") {
		t.Error("prompt should not list inactive types")
	}
	if strings.Contains(prompt, "difficulty_scoring") {
		t.Error("light mode should not demand the rubric breakdown")
	}
	if !strings.Contains(prompt, "expanded_type_code") {
		t.Error("prompt should name the required output field")
	}
}

func TestBuildPromptFull(t *testing.T) {
	prompt := BuildPrompt(snapshotFixture(), PromptOptions{Mode: ModeFull})

	if !strings.Contains(prompt, "difficulty_scoring") {
		t.Error("full mode should demand the rubric breakdown")
	}
	if !strings.Contains(prompt, "concept_count") {
		t.Error("full mode should describe the rubric axes")
	}
	// All levels included when no level filter is set.
	if !strings.Contains(prompt, "MT-M3-GE-01-001") {
		t.Error("unfiltered prompt should include all active types")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	opts := PromptOptions{Mode: ModeFull, LevelCode: "H1"}
	a := BuildPrompt(snapshotFixture(), opts)
	b := BuildPrompt(snapshotFixture(), opts)
	if a != b {
		t.Error("BuildPrompt is not deterministic for identical input")
	}
}

func TestBuildPromptEmptySnapshotFallback(t *testing.T) {
	for _, mode := range []Mode{ModeLight, ModeFull} {
		prompt := BuildPrompt(nil, PromptOptions{Mode: mode})
		if prompt == "" {
			t.Fatalf("mode %s: prompt must never be empty", mode)
		}
		if !strings.Contains(prompt, "MT-{LEVEL}-{DOMAIN}") {
			t.Errorf("mode %s: fallback should describe the code grammar", mode)
		}
	}

	// A level filter that matches nothing also falls back.
	prompt := BuildPrompt(snapshotFixture(), PromptOptions{Mode: ModeLight, LevelCode: "E56"})
	if !strings.Contains(prompt, "MT-{LEVEL}-{DOMAIN}") {
		t.Error("no-match filter should fall back to the code grammar")
	}
}
