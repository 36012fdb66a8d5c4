package model

import (
	"fmt"
	"regexp"
	"time"
)

// CognitiveDomain is the reasoning-skill category a problem primarily exercises.
type CognitiveDomain string

const (
	CognitiveCalculation    CognitiveDomain = "CALCULATION"
	CognitiveUnderstanding  CognitiveDomain = "UNDERSTANDING"
	CognitiveInference      CognitiveDomain = "INFERENCE"
	CognitiveProblemSolving CognitiveDomain = "PROBLEM_SOLVING"
)

// ValidCognitive reports whether s is one of the four cognitive domains.
func ValidCognitive(s string) bool {
	switch CognitiveDomain(s) {
	case CognitiveCalculation, CognitiveUnderstanding, CognitiveInference, CognitiveProblemSolving:
		return true
	}
	return false
}

// typeCodeRegex matches the code grammar {PREFIX}-{LEVEL}-{DOMAIN}-{STANDARD_SEQ}-{SEQ},
// e.g. "MT-H1-AL-01-003".
var typeCodeRegex = regexp.MustCompile(`^[A-Z]+-[A-Z0-9]+-[A-Z0-9]+-\d{2}-\d{3}$`)

// ValidTypeCode reports whether code matches the taxonomy code grammar.
func ValidTypeCode(code string) bool {
	return typeCodeRegex.MatchString(code)
}

// TypeRecord is a taxonomy leaf: one fine-grained problem pattern.
// Identity is TypeCode; records are upserted on it and soft-deleted via IsActive.
type TypeRecord struct {
	TypeCode        string          `json:"type_code"`
	TypeName        string          `json:"type_name"`
	Description     string          `json:"description"`
	SolutionMethod  string          `json:"solution_method"`
	Subject         string          `json:"subject"`
	Area            string          `json:"area"`
	StandardCode    string          `json:"standard_code"`
	StandardContent string          `json:"standard_content"`
	Cognitive       CognitiveDomain `json:"cognitive"`
	DifficultyMin   int             `json:"difficulty_min"`
	DifficultyMax   int             `json:"difficulty_max"`
	Keywords        []string        `json:"keywords"`
	SchoolLevel     string          `json:"school_level"`
	LevelCode       string          `json:"level_code"`
	DomainCode      string          `json:"domain_code"`
	IsActive        bool            `json:"is_active"`
}

// Validate checks the invariants a record must satisfy before it is stored.
func (t TypeRecord) Validate() error {
	if !ValidTypeCode(t.TypeCode) {
		return fmt.Errorf("invalid type code %q", t.TypeCode)
	}
	if t.TypeName == "" {
		return fmt.Errorf("type %s: name is empty", t.TypeCode)
	}
	if !ValidCognitive(string(t.Cognitive)) {
		return fmt.Errorf("type %s: invalid cognitive domain %q", t.TypeCode, t.Cognitive)
	}
	if t.DifficultyMin < 1 || t.DifficultyMax > 5 || t.DifficultyMin > t.DifficultyMax {
		return fmt.Errorf("type %s: difficulty range %d-%d outside 1..5",
			t.TypeCode, t.DifficultyMin, t.DifficultyMax)
	}
	if t.LevelCode == "" || t.DomainCode == "" || t.StandardCode == "" {
		return fmt.Errorf("type %s: level/domain/standard codes are required", t.TypeCode)
	}
	return nil
}

// StandardNode groups the types belonging to one achievement standard.
type StandardNode struct {
	StandardCode    string       `json:"standard_code"`
	StandardContent string       `json:"standard_content"`
	Types           []TypeRecord `json:"types"`
}

// DomainNode groups the standards of one subject-area domain.
type DomainNode struct {
	DomainCode string         `json:"domain_code"`
	Standards  []StandardNode `json:"standards"`
}

// LevelNode groups the domains of one schooling stage.
type LevelNode struct {
	LevelCode   string       `json:"level_code"`
	SchoolLevel string       `json:"school_level"`
	Domains     []DomainNode `json:"domains"`
}

// Tree is the derived four-level read view over active type records.
type Tree struct {
	Levels         []LevelNode `json:"levels"`
	TotalTypes     int         `json:"total_types"`
	TotalStandards int         `json:"total_standards"`
}

// Problem is a bank entry eligible for classification and exam assembly.
// OCR ingestion and file storage live outside this engine; only the fields
// the engine reads are modeled.
type Problem struct {
	ID       int64  `json:"id"`
	Content  string `json:"content"`
	Answer   string `json:"answer"`
	Subject  string `json:"subject"`
	Chapter  string `json:"chapter"`
	IsActive bool   `json:"is_active"`
}

// DifficultyScoring is the six-axis rubric breakdown attached to a
// classification in full mode.
type DifficultyScoring struct {
	ConceptCount         int    `json:"concept_count"`
	StepCount            int    `json:"step_count"`
	ExpressionComplexity int    `json:"expression_complexity"`
	UnknownCount         int    `json:"unknown_count"`
	CalcComplexity       int    `json:"calc_complexity"`
	TrapElement          int    `json:"trap_element"`
	Total                int    `json:"total"`
	Grade                string `json:"grade"`
}

// Classification links a problem to a taxonomy leaf with scored metadata.
// Re-classification replaces the record wholesale; human review only flips
// IsVerified.
type Classification struct {
	ID                int64              `json:"id"`
	ProblemID         int64              `json:"problem_id"`
	TypeCode          string             `json:"type_code"`
	Difficulty        int                `json:"difficulty"`
	DifficultyScoring *DifficultyScoring `json:"difficulty_scoring,omitempty"`
	CognitiveDomain   CognitiveDomain    `json:"cognitive_domain"`
	Confidence        float64            `json:"confidence"`
	IsVerified        bool               `json:"is_verified"`
	Warnings          []string           `json:"warnings,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// ExamStatus is the lifecycle state of an assembled exam.
type ExamStatus string

const (
	ExamDraft     ExamStatus = "DRAFT"
	ExamPublished ExamStatus = "PUBLISHED"
	ExamArchived  ExamStatus = "ARCHIVED"
)

// Exam is an ordered, persisted collection of problems. ProblemCount is
// denormalized and must always equal the number of ExamProblem links.
type Exam struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	CreatedBy    string     `json:"created_by"`
	Status       ExamStatus `json:"status"`
	ProblemCount int        `json:"problem_count"`
	Subject      string     `json:"subject"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ExamProblem is one ordered link between an exam and a problem.
type ExamProblem struct {
	ExamID     int64 `json:"exam_id"`
	ProblemID  int64 `json:"problem_id"`
	OrderIndex int   `json:"order_index"`
	Points     int   `json:"points"`
}

// Difficulty buckets on the five-point scale, labeled as the product
// presents them.
const (
	BucketHighest = "최상" // 5
	BucketHigh    = "상"  // 4
	BucketMid     = "중"  // 3
	BucketLow     = "하"  // 2
	BucketLowest  = "최하" // 1
)

// BucketValue maps a difficulty bucket label to its canonical integer.
func BucketValue(label string) (int, bool) {
	switch label {
	case BucketHighest:
		return 5, true
	case BucketHigh:
		return 4, true
	case BucketMid:
		return 3, true
	case BucketLow:
		return 2, true
	case BucketLowest:
		return 1, true
	}
	return 0, false
}

// BucketLabel is the inverse of BucketValue.
func BucketLabel(difficulty int) (string, bool) {
	switch difficulty {
	case 5:
		return BucketHighest, true
	case 4:
		return BucketHigh, true
	case 3:
		return BucketMid, true
	case 2:
		return BucketLow, true
	case 1:
		return BucketLowest, true
	}
	return "", false
}

// BucketCount is one entry of a difficulty-distribution request. The order
// of entries is the order buckets are filled.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TypeImport is one row of a curriculum-data import file.
type TypeImport struct {
	TypeCode        string   `json:"type_code"`
	TypeName        string   `json:"type_name"`
	Description     string   `json:"description"`
	SolutionMethod  string   `json:"solution_method"`
	Subject         string   `json:"subject"`
	Area            string   `json:"area"`
	StandardCode    string   `json:"standard_code"`
	StandardContent string   `json:"standard_content"`
	Cognitive       string   `json:"cognitive"`
	DifficultyMin   int      `json:"difficulty_min"`
	DifficultyMax   int      `json:"difficulty_max"`
	Keywords        []string `json:"keywords"`
	SchoolLevel     string   `json:"school_level"`
	LevelCode       string   `json:"level_code"`
	DomainCode      string   `json:"domain_code"`
}

// Record converts an import row into an active TypeRecord.
func (ti TypeImport) Record() TypeRecord {
	return TypeRecord{
		TypeCode:        ti.TypeCode,
		TypeName:        ti.TypeName,
		Description:     ti.Description,
		SolutionMethod:  ti.SolutionMethod,
		Subject:         ti.Subject,
		Area:            ti.Area,
		StandardCode:    ti.StandardCode,
		StandardContent: ti.StandardContent,
		Cognitive:       CognitiveDomain(ti.Cognitive),
		DifficultyMin:   ti.DifficultyMin,
		DifficultyMax:   ti.DifficultyMax,
		Keywords:        ti.Keywords,
		SchoolLevel:     ti.SchoolLevel,
		LevelCode:       ti.LevelCode,
		DomainCode:      ti.DomainCode,
		IsActive:        true,
	}
}

// ProblemImport is one row of a problem seed file.
type ProblemImport struct {
	Content string `json:"content"`
	Answer  string `json:"answer"`
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
}
