package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hakwonlab/mathbank/internal/exam"
	"github.com/hakwonlab/mathbank/internal/model"
)

// InsertProblem stores a problem and returns its ID.
func (s *Store) InsertProblem(p model.Problem) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO problems (content, answer, subject, chapter, is_active) VALUES (?, ?, ?, ?, 1)`,
		p.Content, p.Answer, p.Subject, p.Chapter,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetProblem returns a problem by ID.
func (s *Store) GetProblem(id int64) (model.Problem, error) {
	var p model.Problem
	err := s.db.QueryRow(
		`SELECT id, content, answer, subject, chapter, is_active FROM problems WHERE id = ?`, id,
	).Scan(&p.ID, &p.Content, &p.Answer, &p.Subject, &p.Chapter, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("problem %d: %w", id, ErrNotFound)
	}
	return p, err
}

// UnclassifiedProblems returns active problems with no classification yet.
func (s *Store) UnclassifiedProblems() ([]model.Problem, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.content, p.answer, p.subject, p.chapter, p.is_active
		 FROM problems p
		 LEFT JOIN classifications c ON c.problem_id = p.id
		 WHERE p.is_active = 1 AND c.id IS NULL
		 ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Content, &p.Answer, &p.Subject, &p.Chapter, &p.IsActive); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// CandidateProblems builds the exam-assembly pool: active, classified
// problems matching the subject and chapter constraints, paired with their
// classified difficulty. Empty chapters means no chapter filtering.
func (s *Store) CandidateProblems(subject string, chapters []string) ([]exam.Candidate, error) {
	query := `SELECT p.id, c.difficulty
		 FROM problems p
		 JOIN classifications c ON c.problem_id = p.id
		 WHERE p.is_active = 1`
	var args []any
	if subject != "" {
		query += ` AND p.subject = ?`
		args = append(args, subject)
	}
	if len(chapters) > 0 {
		query += ` AND p.chapter IN (?` + strings.Repeat(", ?", len(chapters)-1) + `)`
		for _, ch := range chapters {
			args = append(args, ch)
		}
	}
	query += ` ORDER BY p.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []exam.Candidate
	for rows.Next() {
		var c exam.Candidate
		if err := rows.Scan(&c.ProblemID, &c.Difficulty); err != nil {
			return nil, err
		}
		pool = append(pool, c)
	}
	return pool, rows.Err()
}
