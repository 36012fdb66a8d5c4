package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hakwonlab/mathbank/internal/model"
)

// CreateExam writes an exam row and its problem links as one transaction.
// The denormalized problem count and the links are never visible separately:
// any failure rolls back the whole write.
func (s *Store) CreateExam(e model.Exam, links []model.ExamProblem) (int64, error) {
	if len(links) == 0 {
		return 0, fmt.Errorf("exam must have at least one problem")
	}
	if e.ProblemCount != len(links) {
		return 0, fmt.Errorf("problem count %d does not match %d links", e.ProblemCount, len(links))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO exams (title, created_by, status, problem_count, subject, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.CreatedBy, e.Status, e.ProblemCount, e.Subject, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, link := range links {
		_, err := tx.Exec(
			`INSERT INTO exam_problems (exam_id, problem_id, order_index, points) VALUES (?, ?, ?, ?)`,
			examID, link.ProblemID, link.OrderIndex, link.Points,
		)
		if err != nil {
			return 0, fmt.Errorf("link problem %d: %w", link.ProblemID, err)
		}
	}

	return examID, tx.Commit()
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(id int64) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, title, created_by, status, problem_count, subject, created_at FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.CreatedBy, &e.Status, &e.ProblemCount, &e.Subject, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("exam %d: %w", id, ErrNotFound)
	}
	return e, err
}

// GetExamProblems returns the ordered links of an exam.
func (s *Store) GetExamProblems(examID int64) ([]model.ExamProblem, error) {
	rows, err := s.db.Query(
		`SELECT exam_id, problem_id, order_index, points FROM exam_problems
		 WHERE exam_id = ? ORDER BY order_index`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []model.ExamProblem
	for rows.Next() {
		var l model.ExamProblem
		if err := rows.Scan(&l.ExamID, &l.ProblemID, &l.OrderIndex, &l.Points); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// UpdateExamStatus moves an exam through its lifecycle.
func (s *Store) UpdateExamStatus(id int64, status model.ExamStatus) error {
	res, err := s.db.Exec(`UPDATE exams SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("exam %d: %w", id, ErrNotFound)
	}
	return nil
}
