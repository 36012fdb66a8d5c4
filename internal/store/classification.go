package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hakwonlab/mathbank/internal/model"
)

// SaveClassification stores a classification for a problem, replacing any
// previous one wholesale. Re-classification is a full replace, not a merge.
func (s *Store) SaveClassification(c model.Classification) (int64, error) {
	scoring := sql.NullString{}
	if c.DifficultyScoring != nil {
		b, err := json.Marshal(c.DifficultyScoring)
		if err != nil {
			return 0, fmt.Errorf("encode scoring: %w", err)
		}
		scoring = sql.NullString{String: string(b), Valid: true}
	}
	warnings, err := json.Marshal(c.Warnings)
	if err != nil {
		return 0, fmt.Errorf("encode warnings: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO classifications
			(problem_id, type_code, difficulty, scoring, cognitive, confidence, is_verified, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(problem_id) DO UPDATE SET
			type_code = excluded.type_code,
			difficulty = excluded.difficulty,
			scoring = excluded.scoring,
			cognitive = excluded.cognitive,
			confidence = excluded.confidence,
			is_verified = excluded.is_verified,
			warnings = excluded.warnings,
			created_at = excluded.created_at`,
		c.ProblemID, c.TypeCode, c.Difficulty, scoring, c.CognitiveDomain,
		c.Confidence, c.IsVerified, string(warnings), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanClassification(row interface{ Scan(...any) error }) (model.Classification, error) {
	var c model.Classification
	var scoring sql.NullString
	var warnings string
	err := row.Scan(&c.ID, &c.ProblemID, &c.TypeCode, &c.Difficulty, &scoring,
		&c.CognitiveDomain, &c.Confidence, &c.IsVerified, &warnings, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	if scoring.Valid {
		c.DifficultyScoring = &model.DifficultyScoring{}
		if err := json.Unmarshal([]byte(scoring.String), c.DifficultyScoring); err != nil {
			return c, fmt.Errorf("decode scoring: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(warnings), &c.Warnings); err != nil {
		return c, fmt.Errorf("decode warnings: %w", err)
	}
	return c, nil
}

const classificationColumns = `id, problem_id, type_code, difficulty, scoring,
	cognitive, confidence, is_verified, warnings, created_at`

// GetClassification returns the classification for a problem.
func (s *Store) GetClassification(problemID int64) (model.Classification, error) {
	c, err := scanClassification(s.db.QueryRow(
		`SELECT `+classificationColumns+` FROM classifications WHERE problem_id = ?`, problemID))
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("classification for problem %d: %w", problemID, ErrNotFound)
	}
	return c, err
}

// classificationsByType lists classifications referencing a type code.
func (s *Store) classificationsByType(typeCode string) ([]model.Classification, error) {
	rows, err := s.db.Query(
		`SELECT `+classificationColumns+` FROM classifications WHERE type_code = ? ORDER BY problem_id`,
		typeCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// VerifyClassification records the human review flag. It is the only
// mutation allowed outside a full re-classification.
func (s *Store) VerifyClassification(problemID int64, verified bool) error {
	res, err := s.db.Exec(
		`UPDATE classifications SET is_verified = ? WHERE problem_id = ?`, verified, problemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("classification for problem %d: %w", problemID, ErrNotFound)
	}
	return nil
}
