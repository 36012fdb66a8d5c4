// Package store persists the taxonomy, problem bank, classifications and
// assembled exams in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hakwonlab/mathbank/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups of unknown identifiers. Not-found is
// always distinct from an empty success.
var ErrNotFound = errors.New("not found")

// MaxListLimit caps taxonomy list pagination.
const MaxListLimit = 500

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS problem_types (
		type_code TEXT PRIMARY KEY,
		type_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		solution_method TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		standard_code TEXT NOT NULL,
		standard_content TEXT NOT NULL DEFAULT '',
		cognitive TEXT NOT NULL,
		difficulty_min INTEGER NOT NULL,
		difficulty_max INTEGER NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		school_level TEXT NOT NULL DEFAULT '',
		level_code TEXT NOT NULL,
		domain_code TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		chapter TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		problem_id INTEGER NOT NULL UNIQUE,
		type_code TEXT NOT NULL,
		difficulty INTEGER NOT NULL,
		scoring TEXT,
		cognitive TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		is_verified INTEGER NOT NULL DEFAULT 0,
		warnings TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (problem_id) REFERENCES problems(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'DRAFT',
		problem_count INTEGER NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_problems (
		exam_id INTEGER NOT NULL,
		problem_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL,
		points INTEGER NOT NULL,
		UNIQUE (exam_id, problem_id),
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (problem_id) REFERENCES problems(id)
	);

	CREATE TABLE IF NOT EXISTS bank_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_types_level ON problem_types(level_code);
	CREATE INDEX IF NOT EXISTS idx_types_standard ON problem_types(standard_code);
	CREATE INDEX IF NOT EXISTS idx_classifications_type ON classifications(type_code);
	`
	_, err := s.db.Exec(schema)
	return err
}

const typeColumns = `type_code, type_name, description, solution_method, subject, area,
	standard_code, standard_content, cognitive, difficulty_min, difficulty_max,
	keywords, school_level, level_code, domain_code, is_active`

func scanType(row interface{ Scan(...any) error }) (model.TypeRecord, error) {
	var t model.TypeRecord
	var keywords string
	err := row.Scan(&t.TypeCode, &t.TypeName, &t.Description, &t.SolutionMethod,
		&t.Subject, &t.Area, &t.StandardCode, &t.StandardContent, &t.Cognitive,
		&t.DifficultyMin, &t.DifficultyMax, &keywords, &t.SchoolLevel,
		&t.LevelCode, &t.DomainCode, &t.IsActive)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(keywords), &t.Keywords); err != nil {
		return t, fmt.Errorf("type %s: decode keywords: %w", t.TypeCode, err)
	}
	return t, nil
}

// UpsertType inserts or fully replaces a taxonomy record keyed on its type
// code. Records are never hard-deleted; re-import reactivates.
func (s *Store) UpsertType(t model.TypeRecord) error {
	if err := t.Validate(); err != nil {
		return err
	}
	keywords, err := json.Marshal(t.Keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO problem_types (`+typeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(type_code) DO UPDATE SET
			type_name = excluded.type_name,
			description = excluded.description,
			solution_method = excluded.solution_method,
			subject = excluded.subject,
			area = excluded.area,
			standard_code = excluded.standard_code,
			standard_content = excluded.standard_content,
			cognitive = excluded.cognitive,
			difficulty_min = excluded.difficulty_min,
			difficulty_max = excluded.difficulty_max,
			keywords = excluded.keywords,
			school_level = excluded.school_level,
			level_code = excluded.level_code,
			domain_code = excluded.domain_code,
			is_active = excluded.is_active`,
		t.TypeCode, t.TypeName, t.Description, t.SolutionMethod, t.Subject, t.Area,
		t.StandardCode, t.StandardContent, t.Cognitive, t.DifficultyMin, t.DifficultyMax,
		string(keywords), t.SchoolLevel, t.LevelCode, t.DomainCode, t.IsActive,
	)
	return err
}

// DeactivateType soft-deletes a type.
func (s *Store) DeactivateType(typeCode string) error {
	res, err := s.db.Exec(`UPDATE problem_types SET is_active = 0 WHERE type_code = ?`, typeCode)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("type %s: %w", typeCode, ErrNotFound)
	}
	return nil
}

// TypeFilters narrows ListTypes. Empty fields mean no filtering.
type TypeFilters struct {
	Level     string
	Domain    string
	Cognitive string
	School    string
	Search    string
}

func (f TypeFilters) where() (string, []any) {
	clauses := []string{"is_active = 1"}
	var args []any
	if f.Level != "" {
		clauses = append(clauses, "level_code = ?")
		args = append(args, f.Level)
	}
	if f.Domain != "" {
		clauses = append(clauses, "domain_code = ?")
		args = append(args, f.Domain)
	}
	if f.Cognitive != "" {
		clauses = append(clauses, "cognitive = ?")
		args = append(args, f.Cognitive)
	}
	if f.School != "" {
		clauses = append(clauses, "school_level = ?")
		args = append(args, f.School)
	}
	if f.Search != "" {
		clauses = append(clauses, "(type_name LIKE ? OR description LIKE ? OR keywords LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	return strings.Join(clauses, " AND "), args
}

// ListTypes returns active taxonomy records matching the filters, ordered by
// type code, plus the total match count. Pagination outside its bounds is
// rejected before any query runs.
func (s *Store) ListTypes(f TypeFilters, limit, offset int) ([]model.TypeRecord, int, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, 0, fmt.Errorf("limit %d outside 1..%d", limit, MaxListLimit)
	}
	if offset < 0 {
		return nil, 0, fmt.Errorf("offset %d is negative", offset)
	}

	where, args := f.where()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM problem_types WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(
		`SELECT `+typeColumns+` FROM problem_types WHERE `+where+
			` ORDER BY type_code LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var types []model.TypeRecord
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, 0, err
		}
		types = append(types, t)
	}
	return types, total, rows.Err()
}

// TypeDetail bundles a record with its references for the detail endpoint.
type TypeDetail struct {
	Record          model.TypeRecord       `json:"record"`
	Classifications []model.Classification `json:"classifications"`
	RelatedTypes    []model.TypeRecord     `json:"related_types"`
}

// GetType returns one record plus the classifications referencing it and the
// other types sharing its achievement standard.
func (s *Store) GetType(typeCode string) (TypeDetail, error) {
	var detail TypeDetail

	rec, err := scanType(s.db.QueryRow(
		`SELECT `+typeColumns+` FROM problem_types WHERE type_code = ?`, typeCode))
	if errors.Is(err, sql.ErrNoRows) {
		return detail, fmt.Errorf("type %s: %w", typeCode, ErrNotFound)
	}
	if err != nil {
		return detail, err
	}
	detail.Record = rec

	detail.Classifications, err = s.classificationsByType(typeCode)
	if err != nil {
		return detail, err
	}

	rows, err := s.db.Query(
		`SELECT `+typeColumns+` FROM problem_types
		 WHERE standard_code = ? AND type_code != ? AND is_active = 1
		 ORDER BY type_code`,
		rec.StandardCode, typeCode,
	)
	if err != nil {
		return detail, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return detail, err
		}
		detail.RelatedTypes = append(detail.RelatedTypes, t)
	}
	return detail, rows.Err()
}

// ActiveTypes returns the full active snapshot ordered by type code. The
// tree builder, prompt builder and result validator all consume this
// snapshot explicitly so a request never mixes two taxonomy states.
func (s *Store) ActiveTypes() ([]model.TypeRecord, error) {
	rows, err := s.db.Query(
		`SELECT ` + typeColumns + ` FROM problem_types WHERE is_active = 1 ORDER BY type_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.TypeRecord
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// TypeStats holds the aggregate counts over active taxonomy rows.
type TypeStats struct {
	Total          int            `json:"total"`
	TotalStandards int            `json:"total_standards"`
	ByLevel        map[string]int `json:"by_level"`
	ByDomain       map[string]int `json:"by_domain"`
	ByCognitive    map[string]int `json:"by_cognitive"`
	BySchool       map[string]int `json:"by_school"`
}

// Stats runs the four independent group-by counts over active rows.
func (s *Store) Stats() (TypeStats, error) {
	stats := TypeStats{
		ByLevel:     map[string]int{},
		ByDomain:    map[string]int{},
		ByCognitive: map[string]int{},
		BySchool:    map[string]int{},
	}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT standard_code) FROM problem_types WHERE is_active = 1`,
	).Scan(&stats.Total, &stats.TotalStandards)
	if err != nil {
		return stats, err
	}

	groups := []struct {
		column string
		dest   map[string]int
	}{
		{"level_code", stats.ByLevel},
		{"domain_code", stats.ByDomain},
		{"cognitive", stats.ByCognitive},
		{"school_level", stats.BySchool},
	}
	for _, g := range groups {
		rows, err := s.db.Query(
			`SELECT ` + g.column + `, COUNT(*) FROM problem_types WHERE is_active = 1 GROUP BY ` + g.column)
		if err != nil {
			return stats, err
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return stats, err
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return stats, err
		}
		rows.Close()
	}
	return stats, nil
}
