// Package importer loads curriculum taxonomy data into the store from JSON
// and XLSX files. Re-importing a file upserts records keyed on type code.
package importer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hakwonlab/mathbank/internal/model"
	"github.com/hakwonlab/mathbank/internal/store"
)

// ImportTypes reads a taxonomy file, dispatching on its extension, and
// upserts every row. It returns the number of imported records.
func ImportTypes(db *store.Store, path string) (int, error) {
	var (
		records []model.TypeRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err = LoadJSON(path)
	case ".xlsx":
		records, err = LoadXLSX(path)
	default:
		return 0, fmt.Errorf("unsupported taxonomy file format: %s", path)
	}
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		if err := db.UpsertType(rec); err != nil {
			return 0, fmt.Errorf("import %s: %w", path, err)
		}
	}
	if err := db.RecordImport(filepath.Base(path), len(records)); err != nil {
		return 0, fmt.Errorf("record import of %s: %w", path, err)
	}

	slog.Info("imported taxonomy types", "path", path, "count", len(records))
	return len(records), nil
}

// LoadJSON parses a JSON taxonomy file: an array of type rows.
func LoadJSON(path string) ([]model.TypeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var rows []model.TypeImport
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return validateRows(rows, path)
}

// xlsxColumns maps header names to type-import fields. The curriculum team
// maintains the spreadsheet, so header order is not fixed.
var xlsxColumns = []string{
	"type_code", "type_name", "description", "solution_method", "subject",
	"area", "standard_code", "standard_content", "cognitive",
	"difficulty_min", "difficulty_max", "keywords", "school_level",
	"level_code", "domain_code",
}

// LoadXLSX parses the first sheet of an XLSX taxonomy file. The first row
// must be a header naming the columns; keywords are comma-separated.
func LoadXLSX(path string) ([]model.TypeRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(cells) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	colIdx := map[string]int{}
	for i, name := range cells[0] {
		colIdx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range xlsxColumns {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	cell := func(row []string, name string) string {
		i := colIdx[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rows []model.TypeImport
	for n, row := range cells[1:] {
		if len(row) == 0 {
			continue
		}
		dmin, err := strconv.Atoi(cell(row, "difficulty_min"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: difficulty_min: %w", path, n+2, err)
		}
		dmax, err := strconv.Atoi(cell(row, "difficulty_max"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: difficulty_max: %w", path, n+2, err)
		}

		var keywords []string
		for _, kw := range strings.Split(cell(row, "keywords"), ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}

		rows = append(rows, model.TypeImport{
			TypeCode:        cell(row, "type_code"),
			TypeName:        cell(row, "type_name"),
			Description:     cell(row, "description"),
			SolutionMethod:  cell(row, "solution_method"),
			Subject:         cell(row, "subject"),
			Area:            cell(row, "area"),
			StandardCode:    cell(row, "standard_code"),
			StandardContent: cell(row, "standard_content"),
			Cognitive:       cell(row, "cognitive"),
			DifficultyMin:   dmin,
			DifficultyMax:   dmax,
			Keywords:        keywords,
			SchoolLevel:     cell(row, "school_level"),
			LevelCode:       cell(row, "level_code"),
			DomainCode:      cell(row, "domain_code"),
		})
	}

	return validateRows(rows, path)
}

// validateRows converts and validates import rows. A duplicate code inside
// one file is an error; duplicates across imports are the upsert path.
func validateRows(rows []model.TypeImport, path string) ([]model.TypeRecord, error) {
	seen := make(map[string]bool, len(rows))
	records := make([]model.TypeRecord, 0, len(rows))
	for i, row := range rows {
		rec := row.Record()
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		if seen[rec.TypeCode] {
			return nil, fmt.Errorf("%s: duplicate type code %s", path, rec.TypeCode)
		}
		seen[rec.TypeCode] = true
		records = append(records, rec)
	}
	return records, nil
}

// ImportProblems seeds the problem bank from a JSON file for local runs.
func ImportProblems(db *store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var rows []model.ProblemImport
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, row := range rows {
		if row.Content == "" {
			return 0, fmt.Errorf("%s row %d: content is empty", path, i+1)
		}
		if _, err := db.InsertProblem(model.Problem{
			Content: row.Content,
			Answer:  row.Answer,
			Subject: row.Subject,
			Chapter: row.Chapter,
		}); err != nil {
			return 0, fmt.Errorf("insert problem from %s: %w", path, err)
		}
	}

	slog.Info("imported problems", "path", path, "count", len(rows))
	return len(rows), nil
}
