package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hakwonlab/mathbank/internal/exam"
	appI18n "github.com/hakwonlab/mathbank/internal/i18n"
	"github.com/hakwonlab/mathbank/internal/model"
)

// generateExamRequest is the body of POST /api/exams.
type generateExamRequest struct {
	Title        string              `json:"title"`
	Subject      string              `json:"subject"`
	Chapters     []string            `json:"chapters"`
	CreatedBy    string              `json:"created_by"`
	Distribution []model.BucketCount `json:"distribution"`
}

func (h *Handler) handleGenerateExam(w http.ResponseWriter, r *http.Request) {
	var req generateExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
		return
	}
	if req.Title == "" || req.Subject == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "title and subject are required")
		return
	}

	pool, err := h.store.CandidateProblems(req.Subject, req.Chapters)
	if err != nil {
		slog.Error("candidate pool", "subject", req.Subject, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}
	if len(pool) == 0 {
		respondError(w, r, http.StatusUnprocessableEntity, "NO_CANDIDATES", "NoCandidates", "")
		return
	}

	assembler := exam.New(exam.WithPoints(h.examPoints()))
	selected, warnings, err := assembler.Assemble(pool, req.Distribution)
	if errors.Is(err, exam.ErrNoMatchingProblems) {
		respondError(w, r, http.StatusUnprocessableEntity, "NO_MATCHING_PROBLEMS", "NoMatchingProblems", "")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
		return
	}

	links := make([]model.ExamProblem, len(selected))
	for i, sel := range selected {
		links[i] = model.ExamProblem{
			ProblemID:  sel.ProblemID,
			OrderIndex: sel.OrderIndex,
			Points:     sel.Points,
		}
	}

	examID, err := h.store.CreateExam(model.Exam{
		Title:        req.Title,
		CreatedBy:    req.CreatedBy,
		Status:       model.ExamDraft,
		ProblemCount: len(selected),
		Subject:      req.Subject,
	}, links)
	if err != nil {
		slog.Error("create exam", "title", req.Title, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	slog.Info("exam assembled",
		"exam_id", examID,
		"problems", len(selected),
		"warnings", len(warnings))

	respondJSON(w, http.StatusCreated, map[string]any{
		"exam_id":  examID,
		"title":    req.Title,
		"status":   model.ExamDraft,
		"problems": selected,
		"warnings": warnings,
		"message":  appI18n.Tp(r.Context(), "ProblemsSelected", len(selected)),
	})
}

func (h *Handler) examPoints() int {
	if h.config.ExamPoints > 0 {
		return h.config.ExamPoints
	}
	return exam.DefaultPoints
}
