package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hakwonlab/mathbank/internal/classify"
	"github.com/hakwonlab/mathbank/internal/store"
)

// classifyRequest is the body of POST /api/problems/{problemID}/classify.
// Mode defaults to light; level_code restricts the candidate table.
type classifyRequest struct {
	Mode      string `json:"mode"`
	LevelCode string `json:"level_code"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	problemID, err := strconv.ParseInt(chi.URLParam(r, "problemID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "problem ID must be an integer")
		return
	}

	req := classifyRequest{Mode: string(classify.ModeLight)}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
			return
		}
	}
	if req.Mode == "" {
		req.Mode = string(classify.ModeLight)
	}
	if !classify.ValidMode(req.Mode) {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "mode must be light or full")
		return
	}

	problem, err := h.store.GetProblem(problemID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "PROBLEM_NOT_FOUND", "ProblemNotFound", "")
		return
	}
	if err != nil {
		slog.Error("get problem", "problem_id", problemID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	snapshot, err := h.store.ActiveTypes()
	if err != nil {
		slog.Error("taxonomy snapshot", "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	cls, raw, err := h.classifier.Classify(r.Context(), problem, snapshot, classify.PromptOptions{
		Mode:      classify.Mode(req.Mode),
		LevelCode: req.LevelCode,
	})
	if err != nil {
		slog.Error("classification failed", "problem_id", problemID, "error", err)
		respondError(w, r, http.StatusBadGateway, "CLASSIFY_FAILED", "ClassifyFailed", err.Error())
		return
	}

	if _, err := h.store.SaveClassification(cls); err != nil {
		slog.Error("save classification", "problem_id", problemID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	slog.Info("problem classified",
		"problem_id", problemID,
		"type_code", cls.TypeCode,
		"difficulty", cls.Difficulty,
		"verified", cls.IsVerified,
		"warnings", len(cls.Warnings),
		"response_bytes", len(raw))

	respondJSON(w, http.StatusOK, cls)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	problemID, err := strconv.ParseInt(chi.URLParam(r, "problemID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "problem ID must be an integer")
		return
	}

	// An omitted body means verify; sending {"verified": false} undoes it.
	body := struct {
		Verified *bool `json:"verified"`
	}{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
			return
		}
	}
	verified := true
	if body.Verified != nil {
		verified = *body.Verified
	}

	if err := h.store.VerifyClassification(problemID, verified); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "CLASSIFICATION_NOT_FOUND", "ClassificationNotFound", "")
			return
		}
		slog.Error("verify classification", "problem_id", problemID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	cls, err := h.store.GetClassification(problemID)
	if err != nil {
		slog.Error("reload classification", "problem_id", problemID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}
	respondJSON(w, http.StatusOK, cls)
}
