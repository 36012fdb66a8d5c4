package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hakwonlab/mathbank/internal/classify"
	appI18n "github.com/hakwonlab/mathbank/internal/i18n"
	"github.com/hakwonlab/mathbank/internal/model"
	"github.com/hakwonlab/mathbank/internal/store"
	"github.com/hakwonlab/mathbank/internal/taxonomy"
)

const defaultListLimit = 50

// Classifier produces a classification for one problem against a taxonomy
// snapshot.
type Classifier interface {
	Classify(ctx context.Context, problem model.Problem, snapshot []model.TypeRecord, opts classify.PromptOptions) (model.Classification, string, error)
}

// Config holds handler-level settings.
type Config struct {
	// AdminTokenHash is the bcrypt hash the X-Admin-Token header is
	// checked against on admin routes.
	AdminTokenHash string
	// ExamPoints is the per-problem point value assigned on assembly.
	ExamPoints int
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	classifier Classifier
	config     Config
}

// New creates a new Handler.
func New(s *store.Store, c Classifier, cfg Config) (*Handler, error) {
	return &Handler{store: s, classifier: c, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/types", h.handleListTypes)
		r.Get("/types/stats", h.handleTypeStats)
		r.Get("/types/tree", h.handleTypeTree)
		r.Get("/types/{typeCode}", h.handleGetType)

		r.Post("/exams", h.handleGenerateExam)
		r.Get("/exams/{examID}", h.handleGetExam)

		r.Post("/problems/{problemID}/classify", h.handleClassify)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/classifications/{problemID}/verify", h.handleVerify)
			r.Put("/exams/{examID}/status", h.handleExamStatus)
		})
	})
}

// errorBody is the envelope every failed request returns.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes the error envelope with a localized message. detail is
// optional machine-oriented context and is never localized.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, msgID, detail string) {
	respondJSON(w, status, map[string]errorBody{"error": {
		Code:    code,
		Message: appI18n.T(r.Context(), msgID),
		Detail:  detail,
	}})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := store.TypeFilters{
		Level:     q.Get("level"),
		Domain:    q.Get("domain"),
		Cognitive: q.Get("cognitive"),
		School:    q.Get("school"),
		Search:    q.Get("search"),
	}

	limit := defaultListLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "limit must be an integer")
			return
		}
		limit = n
	}
	offset := 0
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "offset must be an integer")
			return
		}
		offset = n
	}

	types, total, err := h.store.ListTypes(filters, limit, offset)
	if err != nil {
		if limit < 1 || limit > store.MaxListLimit || offset < 0 {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
			return
		}
		slog.Error("list types", "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"types":  types,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) handleTypeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		slog.Error("type stats", "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTypeTree(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ActiveTypes()
	if err != nil {
		slog.Error("tree snapshot", "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	school := r.URL.Query().Get("school")
	level := r.URL.Query().Get("level")
	if school != "" || level != "" {
		filtered := records[:0]
		for _, rec := range records {
			if school != "" && rec.SchoolLevel != school {
				continue
			}
			if level != "" && rec.LevelCode != level {
				continue
			}
			filtered = append(filtered, rec)
		}
		records = filtered
	}

	respondJSON(w, http.StatusOK, taxonomy.BuildTree(records))
}

func (h *Handler) handleGetType(w http.ResponseWriter, r *http.Request) {
	typeCode := chi.URLParam(r, "typeCode")
	detail, err := h.store.GetType(typeCode)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "TYPE_NOT_FOUND", "TypeNotFound", typeCode)
		return
	}
	if err != nil {
		slog.Error("get type", "type_code", typeCode, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "exam ID must be an integer")
		return
	}

	e, err := h.store.GetExam(examID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "EXAM_NOT_FOUND", "ExamNotFound", "")
		return
	}
	if err != nil {
		slog.Error("get exam", "exam_id", examID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	links, err := h.store.GetExamProblems(examID)
	if err != nil {
		slog.Error("get exam problems", "exam_id", examID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"exam":     e,
		"problems": links,
	})
}

func (h *Handler) handleExamStatus(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "exam ID must be an integer")
		return
	}

	var body struct {
		Status model.ExamStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", err.Error())
		return
	}
	switch body.Status {
	case model.ExamDraft, model.ExamPublished, model.ExamArchived:
	default:
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "InvalidRequest", "unknown exam status")
		return
	}

	if err := h.store.UpdateExamStatus(examID, body.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "EXAM_NOT_FOUND", "ExamNotFound", "")
			return
		}
		slog.Error("update exam status", "exam_id", examID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": examID, "status": body.Status})
}
