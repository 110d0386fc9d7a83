package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
	"github.com/Cgdx/aws-certification-practice/internal/scheduler"
	"github.com/Cgdx/aws-certification-practice/internal/scoring"
	"github.com/Cgdx/aws-certification-practice/internal/storage"
	"github.com/Cgdx/aws-certification-practice/internal/sync"
)

// Server exposes the scheduling engine over a JSON API. It is glue
// only: all learning decisions live in the scheduler.
type Server struct {
	db            *storage.DB
	sched         *scheduler.Scheduler
	validate      *validator.Validate
	router        *http.ServeMux
	defaultUserID int64
	sessionSize   int
	reposDir      string
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, sched *scheduler.Scheduler, defaultUserID int64, sessionSize int, reposDir string) *Server {
	s := &Server{
		db:            db,
		sched:         sched,
		validate:      validator.New(),
		router:        http.NewServeMux(),
		defaultUserID: defaultUserID,
		sessionSize:   sessionSize,
		reposDir:      reposDir,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("POST /api/reviews", s.handlePostReview())
	s.router.HandleFunc("GET /api/session", s.handleGetSession())
	s.router.HandleFunc("GET /api/progress", s.handleGetProgress())

	s.router.HandleFunc("POST /api/sessions", s.handlePostExamSession())
	s.router.HandleFunc("GET /api/sessions", s.handleGetExamSessions())

	s.router.HandleFunc("GET /api/sources", s.handleGetSources())
	s.router.HandleFunc("POST /api/sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /api/sync", s.handlePostSync())
}

type reviewRequest struct {
	QuestionID int64 `json:"question_id" validate:"required,gt=0"`
	UserID     int64 `json:"user_id" validate:"gte=0"`
	WasCorrect bool  `json:"was_correct"`
	Rating     int   `json:"rating" validate:"required,min=1,max=4"`
}

type reviewResponse struct {
	PointsAwarded int `json:"points_awarded"`
}

// handlePostReview records one review outcome. The XP award is decided
// here, not in the engine: points follow the rating, and only correct
// answers earn them.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		userID := req.UserID
		if userID == 0 {
			userID = s.defaultUserID
		}

		err := s.sched.RecordReview(req.QuestionID, userID, req.WasCorrect, domain.Rating(req.Rating))
		if err != nil {
			if errors.Is(err, scheduler.ErrInvalidRating) {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to record review", "question_id", req.QuestionID, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to record review")
			return
		}

		points := 0
		if req.WasCorrect {
			points = scoring.Points(domain.Rating(req.Rating))
		}
		s.respondJSON(w, http.StatusOK, reviewResponse{PointsAwarded: points})
	}
}

// handleGetSession returns the next practice session's questions.
func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examType := r.URL.Query().Get("exam_type")
		if examType == "" {
			s.respondError(w, http.StatusBadRequest, "exam_type is required")
			return
		}

		limit := s.sessionSize
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		questions, err := s.sched.SelectForSession(examType, s.userID(r), limit)
		if err != nil {
			slog.Error("failed to select session", "exam_type", examType, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to select session")
			return
		}
		if questions == nil {
			questions = []domain.Question{}
		}
		s.respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
	}
}

// handleGetProgress reports the user's learning progress for an exam type.
func (s *Server) handleGetProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examType := r.URL.Query().Get("exam_type")
		if examType == "" {
			s.respondError(w, http.StatusBadRequest, "exam_type is required")
			return
		}

		progress, err := s.sched.Progress(examType, s.userID(r))
		if err != nil {
			slog.Error("failed to get progress", "exam_type", examType, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to get progress")
			return
		}
		s.respondJSON(w, http.StatusOK, progress)
	}
}

type examSessionRequest struct {
	ExamType    string   `json:"exam_type" validate:"required"`
	UserID      int64    `json:"user_id" validate:"gte=0"`
	Score       int      `json:"score" validate:"gte=0"`
	Total       int      `json:"total" validate:"gte=0"`
	TimeSpent   int      `json:"time_spent" validate:"gte=0"`
	WeakDomains []string `json:"weak_domains"`
}

// handlePostExamSession stores a completed exam run.
func (s *Server) handlePostExamSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req examSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		userID := req.UserID
		if userID == 0 {
			userID = s.defaultUserID
		}

		session := &domain.ExamSession{
			ExamType:    req.ExamType,
			UserID:      userID,
			Date:        time.Now(),
			Score:       req.Score,
			Total:       req.Total,
			TimeSpent:   req.TimeSpent,
			WeakDomains: req.WeakDomains,
		}
		id, err := s.db.SaveExamSession(session)
		if err != nil {
			slog.Error("failed to save exam session", "exam_type", req.ExamType, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to save exam session")
			return
		}
		session.ID = id
		s.respondJSON(w, http.StatusCreated, session)
	}
}

// handleGetExamSessions lists the user's recent exam runs.
func (s *Server) handleGetExamSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examType := r.URL.Query().Get("exam_type")
		if examType == "" {
			s.respondError(w, http.StatusBadRequest, "exam_type is required")
			return
		}

		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		sessions, err := s.db.ExamSessions(examType, s.userID(r), limit)
		if err != nil {
			slog.Error("failed to get exam sessions", "exam_type", examType, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to get exam sessions")
			return
		}
		if sessions == nil {
			sessions = []domain.ExamSession{}
		}
		s.respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	}
}

type sourceResponse struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	LastScanned string `json:"last_scanned,omitempty"`
}

func toSourceResponse(src storage.Source) sourceResponse {
	out := sourceResponse{ID: src.ID, Path: src.Path, Type: src.Type}
	if src.LastScanned.Valid {
		out.LastScanned = src.LastScanned.Time.Format(time.RFC3339)
	}
	return out
}

// handleGetSources lists the configured question bank sources.
func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("failed to get sources", "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to get sources")
			return
		}
		out := make([]sourceResponse, 0, len(sources))
		for _, src := range sources {
			out = append(out, toSourceResponse(src))
		}
		s.respondJSON(w, http.StatusOK, map[string]any{"sources": out})
	}
}

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

// handlePostSource registers a new question bank source.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		sourceType := "local"
		if sync.IsGitPath(req.Path) {
			sourceType = "git"
		}

		id, err := s.db.InsertSource(req.Path, sourceType)
		if err != nil {
			slog.Error("failed to insert source", "path", req.Path, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to add source")
			return
		}
		s.respondJSON(w, http.StatusCreated, sourceResponse{ID: id, Path: req.Path, Type: sourceType})
	}
}

// handleDeleteSource removes a source and its imported questions.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid source ID")
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("failed to delete source", "id", id, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to delete source")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync reconciles all sources into the catalog. It runs in
// the foreground to make the caller wait for a consistent catalog.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sync.RunSync(s.db, s.reposDir); err != nil {
			slog.Error("sync failed", "error", err)
			s.respondError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// userID resolves the acting user from the request, falling back to the
// configured default for single-user installations.
func (s *Server) userID(r *http.Request) int64 {
	if v := r.URL.Query().Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return s.defaultUserID
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
