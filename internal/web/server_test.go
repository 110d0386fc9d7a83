package web

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
	"github.com/Cgdx/aws-certification-practice/internal/scheduler"
	"github.com/Cgdx/aws-certification-practice/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sched := scheduler.New(db, db, rand.New(rand.NewSource(1)))
	return NewServer(db, sched, 1, 65, t.TempDir()), db
}

func seedQuestions(t *testing.T, db *storage.DB, examType string, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := db.InsertQuestion(domain.Question{
			ExamType:      examType,
			Domain:        "1",
			Difficulty:    i%3 + 1,
			Text:          "question " + strings.Repeat("x", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		}, examType+"-"+strings.Repeat("h", i+1), 0)
		if err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestPostReview(t *testing.T) {
	srv, db := newTestServer(t)
	ids := seedQuestions(t, db, "SAA-C03", 1)

	t.Run("correct review earns points for its rating", func(t *testing.T) {
		body := `{"question_id": ` + jsonID(ids[0]) + `, "was_correct": true, "rating": 3}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			PointsAwarded int `json:"points_awarded"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.PointsAwarded != 10 {
			t.Errorf("points = %d, want 10 for Good", resp.PointsAwarded)
		}

		stored, err := db.GetRecord(ids[0], 1)
		if err != nil || stored == nil {
			t.Fatalf("expected ledger record for default user, got %v, err %v", stored, err)
		}
		if stored.IntervalDays != 4 {
			t.Errorf("IntervalDays = %d, want 4 for first Good review", stored.IntervalDays)
		}
	})

	t.Run("incorrect review earns no points", func(t *testing.T) {
		body := `{"question_id": ` + jsonID(ids[0]) + `, "was_correct": false, "rating": 1}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"points_awarded":0`) {
			t.Errorf("expected zero points, got %s", rec.Body.String())
		}
	})

	t.Run("out of range rating is rejected", func(t *testing.T) {
		body := `{"question_id": 1, "was_correct": true, "rating": 9}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader("not json")))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetSession(t *testing.T) {
	srv, db := newTestServer(t)
	seedQuestions(t, db, "SAA-C03", 5)

	t.Run("returns questions for the exam", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session?exam_type=SAA-C03&limit=3", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Questions []domain.Question `json:"questions"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Questions) != 3 {
			t.Errorf("got %d questions, want 3", len(resp.Questions))
		}
	})

	t.Run("missing exam type is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown exam type yields empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session?exam_type=NOPE", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"questions":[]`) {
			t.Errorf("expected empty questions array, got %s", rec.Body.String())
		}
	})
}

func TestGetProgress(t *testing.T) {
	srv, db := newTestServer(t)
	ids := seedQuestions(t, db, "SAA-C03", 4)

	// Review one question so progress has something to count.
	body := `{"question_id": ` + jsonID(ids[0]) + `, "was_correct": true, "rating": 4}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed review failed: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress?exam_type=SAA-C03", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var p domain.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Total != 4 || p.Seen != 1 || p.New != 3 {
		t.Errorf("progress = %+v, want total=4 seen=1 new=3", p)
	}
	if p.AvgSuccessRate != 100 {
		t.Errorf("AvgSuccessRate = %.2f, want 100", p.AvgSuccessRate)
	}
}

func TestExamSessionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"exam_type": "SAA-C03", "score": 40, "total": 65, "time_spent": 5400, "weak_domains": ["1"]}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions?exam_type=SAA-C03", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Sessions []domain.ExamSession `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].Score != 40 {
		t.Errorf("sessions = %+v, want one session with score 40", resp.Sessions)
	}
}

func TestSourceEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("git URLs are typed as git", func(t *testing.T) {
		body := `{"path": "https://example.com/banks.git"}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"type":"git"`) {
			t.Errorf("expected git type, got %s", rec.Body.String())
		}
	})

	t.Run("listing returns registered sources", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "banks.git") {
			t.Errorf("expected registered source in listing, got %s", rec.Body.String())
		}
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"path": ""}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
