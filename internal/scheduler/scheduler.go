package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
	"github.com/Cgdx/aws-certification-practice/internal/srs"
)

// ErrInvalidRating is returned when a review rating is outside 1-4.
var ErrInvalidRating = errors.New("rating must be between 1 (again) and 4 (easy)")

// Ledger is the persistent per-(question, user) review state.
type Ledger interface {
	GetRecord(questionID, userID int64) (*domain.ReviewRecord, error)
	UpsertRecord(rec *domain.ReviewRecord) error
	RecordsByExam(examType string, userID int64) (map[int64]*domain.ReviewRecord, error)
}

// Catalog supplies the question bank for an exam type.
type Catalog interface {
	QuestionsByExam(examType string) ([]domain.Question, error)
	QuestionCount(examType string) (int, error)
}

// Scheduler decides how review state evolves and which questions to
// present next. It holds no learning state of its own; everything lives
// in the ledger.
type Scheduler struct {
	ledger  Ledger
	catalog Catalog
	params  *srs.Params
	now     func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New creates a scheduler over the given ledger and catalog. The rng is
// used only for tiebreaks during selection; pass a seeded source in
// tests for deterministic ordering.
func New(ledger Ledger, catalog Catalog, rng *rand.Rand) *Scheduler {
	return &Scheduler{
		ledger:  ledger,
		catalog: catalog,
		params:  srs.DefaultParams(),
		now:     time.Now,
		rng:     rng,
	}
}

// RecordReview applies one review outcome to the ledger, creating the
// record on a question's first review. It is not idempotent: callers
// must invoke it exactly once per actual review.
func (s *Scheduler) RecordReview(questionID, userID int64, wasCorrect bool, rating domain.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("record review for question %d: %w", questionID, ErrInvalidRating)
	}

	rec, err := s.ledger.GetRecord(questionID, userID)
	if err != nil {
		return fmt.Errorf("record review for question %d: %w", questionID, err)
	}

	now := s.now()
	if rec == nil {
		rec = s.params.NewRecord(questionID, userID, wasCorrect, rating, now)
	} else {
		s.params.Update(rec, wasCorrect, rating, now)
	}

	if err := s.ledger.UpsertRecord(rec); err != nil {
		return fmt.Errorf("record review for question %d: %w", questionID, err)
	}
	return nil
}

// candidate pairs a question with its review record (nil when unseen)
// and a random tiebreak key.
type candidate struct {
	question domain.Question
	record   *domain.ReviewRecord
	tiebreak float64
}

// SelectForSession returns up to limit questions for the next practice
// session. Due and unseen questions are chosen first; if they do not
// fill the session, already-scheduled questions backfill it. The result
// is sorted easiest first for the exam flow.
func (s *Scheduler) SelectForSession(examType string, userID int64, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, nil
	}

	questions, err := s.catalog.QuestionsByExam(examType)
	if err != nil {
		return nil, fmt.Errorf("select session for %q: %w", examType, err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	records, err := s.ledger.RecordsByExam(examType, userID)
	if err != nil {
		return nil, fmt.Errorf("select session for %q: %w", examType, err)
	}

	now := s.now()
	candidates := make([]candidate, 0, len(questions))

	s.mu.Lock()
	for _, q := range questions {
		candidates = append(candidates, candidate{
			question: q,
			record:   records[q.ID],
			tiebreak: s.rng.Float64(),
		})
	}
	s.mu.Unlock()

	// Phase 1: questions due for review or never seen.
	var due []candidate
	for _, c := range candidates {
		if c.record == nil || c.record.IsDue(now) {
			due = append(due, c)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		// Unseen questions surface ahead of overdue ones.
		if (a.record == nil) != (b.record == nil) {
			return a.record == nil
		}
		if a.record != nil {
			if !a.record.NextReview.Equal(b.record.NextReview) {
				return a.record.NextReview.Before(b.record.NextReview)
			}
			if a.record.EaseFactor != b.record.EaseFactor {
				return a.record.EaseFactor < b.record.EaseFactor
			}
		}
		return a.tiebreak < b.tiebreak
	})

	if len(due) > limit {
		due = due[:limit]
	}

	selected := make([]domain.Question, 0, limit)
	picked := make(map[int64]bool, limit)
	for _, c := range due {
		selected = append(selected, c.question)
		picked[c.question.ID] = true
	}

	// Phase 2: backfill with not-yet-selected questions, unseen first,
	// then least-reviewed.
	if len(selected) < limit {
		var rest []candidate
		for _, c := range candidates {
			if !picked[c.question.ID] {
				rest = append(rest, c)
			}
		}

		sort.Slice(rest, func(i, j int) bool {
			a, b := rest[i], rest[j]
			if (a.record == nil) != (b.record == nil) {
				return a.record == nil
			}
			if a.record != nil && a.record.TimesSeen != b.record.TimesSeen {
				return a.record.TimesSeen < b.record.TimesSeen
			}
			return a.tiebreak < b.tiebreak
		})

		for _, c := range rest {
			if len(selected) == limit {
				break
			}
			selected = append(selected, c.question)
		}
	}

	// Final pass: present easiest questions first.
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Difficulty != selected[j].Difficulty {
			return selected[i].Difficulty < selected[j].Difficulty
		}
		return selected[i].ID < selected[j].ID
	})

	return selected, nil
}

// Progress reports a user's aggregate learning state for an exam type.
func (s *Scheduler) Progress(examType string, userID int64) (*domain.Progress, error) {
	total, err := s.catalog.QuestionCount(examType)
	if err != nil {
		return nil, fmt.Errorf("progress for %q: %w", examType, err)
	}

	records, err := s.ledger.RecordsByExam(examType, userID)
	if err != nil {
		return nil, fmt.Errorf("progress for %q: %w", examType, err)
	}

	now := s.now()
	p := &domain.Progress{
		Total: total,
		Seen:  len(records),
		New:   total - len(records),
	}

	var successSum float64
	var rated int
	for _, rec := range records {
		if rec.IsDue(now) {
			p.DueForReview++
		}
		if srs.Mastered(rec) {
			p.Mastered++
		}
		if rec.TimesSeen > 0 {
			successSum += rec.SuccessRate()
			rated++
		}
	}
	if rated > 0 {
		p.AvgSuccessRate = successSum / float64(rated) * 100
	}
	return p, nil
}
