package domain

import "time"

// Question is a single multiple-choice exam question.
// Difficulty is 1 (easy) to 3 (hard).
type Question struct {
	ID            int64    `json:"id"`
	ExamType      string   `json:"exam_type"`
	Domain        string   `json:"domain"`
	Difficulty    int      `json:"difficulty"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Reference     string   `json:"reference,omitempty"`
}

// Rating is the learner's self-reported recall confidence after a review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Valid reports whether the rating is one of the four defined values.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

// ReviewRecord is the per-(question, user) spaced repetition state.
// A record exists iff the user has reviewed the question at least once.
type ReviewRecord struct {
	QuestionID   int64
	UserID       int64
	TimesSeen    int
	TimesCorrect int
	LastSeen     time.Time
	EaseFactor   float64
	IntervalDays int
	NextReview   time.Time
}

// IsDue reports whether the record is at or past its next review time.
func (r *ReviewRecord) IsDue(now time.Time) bool {
	return !r.NextReview.After(now)
}

// SuccessRate returns the fraction of reviews answered correctly, 0 if unseen.
func (r *ReviewRecord) SuccessRate() float64 {
	if r.TimesSeen == 0 {
		return 0
	}
	return float64(r.TimesCorrect) / float64(r.TimesSeen)
}
