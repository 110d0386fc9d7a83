package domain

import "time"

// ExamSession is one completed practice exam run.
type ExamSession struct {
	ID          int64     `json:"id"`
	ExamType    string    `json:"exam_type"`
	UserID      int64     `json:"user_id"`
	Date        time.Time `json:"date"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	TimeSpent   int       `json:"time_spent"` // seconds
	WeakDomains []string  `json:"weak_domains"`
}

// Percentage returns the score as a percentage of the total.
func (s *ExamSession) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Score) / float64(s.Total) * 100
}

// Progress summarises a user's learning state for one exam type.
type Progress struct {
	Total          int     `json:"total"`
	Seen           int     `json:"seen"`
	New            int     `json:"new"`
	DueForReview   int     `json:"due_for_review"`
	Mastered       int     `json:"mastered"`
	AvgSuccessRate float64 `json:"avg_success_rate"`
}
