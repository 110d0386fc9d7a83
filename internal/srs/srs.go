package srs

import (
	"time"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
)

// Params holds the bounds for the review algorithm.
type Params struct {
	InitialEase     float64 // ease factor assigned to new records
	MinEase         float64 // ease factor floor
	MaxEase         float64 // ease factor ceiling
	MaxIntervalDays int     // interval cap in days
}

// DefaultParams returns the standard algorithm bounds.
func DefaultParams() *Params {
	return &Params{
		InitialEase:     2.5,
		MinEase:         1.3,
		MaxEase:         3.0,
		MaxIntervalDays: 365,
	}
}

// Ease factor adjustment steps per outcome.
const (
	easyEaseBonus     = 0.15
	hardEasePenalty   = 0.15
	againEasePenalty  = 0.2
	missEasePenalty   = 0.1
	easyIntervalBonus = 1.3
	hardIntervalGrow  = 1.2
)

// NewRecord builds the review record for a question's first review.
func (p *Params) NewRecord(questionID, userID int64, wasCorrect bool, rating domain.Rating, now time.Time) *domain.ReviewRecord {
	interval := 1
	if wasCorrect {
		switch {
		case rating <= domain.Hard:
			interval = 1
		case rating == domain.Good:
			interval = 4
		default: // Easy
			interval = 7
		}
	}

	correct := 0
	if wasCorrect {
		correct = 1
	}

	return &domain.ReviewRecord{
		QuestionID:   questionID,
		UserID:       userID,
		TimesSeen:    1,
		TimesCorrect: correct,
		LastSeen:     now,
		EaseFactor:   p.InitialEase,
		IntervalDays: interval,
		NextReview:   now.AddDate(0, 0, interval),
	}
}

// Update applies a subsequent review to an existing record in place.
//
// A correct answer rated Again leaves the ease factor and interval
// unchanged; only the counters and timestamps move.
func (p *Params) Update(rec *domain.ReviewRecord, wasCorrect bool, rating domain.Rating, now time.Time) {
	rec.TimesSeen++
	if wasCorrect {
		rec.TimesCorrect++
	}

	ease := rec.EaseFactor
	interval := rec.IntervalDays

	if wasCorrect {
		switch rating {
		case domain.Easy:
			ease = min(ease+easyEaseBonus, p.MaxEase)
			interval = int(float64(interval) * ease * easyIntervalBonus)
		case domain.Good:
			interval = int(float64(interval) * ease)
		case domain.Hard:
			ease = max(ease-hardEasePenalty, p.MinEase)
			interval = int(float64(interval) * hardIntervalGrow)
		}
	} else {
		if rating == domain.Again {
			interval = 1
			ease = max(ease-againEasePenalty, p.MinEase)
		} else {
			interval = max(1, interval/2)
			ease = max(ease-missEasePenalty, p.MinEase)
		}
	}

	if interval > p.MaxIntervalDays {
		interval = p.MaxIntervalDays
	}

	rec.LastSeen = now
	rec.EaseFactor = ease
	rec.IntervalDays = interval
	rec.NextReview = now.AddDate(0, 0, interval)
}

// Mastered reports whether a record has crossed the retention threshold.
func Mastered(rec *domain.ReviewRecord) bool {
	return rec.IntervalDays > 21
}
