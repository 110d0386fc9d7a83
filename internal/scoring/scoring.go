package scoring

import (
	"sort"
	"strings"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
)

// PassingThreshold is the per-domain percentage below which a domain is
// flagged as weak.
const PassingThreshold = 72.0

// NormalizeAnswer splits an answer string into a set of uppercase
// letters. "a, c" and "C,A" normalize to the same set.
func NormalizeAnswer(answer string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(answer, ",") {
		p := strings.ToUpper(strings.TrimSpace(part))
		if p != "" {
			set[p] = true
		}
	}
	return set
}

// IsCorrect reports whether a user answer matches the correct answer.
// Multi-answer questions match as sets, ignoring order and case.
func IsCorrect(userAnswer, correctAnswer string) bool {
	user := NormalizeAnswer(userAnswer)
	correct := NormalizeAnswer(correctAnswer)
	if len(user) != len(correct) {
		return false
	}
	for a := range correct {
		if !user[a] {
			return false
		}
	}
	return true
}

// Score tallies correct and answered counts over a question set.
// Unanswered questions are not counted.
func Score(questions []domain.Question, answers map[int64]string) (correct, answered int) {
	for _, q := range questions {
		userAnswer := answers[q.ID]
		if userAnswer == "" {
			continue
		}
		answered++
		if IsCorrect(userAnswer, q.CorrectAnswer) {
			correct++
		}
	}
	return correct, answered
}

// DomainScore holds the per-domain tally for one exam run.
type DomainScore struct {
	Correct  int
	Answered int
}

// DomainScores tallies correctness per exam domain, skipping
// unanswered questions.
func DomainScores(questions []domain.Question, answers map[int64]string) map[string]DomainScore {
	scores := make(map[string]DomainScore)
	for _, q := range questions {
		userAnswer := answers[q.ID]
		if userAnswer == "" {
			continue
		}
		ds := scores[q.Domain]
		ds.Answered++
		if IsCorrect(userAnswer, q.CorrectAnswer) {
			ds.Correct++
		}
		scores[q.Domain] = ds
	}
	return scores
}

// WeakDomains returns the sorted domain IDs scoring below the threshold.
func WeakDomains(scores map[string]DomainScore, threshold float64) []string {
	var weak []string
	for id, ds := range scores {
		if ds.Answered == 0 {
			continue
		}
		percentage := float64(ds.Correct) / float64(ds.Answered) * 100
		if percentage < threshold {
			weak = append(weak, id)
		}
	}
	sort.Strings(weak)
	return weak
}

// WeightedScore combines per-domain percentages using the given domain
// weights, mirroring how the certification blueprint weights domains.
func WeightedScore(scores map[string]DomainScore, weights map[string]int) float64 {
	var totalWeight, weightedSum float64
	for id, ds := range scores {
		if ds.Answered == 0 {
			continue
		}
		weight := float64(weights[id])
		percentage := float64(ds.Correct) / float64(ds.Answered) * 100
		weightedSum += percentage * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// ScaledScore maps a raw result onto the 100-1000 scale certification
// exams report.
func ScaledScore(correct, total int) int {
	if total == 0 {
		return 100
	}
	percentage := float64(correct) / float64(total)
	return int(100 + percentage*900)
}

// Points returns the XP awarded for a correct review at the given
// rating. The scheduler itself never touches XP; callers award it.
func Points(rating domain.Rating) int {
	switch rating {
	case domain.Again:
		return 2
	case domain.Hard:
		return 5
	case domain.Good:
		return 10
	case domain.Easy:
		return 15
	default:
		return 0
	}
}
