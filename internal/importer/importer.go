package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
)

// bankFile is the on-disk shape of a question bank. A top-level exam
// type applies to any question that does not set its own.
type bankFile struct {
	ExamType  string         `json:"exam_type"`
	Questions []bankQuestion `json:"questions"`
}

type bankQuestion struct {
	ExamType      string   `json:"exam_type"`
	Domain        string   `json:"domain"`
	Difficulty    int      `json:"difficulty"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Reference     string   `json:"reference"`
}

// ParseFile reads a question bank file from the given path.
func ParseFile(path string) ([]domain.Question, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a question bank from an io.Reader. Entries without
// question text or an exam type are skipped rather than failing the
// whole bank.
func Parse(r io.Reader) ([]domain.Question, error) {
	var bank bankFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&bank); err != nil {
		return nil, fmt.Errorf("failed to decode question bank: %w", err)
	}

	var questions []domain.Question
	for _, bq := range bank.Questions {
		examType := bq.ExamType
		if examType == "" {
			examType = bank.ExamType
		}
		if bq.QuestionText == "" || examType == "" {
			continue
		}

		difficulty := bq.Difficulty
		if difficulty < 1 || difficulty > 3 {
			difficulty = 1
		}

		questions = append(questions, domain.Question{
			ExamType:      examType,
			Domain:        bq.Domain,
			Difficulty:    difficulty,
			Text:          bq.QuestionText,
			Options:       bq.Options,
			CorrectAnswer: bq.CorrectAnswer,
			Explanation:   bq.Explanation,
			Reference:     bq.Reference,
		})
	}

	return questions, nil
}
