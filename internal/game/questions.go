package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// choicesPerQuestion is fixed by the game format.
const choicesPerQuestion = 4

// QuestionRecord is one multiple-choice question. Immutable once loaded.
type QuestionRecord struct {
	Prompt             string   `json:"prompt"`
	Choices            []string `json:"choices"`
	CorrectChoiceIndex int      `json:"correct_choice_index"`
	Explanation        string   `json:"explanation,omitempty"`
}

// QuestionBank is the ordered, immutable question list for a session.
// Out-of-range access is a caller contract violation; callers validate
// indexes against Count first.
type QuestionBank struct {
	records []QuestionRecord
}

// LoadQuestionBank reads and validates a JSON question file. Bad content
// fails startup rather than surfacing mid-game.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var records []QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}

	return NewQuestionBank(records)
}

// NewQuestionBank validates records and builds a bank.
func NewQuestionBank(records []QuestionRecord) (*QuestionBank, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	for i, rec := range records {
		if rec.Prompt == "" {
			return nil, fmt.Errorf("question %d: empty prompt", i)
		}
		if len(rec.Choices) != choicesPerQuestion {
			return nil, fmt.Errorf("question %d: expected %d choices, got %d", i, choicesPerQuestion, len(rec.Choices))
		}
		if rec.CorrectChoiceIndex < 0 || rec.CorrectChoiceIndex >= len(rec.Choices) {
			return nil, fmt.Errorf("question %d: correct_choice_index %d out of range", i, rec.CorrectChoiceIndex)
		}
	}
	bank := &QuestionBank{records: make([]QuestionRecord, len(records))}
	copy(bank.records, records)
	return bank, nil
}

// Count returns the number of questions.
func (b *QuestionBank) Count() int {
	return len(b.records)
}

// Get returns the question at index. Index must be in 0..Count-1.
func (b *QuestionBank) Get(index int) QuestionRecord {
	return b.records[index]
}

// All returns every record, including correct answers. Trusted moderator
// view only.
func (b *QuestionBank) All() []QuestionRecord {
	out := make([]QuestionRecord, len(b.records))
	copy(out, b.records)
	return out
}
