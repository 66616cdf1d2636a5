package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecords() []QuestionRecord {
	return []QuestionRecord{
		{Prompt: "Q1", Choices: []string{"a", "b", "c", "d"}, CorrectChoiceIndex: 1, Explanation: "because"},
		{Prompt: "Q2", Choices: []string{"a", "b", "c", "d"}, CorrectChoiceIndex: 3},
	}
}

func TestNewQuestionBank(t *testing.T) {
	bank, err := NewQuestionBank(validRecords())
	require.NoError(t, err)

	assert.Equal(t, 2, bank.Count())
	assert.Equal(t, "Q1", bank.Get(0).Prompt)
	assert.Equal(t, 3, bank.Get(1).CorrectChoiceIndex)
	assert.Len(t, bank.All(), 2)
}

func TestNewQuestionBankRejectsBadContent(t *testing.T) {
	cases := []struct {
		name    string
		records []QuestionRecord
	}{
		{"empty bank", nil},
		{"empty prompt", []QuestionRecord{{Choices: []string{"a", "b", "c", "d"}}}},
		{"three choices", []QuestionRecord{{Prompt: "Q", Choices: []string{"a", "b", "c"}}}},
		{"five choices", []QuestionRecord{{Prompt: "Q", Choices: []string{"a", "b", "c", "d", "e"}}}},
		{"negative correct index", []QuestionRecord{{Prompt: "Q", Choices: []string{"a", "b", "c", "d"}, CorrectChoiceIndex: -1}}},
		{"correct index too large", []QuestionRecord{{Prompt: "Q", Choices: []string{"a", "b", "c", "d"}, CorrectChoiceIndex: 4}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewQuestionBank(tc.records)
			assert.Error(t, err)
		})
	}
}

func TestLoadQuestionBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	content := `[
		{"prompt": "Capital of France?", "choices": ["Paris", "Lyon", "Nice", "Lille"], "correct_choice_index": 0},
		{"prompt": "2+2?", "choices": ["3", "4", "5", "6"], "correct_choice_index": 1, "explanation": "arithmetic"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	bank, err := LoadQuestionBank(path)
	require.NoError(t, err)

	assert.Equal(t, 2, bank.Count())
	assert.Equal(t, "Capital of France?", bank.Get(0).Prompt)
	assert.Equal(t, "arithmetic", bank.Get(1).Explanation)
}

func TestLoadQuestionBankErrors(t *testing.T) {
	_, err := LoadQuestionBank(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadQuestionBank(path)
	assert.Error(t, err)
}

func TestQuestionBankAllReturnsCopy(t *testing.T) {
	bank, err := NewQuestionBank(validRecords())
	require.NoError(t, err)

	all := bank.All()
	all[0].Prompt = "mutated"
	assert.Equal(t, "Q1", bank.Get(0).Prompt)
}
