package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswerPayload(t *testing.T) {
	tests := []struct {
		name      string
		kind      QuestionType
		raw       string
		expected  AnswerPayload
		wantErr   bool
		wantEmpty bool
	}{
		{name: "text string", kind: QuestionTypeText, raw: `"  hello "`, expected: TextAnswer("  hello ")},
		{name: "text array takes first", kind: QuestionTypeText, raw: `["a","b"]`, expected: TextAnswer("a")},
		{name: "text blank is empty", kind: QuestionTypeText, raw: `"   "`, expected: TextAnswer("   "), wantEmpty: true},
		{name: "text object rejected", kind: QuestionTypeText, raw: `{"a":1}`, wantErr: true},
		{name: "single string", kind: QuestionTypeSingleChoice, raw: `"2"`, expected: SingleChoiceAnswer("2")},
		{name: "single number", kind: QuestionTypeSingleChoice, raw: `3`, expected: SingleChoiceAnswer("3")},
		{name: "single one element array", kind: QuestionTypeSingleChoice, raw: `["1"]`, expected: SingleChoiceAnswer("1")},
		{name: "single many rejected", kind: QuestionTypeSingleChoice, raw: `["1","2"]`, wantErr: true},
		{name: "multi array", kind: QuestionTypeMultiChoice, raw: `["1", 2]`, expected: MultiChoiceAnswer("1", "2")},
		{name: "multi empty array is empty", kind: QuestionTypeMultiChoice, raw: `[]`, expected: AnswerPayload{Kind: QuestionTypeMultiChoice, Choices: []string{}}, wantEmpty: true},
		{name: "multi scalar rejected", kind: QuestionTypeMultiChoice, raw: `"1"`, wantErr: true},
		{name: "null is empty", kind: QuestionTypeMultiChoice, raw: `null`, expected: AnswerPayload{Kind: QuestionTypeMultiChoice}, wantEmpty: true},
		{name: "malformed json", kind: QuestionTypeText, raw: `{`, wantErr: true},
		{name: "unknown type", kind: QuestionType("essay"), raw: `"x"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerPayload(tt.kind, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.wantEmpty, got.IsEmpty())
		})
	}
}

func TestAnswerPayload_MarshalJSON(t *testing.T) {
	tests := []struct {
		payload  AnswerPayload
		expected string
	}{
		{TextAnswer("hi"), `"hi"`},
		{SingleChoiceAnswer("2"), `"2"`},
		{MultiChoiceAnswer("1", "3"), `["1","3"]`},
		{AnswerPayload{Kind: QuestionTypeMultiChoice}, `[]`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.payload)
		require.NoError(t, err)
		assert.JSONEq(t, tt.expected, string(data))
	}
}
