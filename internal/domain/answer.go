package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AnswerPayload is the learner's answer to one question, shaped by the question type.
// Exactly one of Text, Choice or Choices is meaningful, selected by Kind.
type AnswerPayload struct {
	Kind    QuestionType
	Text    string
	Choice  string
	Choices []string
}

func TextAnswer(text string) AnswerPayload {
	return AnswerPayload{Kind: QuestionTypeText, Text: text}
}

func SingleChoiceAnswer(optionID string) AnswerPayload {
	return AnswerPayload{Kind: QuestionTypeSingleChoice, Choice: optionID}
}

func MultiChoiceAnswer(optionIDs ...string) AnswerPayload {
	return AnswerPayload{Kind: QuestionTypeMultiChoice, Choices: optionIDs}
}

// IsEmpty reports whether the payload counts as "not answered".
func (p AnswerPayload) IsEmpty() bool {
	switch p.Kind {
	case QuestionTypeText:
		return strings.TrimSpace(p.Text) == ""
	case QuestionTypeSingleChoice:
		return strings.TrimSpace(p.Choice) == ""
	case QuestionTypeMultiChoice:
		for _, c := range p.Choices {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
		return true
	}
	return true
}

// MarshalJSON stores text and single choice as a JSON string and multi choice as an array.
func (p AnswerPayload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case QuestionTypeText:
		return json.Marshal(p.Text)
	case QuestionTypeSingleChoice:
		return json.Marshal(p.Choice)
	case QuestionTypeMultiChoice:
		if p.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.Choices)
	}
	return []byte("null"), nil
}

// ParseAnswerPayload decodes a raw request value against the declared question type.
// Null or empty input yields an empty payload; a value of the wrong shape is an error.
func ParseAnswerPayload(kind QuestionType, raw json.RawMessage) (AnswerPayload, error) {
	p := AnswerPayload{Kind: kind}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return p, fmt.Errorf("malformed answer: %w", err)
	}

	switch kind {
	case QuestionTypeText:
		switch v := decoded.(type) {
		case string:
			p.Text = v
		case []interface{}:
			if len(v) > 0 {
				s, ok := v[0].(string)
				if !ok {
					return p, fmt.Errorf("text answer must be a string")
				}
				p.Text = s
			}
		default:
			return p, fmt.Errorf("text answer must be a string")
		}
	case QuestionTypeSingleChoice:
		switch v := decoded.(type) {
		case []interface{}:
			if len(v) > 1 {
				return p, fmt.Errorf("single choice answer accepts one option")
			}
			if len(v) == 1 {
				s, err := scalarString(v[0])
				if err != nil {
					return p, err
				}
				p.Choice = s
			}
		default:
			s, err := scalarString(v)
			if err != nil {
				return p, err
			}
			p.Choice = s
		}
	case QuestionTypeMultiChoice:
		arr, ok := decoded.([]interface{})
		if !ok {
			return p, fmt.Errorf("multi choice answer must be an array")
		}
		p.Choices = make([]string, 0, len(arr))
		for _, item := range arr {
			s, err := scalarString(item)
			if err != nil {
				return p, err
			}
			p.Choices = append(p.Choices, s)
		}
	default:
		return p, fmt.Errorf("unsupported question type %q", kind)
	}
	return p, nil
}

func scalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("option must be a string or number")
}

// Answer is the stored answer for one (submission, question) pair. Payload holds the JSON
// written by AnswerPayload.MarshalJSON, or legacy shapes imported from older records.
type Answer struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submission_id"`
	QuestionID   string          `json:"question_id"`
	Payload      json.RawMessage `json:"answer_payload"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AnswerRepository persists answers. UpsertAnswers replaces earlier answers for the same question.
type AnswerRepository interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]*Answer, error)
	UpsertAnswers(ctx context.Context, answers []*Answer) error
}
