package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"

	"go.uber.org/zap"
)

// answerMatcher compares a normalized learner answer with the normalized correct answer.
type answerMatcher func(given, correct []string) bool

// ScoringEngine classifies answers as correct, wrong or unanswered and aggregates them.
type ScoringEngine struct {
	matchers map[domain.QuestionType]answerMatcher
}

func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{
		matchers: map[domain.QuestionType]answerMatcher{
			domain.QuestionTypeText:         matchText,
			domain.QuestionTypeSingleChoice: matchSingleChoice,
			domain.QuestionTypeMultiChoice:  matchMultiChoice,
		},
	}
}

// text answers match on the first element, trimmed and case-insensitive.
func matchText(given, correct []string) bool {
	if len(given) == 0 || len(correct) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(given[0]), strings.TrimSpace(correct[0]))
}

// single choice answers match option ids exactly after trimming.
func matchSingleChoice(given, correct []string) bool {
	if len(given) == 0 || len(correct) == 0 {
		return false
	}
	return strings.TrimSpace(given[0]) == strings.TrimSpace(correct[0])
}

// multi choice answers match as sets.
func matchMultiChoice(given, correct []string) bool {
	g, c := cleanSorted(given), cleanSorted(correct)
	if len(g) != len(c) || len(g) == 0 {
		return false
	}
	for i := range g {
		if g[i] != c[i] {
			return false
		}
	}
	return true
}

func cleanSorted(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// normalizeAnswer turns a stored value into a list: JSON arrays are stringified element
// by element, JSON scalars are wrapped and anything that is not JSON is taken as raw text.
func normalizeAnswer(raw []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		if trimmed[0] == '[' || trimmed[0] == '{' || trimmed[0] == '"' {
			return nil, err
		}
		return []string{string(trimmed)}, nil
	}
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, err := stringifyScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := stringifyScalar(t)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func stringifyScalar(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	}
	return "", errors.New("unsupported answer element")
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ScoreQuestion classifies one answer. answer may be nil. Malformed data scores as wrong.
func (e *ScoringEngine) ScoreQuestion(q *domain.Question, answer *domain.Answer) dto.QuestionResult {
	result := dto.QuestionResult{
		QuestionID:             q.ID,
		ChapterID:              q.ChapterID,
		QuestionText:           q.Text,
		Type:                   string(q.Type),
		Result:                 dto.AnswerUnanswered,
		CorrectAnswer:          q.CorrectAnswer,
		FormattedCorrectAnswer: formatAnswer(q, q.CorrectAnswer),
	}
	if answer == nil {
		return result
	}
	result.UserAnswer = answer.Payload

	given, err := normalizeAnswer(answer.Payload)
	if err != nil {
		logger.Get().Warn("Stored answer could not be parsed, scoring as wrong",
			zap.Error(err), zap.String("questionID", q.ID), zap.String("submissionID", answer.SubmissionID))
		result.Result = dto.AnswerWrong
		return result
	}
	if isBlank(given) {
		return result
	}
	result.FormattedUserAnswer = formatAnswer(q, given)

	match, ok := e.matchers[q.Type]
	if ok && match(given, q.CorrectAnswer) {
		result.Result = dto.AnswerCorrect
		result.IsCorrect = true
	} else {
		result.Result = dto.AnswerWrong
	}
	return result
}

// formatAnswer renders option ids as their labels for choice questions.
func formatAnswer(q *domain.Question, values []string) string {
	if q.Type == domain.QuestionTypeText {
		if len(values) == 0 {
			return ""
		}
		return strings.TrimSpace(values[0])
	}
	labels := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			labels = append(labels, q.OptionLabel(v))
		}
	}
	return strings.Join(labels, ", ")
}

// Statistics aggregates question results. A zero question count scores 0.
func Statistics(results []dto.QuestionResult) dto.ScoreStatistics {
	stats := dto.ScoreStatistics{TotalQuestions: len(results)}
	for _, r := range results {
		switch r.Result {
		case dto.AnswerCorrect:
			stats.CorrectAnswers++
		case dto.AnswerWrong:
			stats.WrongAnswers++
		default:
			stats.Unanswered++
		}
	}
	stats.ScorePercentage = percentage(stats.CorrectAnswers, stats.TotalQuestions)
	return stats
}

// ScoreChapter scores the questions of one chapter. Passed compares against the
// chapter's pass percentage and never gates progression.
func (e *ScoringEngine) ScoreChapter(index int, chapter *domain.Chapter, answers map[string]*domain.Answer) dto.ChapterScore {
	results := make([]dto.QuestionResult, 0, len(chapter.Questions))
	for i := range chapter.Questions {
		q := &chapter.Questions[i]
		results = append(results, e.ScoreQuestion(q, answers[q.ID]))
	}
	stats := Statistics(results)
	return dto.ChapterScore{
		ChapterID:      chapter.ID,
		ChapterNumber:  index + 1,
		Title:          chapter.Title,
		PassPercentage: chapter.PassPercentage,
		Passed:         stats.ScorePercentage >= chapter.PassPercentage,
		Statistics:     stats,
		Questions:      results,
	}
}

// ScoreSubmission scores every snapshot question of sub.
func (e *ScoringEngine) ScoreSubmission(sub *domain.Submission, answers []*domain.Answer) (dto.ScoreStatistics, []dto.ChapterScore) {
	byQuestion := make(map[string]*domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	chapters := make([]dto.ChapterScore, 0, len(sub.Snapshot.Chapters))
	var all []dto.QuestionResult
	for i := range sub.Snapshot.Chapters {
		score := e.ScoreChapter(i, &sub.Snapshot.Chapters[i], byQuestion)
		chapters = append(chapters, score)
		all = append(all, score.Questions...)
	}
	return Statistics(all), chapters
}

// IsCorrect reports whether raw answers q correctly. Errors never escape.
func (e *ScoringEngine) IsCorrect(q *domain.Question, raw json.RawMessage) bool {
	return e.ScoreQuestion(q, &domain.Answer{QuestionID: q.ID, Payload: raw}).IsCorrect
}
