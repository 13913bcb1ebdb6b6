package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/util"

	"github.com/stretchr/testify/require"
)

// In-memory stand-ins for the repositories and the cache. They copy on the way in and
// out so services cannot mutate stored state without calling the repository.

type memSubmissions struct {
	mu      sync.Mutex
	byID    map[string]*domain.Submission
	creates int
	getErr  error
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{byID: make(map[string]*domain.Submission)}
}

func copySubmission(s *domain.Submission) *domain.Submission {
	out := *s
	out.Snapshot = s.Snapshot.Clone()
	out.Answers = nil
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

func (m *memSubmissions) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.byID[id]; ok {
		return copySubmission(s), nil
	}
	return nil, nil
}

func (m *memSubmissions) GetByUserAndInduction(_ context.Context, userID, inductionID string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.UserID == userID && s.InductionID == inductionID {
			return copySubmission(s), nil
		}
	}
	return nil, nil
}

func (m *memSubmissions) ListByUser(_ context.Context, userID string) ([]*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Submission
	for _, s := range m.byID {
		if s.UserID == userID {
			out = append(out, copySubmission(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSubmissions) List(_ context.Context, filter domain.SubmissionFilter) ([]*domain.Submission, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Submission
	for _, s := range m.byID {
		if filter.InductionID != "" && s.InductionID != filter.InductionID {
			continue
		}
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		all = append(all, copySubmission(s))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if filter.Offset >= len(all) {
		return []*domain.Submission{}, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (m *memSubmissions) Create(_ context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.UserID == s.UserID && existing.InductionID == s.InductionID {
			return domain.NewConflictError("A submission for this induction already exists")
		}
	}
	m.creates++
	m.byID[s.ID] = copySubmission(s)
	return nil
}

func (m *memSubmissions) Update(_ context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return sql.ErrNoRows
	}
	m.byID[s.ID] = copySubmission(s)
	return nil
}

func (m *memSubmissions) stored(t *testing.T, id string) *domain.Submission {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	require.True(t, ok, "submission %s not stored", id)
	return copySubmission(s)
}

func (m *memSubmissions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memAnswers struct {
	mu      sync.Mutex
	rows    map[string]map[string]*domain.Answer
	listErr error
	saveErr error
}

func newMemAnswers() *memAnswers {
	return &memAnswers{rows: make(map[string]map[string]*domain.Answer)}
}

func (m *memAnswers) ListBySubmission(_ context.Context, submissionID string) ([]*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Answer
	for _, a := range m.rows[submissionID] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memAnswers) UpsertAnswers(_ context.Context, answers []*domain.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, a := range answers {
		if a.ID == "" {
			a.ID = util.NewULID()
		}
		if m.rows[a.SubmissionID] == nil {
			m.rows[a.SubmissionID] = make(map[string]*domain.Answer)
		}
		cp := *a
		m.rows[a.SubmissionID][a.QuestionID] = &cp
	}
	return nil
}

// put stores a raw payload directly, bypassing validation.
func (m *memAnswers) put(submissionID, questionID, raw string) {
	_ = m.UpsertAnswers(context.Background(), []*domain.Answer{{
		SubmissionID: submissionID,
		QuestionID:   questionID,
		Payload:      json.RawMessage(raw),
	}})
}

type memVideos struct {
	mu      sync.Mutex
	rows    map[string]*domain.VideoCompletion
	getErr  error
	gets    int
	upserts int
}

func newMemVideos() *memVideos {
	return &memVideos{rows: make(map[string]*domain.VideoCompletion)}
}

func (m *memVideos) Get(_ context.Context, chapterID, submissionID string) (*domain.VideoCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if v, ok := m.rows[chapterID+"|"+submissionID]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (m *memVideos) ListBySubmission(_ context.Context, submissionID string) ([]*domain.VideoCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.VideoCompletion
	for _, v := range m.rows {
		if v.SubmissionID == submissionID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Upsert mirrors the SQL merge: progress only grows and completion sticks.
func (m *memVideos) Upsert(_ context.Context, v *domain.VideoCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	key := v.ChapterID + "|" + v.SubmissionID
	cur, ok := m.rows[key]
	if !ok {
		cp := *v
		if cp.ID == "" {
			cp.ID = util.NewULID()
		}
		m.rows[key] = &cp
		return nil
	}
	if v.WatchedSeconds > cur.WatchedSeconds {
		cur.WatchedSeconds = v.WatchedSeconds
	}
	if v.ProgressPercentage > cur.ProgressPercentage {
		cur.ProgressPercentage = v.ProgressPercentage
	}
	if v.TotalSeconds != nil {
		cur.TotalSeconds = v.TotalSeconds
	}
	cur.IsCompleted = cur.IsCompleted || v.IsCompleted
	if cur.CompletedAt == nil {
		cur.CompletedAt = v.CompletedAt
	}
	return nil
}

type memInductions struct {
	mu         sync.Mutex
	inductions map[string]*domain.Induction
}

func newMemInductions(seed ...*domain.Induction) *memInductions {
	m := &memInductions{inductions: make(map[string]*domain.Induction)}
	for _, ind := range seed {
		m.inductions[ind.ID] = ind
	}
	return m
}

func (m *memInductions) tree(id string) *domain.Induction {
	ind, ok := m.inductions[id]
	if !ok {
		return nil
	}
	cp := *ind
	cp.Chapters = domain.NewSnapshot(ind).Chapters
	return &cp
}

func (m *memInductions) ListInductions(_ context.Context, activeOnly bool) ([]*domain.Induction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Induction
	for id, ind := range m.inductions {
		if activeOnly && !ind.IsActive {
			continue
		}
		cp := m.tree(id)
		cp.Chapters = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memInductions) GetInductionByID(_ context.Context, id string) (*domain.Induction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind := m.tree(id)
	if ind != nil {
		ind.Chapters = nil
	}
	return ind, nil
}

func (m *memInductions) GetInductionTree(_ context.Context, id string) (*domain.Induction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree(id), nil
}

func (m *memInductions) CreateInduction(_ context.Context, induction *domain.Induction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *induction
	m.inductions[induction.ID] = &cp
	return nil
}

func (m *memInductions) UpdateInduction(_ context.Context, induction *domain.Induction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.inductions[induction.ID]
	if !ok {
		return sql.ErrNoRows
	}
	chapters := cur.Chapters
	cp := *induction
	cp.Chapters = chapters
	m.inductions[induction.ID] = &cp
	return nil
}

func (m *memInductions) DeleteInduction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inductions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.inductions, id)
	return nil
}

func (m *memInductions) UpdateInductionOrder(_ context.Context, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, ok := m.inductions[id]
	if !ok {
		return sql.ErrNoRows
	}
	ind.DisplayOrder = order
	return nil
}

func (m *memInductions) findChapter(id string) (*domain.Induction, int) {
	for _, ind := range m.inductions {
		for i := range ind.Chapters {
			if ind.Chapters[i].ID == id {
				return ind, i
			}
		}
	}
	return nil, -1
}

func (m *memInductions) ListChapters(_ context.Context, inductionID string) ([]*domain.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind := m.tree(inductionID)
	if ind == nil {
		return []*domain.Chapter{}, nil
	}
	out := make([]*domain.Chapter, 0, len(ind.Chapters))
	for i := range ind.Chapters {
		out = append(out, &ind.Chapters[i])
	}
	return out, nil
}

func (m *memInductions) GetChapterByID(_ context.Context, id string) (*domain.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(id)
	if ind == nil {
		return nil, nil
	}
	cp := ind.Chapters[idx]
	cp.Questions = nil
	return &cp, nil
}

func (m *memInductions) CreateChapter(_ context.Context, chapter *domain.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, ok := m.inductions[chapter.InductionID]
	if !ok {
		return sql.ErrNoRows
	}
	ind.Chapters = append(ind.Chapters, *chapter)
	return nil
}

func (m *memInductions) UpdateChapter(_ context.Context, chapter *domain.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(chapter.ID)
	if ind == nil {
		return sql.ErrNoRows
	}
	questions := ind.Chapters[idx].Questions
	ind.Chapters[idx] = *chapter
	ind.Chapters[idx].Questions = questions
	return nil
}

func (m *memInductions) DeleteChapter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(id)
	if ind == nil {
		return sql.ErrNoRows
	}
	ind.Chapters = append(ind.Chapters[:idx], ind.Chapters[idx+1:]...)
	return nil
}

func (m *memInductions) UpdateChapterOrder(_ context.Context, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(id)
	if ind == nil {
		return sql.ErrNoRows
	}
	ind.Chapters[idx].DisplayOrder = order
	sort.SliceStable(ind.Chapters, func(i, j int) bool { return ind.Chapters[i].DisplayOrder < ind.Chapters[j].DisplayOrder })
	return nil
}

func (m *memInductions) findQuestion(id string) (*domain.Chapter, int) {
	for _, ind := range m.inductions {
		for ci := range ind.Chapters {
			for qi := range ind.Chapters[ci].Questions {
				if ind.Chapters[ci].Questions[qi].ID == id {
					return &ind.Chapters[ci], qi
				}
			}
		}
	}
	return nil, -1
}

func (m *memInductions) ListQuestions(_ context.Context, chapterID string) ([]*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(chapterID)
	if ind == nil {
		return []*domain.Question{}, nil
	}
	out := make([]*domain.Question, 0)
	for _, q := range ind.Chapters[idx].Questions {
		cp := q
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memInductions) GetQuestionByID(_ context.Context, id string) (*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chapter, idx := m.findQuestion(id)
	if chapter == nil {
		return nil, nil
	}
	cp := chapter.Questions[idx]
	return &cp, nil
}

func (m *memInductions) CreateQuestion(_ context.Context, q *domain.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, idx := m.findChapter(q.ChapterID)
	if ind == nil {
		return sql.ErrNoRows
	}
	ind.Chapters[idx].Questions = append(ind.Chapters[idx].Questions, *q)
	return nil
}

func (m *memInductions) UpdateQuestion(_ context.Context, q *domain.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chapter, idx := m.findQuestion(q.ID)
	if chapter == nil {
		return sql.ErrNoRows
	}
	chapter.Questions[idx] = *q
	return nil
}

func (m *memInductions) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chapter, idx := m.findQuestion(id)
	if chapter == nil {
		return sql.ErrNoRows
	}
	chapter.Questions = append(chapter.Questions[:idx], chapter.Questions[idx+1:]...)
	return nil
}

func (m *memInductions) UpdateQuestionOrder(_ context.Context, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chapter, idx := m.findQuestion(id)
	if chapter == nil {
		return sql.ErrNoRows
	}
	chapter.Questions[idx].DisplayOrder = order
	return nil
}

// addChapter simulates an admin appending a chapter to the live induction.
func (m *memInductions) addChapter(inductionID string, chapter domain.Chapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chapter.InductionID = inductionID
	ind := m.inductions[inductionID]
	ind.Chapters = append(ind.Chapters, chapter)
}

type memCache struct {
	mu      sync.Mutex
	values  map[string]string
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration
	failAll error
	hgets   int
}

func newMemCache() *memCache {
	return &memCache{
		values: make(map[string]string),
		hashes: make(map[string]map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return "", c.failAll
	}
	v, ok := c.values[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return c.failAll
	}
	c.values[key] = value
	c.ttls[key] = expiration
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return c.failAll
	}
	delete(c.values, key)
	delete(c.hashes, key)
	return nil
}

func (c *memCache) Ping(context.Context) error { return c.failAll }

func (c *memCache) HGet(_ context.Context, key, field string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hgets++
	if c.failAll != nil {
		return "", c.failAll
	}
	v, ok := c.hashes[key][field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return c.failAll
	}
	if c.hashes[key] == nil {
		c.hashes[key] = make(map[string]string)
	}
	c.hashes[key][field] = value
	return nil
}

func (c *memCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return c.failAll
	}
	c.ttls[key] = expiration
	return nil
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// --- fixtures ---

var (
	learner      = &domain.Session{UserID: "user-1", Role: domain.RoleUser}
	otherLearner = &domain.Session{UserID: "user-2", Role: domain.RoleUser}
	adminSession = &domain.Session{UserID: "admin-1", Role: domain.RoleAdmin}
)

// safetyInduction has two chapters: PPE (video URL, two choice questions) and
// Fire Exits (uploaded video, one text question).
func safetyInduction() *domain.Induction {
	return &domain.Induction{
		ID:       "ind-1",
		Title:    "Site Safety",
		IsActive: true,
		Chapters: []domain.Chapter{
			{
				ID:             "ch-1",
				InductionID:    "ind-1",
				Title:          "PPE",
				VideoURL:       "https://videos.example.com/ppe.mp4",
				DisplayOrder:   1,
				PassPercentage: 70,
				Questions: []domain.Question{
					{
						ID: "q-1", ChapterID: "ch-1", Text: "Which helmet colour do visitors wear?",
						Type:          domain.QuestionTypeSingleChoice,
						Options:       []domain.Option{{ID: "a", Label: "White"}, {ID: "b", Label: "Blue"}},
						CorrectAnswer: []string{"a"}, DisplayOrder: 1,
					},
					{
						ID: "q-2", ChapterID: "ch-1", Text: "Select all mandatory items",
						Type:          domain.QuestionTypeMultiChoice,
						Options:       []domain.Option{{ID: "a", Label: "Boots"}, {ID: "b", Label: "Gloves"}, {ID: "c", Label: "Vest"}},
						CorrectAnswer: []string{"a", "c"}, DisplayOrder: 2,
					},
				},
			},
			{
				ID:           "ch-2",
				InductionID:  "ind-1",
				Title:        "Fire Exits",
				VideoPath:    "videos/fire.mp4",
				DisplayOrder: 2,
				Questions: []domain.Question{
					{
						ID: "q-3", ChapterID: "ch-2", Text: "Where do you gather during an alarm?",
						Type:          domain.QuestionTypeText,
						CorrectAnswer: []string{"Assembly Point"}, DisplayOrder: 1,
					},
				},
			},
		},
	}
}

type harness struct {
	inductions  *memInductions
	submissions *memSubmissions
	answers     *memAnswers
	videoRepo   *memVideos
	cache       *memCache
	tx          *passthroughTx

	videos      VideoCompletionService
	lifecycle   SubmissionService
	progression ProgressionService
	ledger      AnswerLedgerService
	progress    ProgressService
	review      ReviewService
}

func newHarness(t *testing.T, seed ...*domain.Induction) *harness {
	t.Helper()
	if len(seed) == 0 {
		seed = []*domain.Induction{safetyInduction()}
	}
	h := &harness{
		inductions:  newMemInductions(seed...),
		submissions: newMemSubmissions(),
		answers:     newMemAnswers(),
		videoRepo:   newMemVideos(),
		cache:       newMemCache(),
		tx:          &passthroughTx{},
	}
	h.videos = NewVideoCompletionService(h.videoRepo, h.submissions, h.cache, nil, time.Hour)
	h.lifecycle = NewSubmissionService(h.submissions, h.inductions, h.answers, h.videos)
	h.progression = NewProgressionService(h.videos, h.answers, h.submissions, h.lifecycle)
	h.ledger = NewAnswerLedgerService(h.submissions, h.answers, h.videos, h.progression, h.tx)
	h.progress = NewProgressService(h.submissions, h.answers, h.videoRepo)
	h.review = NewReviewService(h.submissions, h.answers, newFakeUsers(
		&domain.User{ID: "user-1", Name: "Dana Reyes", Email: "dana@example.com", Role: domain.RoleUser},
	), NewScoringEngine())
	return h
}

func (h *harness) start(t *testing.T) *domain.Submission {
	t.Helper()
	res, err := h.lifecycle.Start(context.Background(), learner, "ind-1")
	require.NoError(t, err)
	return res.Submission
}

func (h *harness) watch(t *testing.T, submissionID, chapterID string) {
	t.Helper()
	total := 120
	_, err := h.videos.MarkCompleted(context.Background(), learner, chapterID, submissionID, &total)
	require.NoError(t, err)
}

func (h *harness) submit(t *testing.T, submissionID, chapterID string, answers map[string]string) *dto.SubmitAnswersResponse {
	t.Helper()
	resp, err := h.ledger.SubmitAnswers(context.Background(), learner, submissionID, answerRequest(chapterID, answers))
	require.NoError(t, err)
	return resp
}

// finishAll watches every chapter and answers every question correctly.
func (h *harness) finishAll(t *testing.T, submissionID string) *dto.SubmitAnswersResponse {
	t.Helper()
	h.watch(t, submissionID, "ch-1")
	h.submit(t, submissionID, "ch-1", map[string]string{"q-1": `"a"`, "q-2": `["a","c"]`})
	h.watch(t, submissionID, "ch-2")
	return h.submit(t, submissionID, "ch-2", map[string]string{"q-3": `"assembly point"`})
}

func answerRequest(chapterID string, answers map[string]string) *dto.SubmitAnswersRequest {
	req := &dto.SubmitAnswersRequest{ChapterID: chapterID}
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		req.Answers = append(req.Answers, dto.AnswerInput{QuestionID: id, AnswerPayload: json.RawMessage(answers[id])})
	}
	return req
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) *domain.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, de.Message)
	return de
}
