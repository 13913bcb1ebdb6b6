package domain

// InductionSnapshot is the copy of an induction frozen into a submission at start.
// Chapter order in the snapshot is the progression order.
type InductionSnapshot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

// NewSnapshot deep-copies the live induction so later admin edits do not leak in.
func NewSnapshot(induction *Induction) InductionSnapshot {
	s := InductionSnapshot{
		ID:          induction.ID,
		Title:       induction.Title,
		Description: induction.Description,
	}
	s.Chapters = cloneChapters(induction.Chapters)
	return s
}

// Clone returns a deep copy.
func (s InductionSnapshot) Clone() InductionSnapshot {
	out := s
	out.Chapters = cloneChapters(s.Chapters)
	return out
}

// ChapterIDs returns chapter ids in snapshot order.
func (s InductionSnapshot) ChapterIDs() []string {
	ids := make([]string, 0, len(s.Chapters))
	for _, c := range s.Chapters {
		ids = append(ids, c.ID)
	}
	return ids
}

// ChapterIndex returns the 0-based position of chapterID, or -1.
func (s InductionSnapshot) ChapterIndex(chapterID string) int {
	for i, c := range s.Chapters {
		if c.ID == chapterID {
			return i
		}
	}
	return -1
}

// Chapter returns the snapshot chapter with chapterID.
func (s InductionSnapshot) Chapter(chapterID string) (*Chapter, bool) {
	idx := s.ChapterIndex(chapterID)
	if idx < 0 {
		return nil, false
	}
	return &s.Chapters[idx], true
}

// ChapterRef identifies a snapshot chapter for clients. ChapterNumber is 1-based.
type ChapterRef struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DisplayOrder  int    `json:"display_order"`
	ChapterNumber int    `json:"chapter_number"`
}

// ChapterRef returns the reference for the chapter at the 0-based index, or nil when out of range.
func (s InductionSnapshot) ChapterRef(index int) *ChapterRef {
	if index < 0 || index >= len(s.Chapters) {
		return nil
	}
	c := s.Chapters[index]
	return &ChapterRef{
		ID:            c.ID,
		Title:         c.Title,
		DisplayOrder:  c.DisplayOrder,
		ChapterNumber: index + 1,
	}
}

// QuestionCount returns the total number of questions across all chapters.
func (s InductionSnapshot) QuestionCount() int {
	n := 0
	for _, c := range s.Chapters {
		n += len(c.Questions)
	}
	return n
}

// MissingChapters returns live chapters whose id does not appear in the snapshot, in live order.
func (s InductionSnapshot) MissingChapters(live *Induction) []Chapter {
	if live == nil {
		return nil
	}
	known := make(map[string]struct{}, len(s.Chapters))
	for _, c := range s.Chapters {
		known[c.ID] = struct{}{}
	}
	var missing []Chapter
	for _, c := range live.Chapters {
		if _, ok := known[c.ID]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Merge appends chapters present in live but not in the snapshot. Existing snapshot
// chapters keep their frozen content. It returns the merged snapshot and the ids added.
func (s InductionSnapshot) Merge(live *Induction) (InductionSnapshot, []string) {
	merged := s.Clone()
	missing := s.MissingChapters(live)
	added := make([]string, 0, len(missing))
	for _, c := range cloneChapters(missing) {
		merged.Chapters = append(merged.Chapters, c)
		added = append(added, c.ID)
	}
	return merged, added
}

func cloneChapters(in []Chapter) []Chapter {
	if in == nil {
		return nil
	}
	out := make([]Chapter, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Questions = cloneQuestions(c.Questions)
	}
	return out
}

func cloneQuestions(in []Question) []Question {
	if in == nil {
		return nil
	}
	out := make([]Question, len(in))
	for i, q := range in {
		out[i] = q
		if q.Options != nil {
			out[i].Options = append([]Option(nil), q.Options...)
		}
		if q.CorrectAnswer != nil {
			out[i].CorrectAnswer = append([]string(nil), q.CorrectAnswer...)
		}
	}
	return out
}
