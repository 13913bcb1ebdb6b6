package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInduction() *Induction {
	return &Induction{
		ID:    "ind-1",
		Title: "Site safety",
		Chapters: []Chapter{
			{
				ID:       "ch-1",
				Title:    "PPE",
				VideoURL: "https://videos.example.com/ppe.mp4",
				Questions: []Question{
					{ID: "q-1", Type: QuestionTypeSingleChoice, Options: []Option{{ID: "a", Label: "Helmet"}, {ID: "b", Label: "Cap"}}, CorrectAnswer: []string{"a"}},
				},
			},
			{ID: "ch-2", Title: "Exits", VideoPath: "uploads/exits.mp4"},
		},
	}
}

func TestNewSnapshot_IsDeepCopy(t *testing.T) {
	live := sampleInduction()
	snap := NewSnapshot(live)

	live.Chapters[0].Title = "changed"
	live.Chapters[0].Questions[0].CorrectAnswer[0] = "b"
	live.Chapters[0].Questions[0].Options[0].Label = "changed"
	live.Chapters = append(live.Chapters, Chapter{ID: "ch-3"})

	require.Len(t, snap.Chapters, 2)
	assert.Equal(t, "PPE", snap.Chapters[0].Title)
	assert.Equal(t, []string{"a"}, snap.Chapters[0].Questions[0].CorrectAnswer)
	assert.Equal(t, "Helmet", snap.Chapters[0].Questions[0].Options[0].Label)
}

func TestSnapshot_MergeAppendsOnlyNewChapters(t *testing.T) {
	snap := NewSnapshot(sampleInduction())

	live := sampleInduction()
	live.Chapters[0].Title = "PPE (edited)"
	live.Chapters = append(live.Chapters, Chapter{ID: "ch-3", Title: "Fire"}, Chapter{ID: "ch-4", Title: "First aid"})

	merged, added := snap.Merge(live)

	assert.Equal(t, []string{"ch-3", "ch-4"}, added)
	assert.Equal(t, []string{"ch-1", "ch-2", "ch-3", "ch-4"}, merged.ChapterIDs())
	assert.Equal(t, "PPE", merged.Chapters[0].Title, "existing chapters keep frozen content")
	assert.Len(t, snap.Chapters, 2, "original snapshot is untouched")
}

func TestSnapshot_MergeWithNothingNew(t *testing.T) {
	snap := NewSnapshot(sampleInduction())
	merged, added := snap.Merge(sampleInduction())

	assert.Empty(t, added)
	assert.Equal(t, snap.ChapterIDs(), merged.ChapterIDs())
	assert.Empty(t, snap.MissingChapters(nil))
}

func TestSnapshot_Lookups(t *testing.T) {
	snap := NewSnapshot(sampleInduction())

	assert.Equal(t, 1, snap.ChapterIndex("ch-2"))
	assert.Equal(t, -1, snap.ChapterIndex("nope"))
	assert.Equal(t, 1, snap.QuestionCount())

	ch, ok := snap.Chapter("ch-1")
	require.True(t, ok)
	assert.Equal(t, "PPE", ch.Title)

	_, ok = snap.Chapter("nope")
	assert.False(t, ok)
}

func TestChapter_VideoReference(t *testing.T) {
	tests := []struct {
		name     string
		chapter  Chapter
		expected string
		hasVideo bool
	}{
		{"url wins over path", Chapter{VideoURL: "https://x/v.mp4", VideoPath: "uploads/v.mp4"}, "https://x/v.mp4", true},
		{"path when url blank", Chapter{VideoURL: "  ", VideoPath: "uploads/v.mp4"}, "uploads/v.mp4", true},
		{"neither", Chapter{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.chapter.VideoReference())
			assert.Equal(t, tt.hasVideo, tt.chapter.HasVideo())
		})
	}
}
