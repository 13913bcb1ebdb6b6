package domain

import "fmt"

// RouteKind names the learner screen a submission should show next.
type RouteKind string

const (
	RouteVideo     RouteKind = "video"
	RouteQuestions RouteKind = "questions"
	RouteView      RouteKind = "view"
)

// RouteDecision is where a learner goes next. ChapterNumber is 1-based and zero for the view screen.
type RouteDecision struct {
	Kind          RouteKind `json:"kind"`
	SubmissionID  string    `json:"submission_id"`
	ChapterID     string    `json:"chapter_id,omitempty"`
	ChapterNumber int       `json:"chapter_number,omitempty"`
	Path          string    `json:"path"`
}

// ChapterRoute points at the video or questions screen of the chapter at index.
func ChapterRoute(kind RouteKind, submissionID string, index int, chapterID string) RouteDecision {
	path := fmt.Sprintf("/inductions/%s/chapter/%d", submissionID, index+1)
	if kind == RouteQuestions {
		path += "/questions"
	}
	return RouteDecision{
		Kind:          kind,
		SubmissionID:  submissionID,
		ChapterID:     chapterID,
		ChapterNumber: index + 1,
		Path:          path,
	}
}

// ViewRoute points at the read-only review screen of a finished submission.
func ViewRoute(submissionID string) RouteDecision {
	return RouteDecision{
		Kind:         RouteView,
		SubmissionID: submissionID,
		Path:         fmt.Sprintf("/inductions/%s/view", submissionID),
	}
}
