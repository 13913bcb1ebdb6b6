package seedmodels

// SeedOption is one choice of a choice question.
type SeedOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SeedQuestion defines a question in the JSON seed file.
type SeedQuestion struct {
	Text          string       `json:"question_text"`
	Type          string       `json:"type"`
	Options       []SeedOption `json:"options"`
	CorrectAnswer []string     `json:"correct_answer"`
}

// SeedChapter defines a chapter in the JSON seed file.
type SeedChapter struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	VideoURL       string         `json:"video_url"`
	VideoPath      string         `json:"video_path"`
	PassPercentage *int           `json:"pass_percentage"`
	Questions      []SeedQuestion `json:"questions"`
}

// SeedInduction defines the top-level structure of the JSON seed file.
type SeedInduction struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	IsActive    *bool         `json:"is_active"`
	Chapters    []SeedChapter `json:"chapters"`
}
