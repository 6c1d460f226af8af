package models

import "time"

// Video is the durable record for a processed video, keyed by its
// canonical URL. Reprocessing the same URL replaces every non-key field;
// there is no history.
type Video struct {
	URL           string    `json:"url"`
	TitleOption1  string    `json:"title_option_1"`
	TitleOption2  string    `json:"title_option_2"`
	TitleOption3  string    `json:"title_option_3"`
	Summary       string    `json:"summary"`
	Transcription string    `json:"transcription,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Suggestions is the generated payload delivered to clients.
type Suggestions struct {
	TitleOption1 string `json:"title_option_1"`
	TitleOption2 string `json:"title_option_2"`
	TitleOption3 string `json:"title_option_3"`
	Summary      string `json:"summary"`
}

// Suggestions extracts the generated fields from a stored record.
func (v *Video) Suggestions() Suggestions {
	return Suggestions{
		TitleOption1: v.TitleOption1,
		TitleOption2: v.TitleOption2,
		TitleOption3: v.TitleOption3,
		Summary:      v.Summary,
	}
}
