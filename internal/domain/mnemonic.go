package domain

import "time"

// Association pairs a story character with the medical term it stands for.
type Association struct {
	Character   string `json:"character"`
	MedicalTerm string `json:"medicalTerm"`
	Explanation string `json:"explanation,omitempty"`
}

// MnemonicRecord is the text output of pipeline step 1, with VisualPrompt replaced by the
// enhanced prompt after step 2.
type MnemonicRecord struct {
	ID           string        `json:"id,omitempty"`
	Topic        string        `json:"topic"`
	Facts        []string      `json:"facts,omitempty"`
	Story        string        `json:"story"`
	Associations []Association `json:"associations"`
	VisualPrompt string        `json:"visualPrompt"`
}

// Characters returns the association character labels in story order.
func (m *MnemonicRecord) Characters() []string {
	out := make([]string, 0, len(m.Associations))
	for _, a := range m.Associations {
		out = append(out, a.Character)
	}
	return out
}

// QuizItem is a multiple-choice question linked to one character of the illustration.
type QuizItem struct {
	Character          string   `json:"character,omitempty"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// CharBox locates one character in an image. Box is [ymin, xmin, ymax, xmax] on a 0-1000
// normalized scale.
type CharBox struct {
	Character string `json:"character"`
	Box       [4]int `json:"box_2d"`
}

// BboxSet holds the detected character boxes for one image.
type BboxSet struct {
	Boxes []CharBox `json:"boxes"`
}

// Labels returns the character labels present in the set.
func (b BboxSet) Labels() []string {
	out := make([]string, 0, len(b.Boxes))
	for _, box := range b.Boxes {
		out = append(out, box.Character)
	}
	return out
}

// ImageArtifact is an immutable generated image tied to exactly one MnemonicRecord.
type ImageArtifact struct {
	RecordID string
	Data     []byte
	MIMEType string
	Prompt   string
	// Fallback is set when the image came from the fallback prompt.
	Fallback bool
}

// MnemonicInput is the input of pipeline step 1.
type MnemonicInput struct {
	Topic       string   `json:"topic"`
	Facts       []string `json:"facts,omitempty"`
	Language    string   `json:"language"`
	Theme       string   `json:"theme"`
	VisualStyle string   `json:"visual_style"`
}

// GenerationMetadata is stored next to a finished generation.
type GenerationMetadata struct {
	TopicID   string    `json:"topic_id"`
	Topic     string    `json:"topic"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"timestamp"`
	BatchJob  string    `json:"batch_job,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
}

// Generation is a complete result bundle: record, image, boxes and quiz.
type Generation struct {
	Record   MnemonicRecord
	Image    ImageArtifact
	Boxes    BboxSet
	Quizzes  []QuizItem
	Metadata GenerationMetadata
}

// GenerationSummary describes a persisted generation without loading its image.
type GenerationSummary struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Specialty string    `json:"specialty"`
	Path      string    `json:"path"`
	BatchJob  string    `json:"batch_job,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
