package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"medmonics/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMap(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

const canonicalStaged = `{
	"id": "rec-1",
	"topic": "Macrolides",
	"facts": ["Inhibit 50S"],
	"story": "A macaroni slide...",
	"associations": [{"character": "Macaroni Slide", "medicalTerm": "Macrolide", "explanation": "sounds alike"}],
	"visualPrompt": "A slide made of macaroni",
	"quizzes": [{"character": "Macaroni Slide", "question": "Target?", "options": ["30S", "50S"], "correctOptionIndex": 1, "explanation": "50S"}]
}`

func TestNormalize_CaseAndSeparatorInsensitive(t *testing.T) {
	for _, key := range []string{"Topic", "topic", "TOPIC_", "to pic", "-topic-"} {
		t.Run(key, func(t *testing.T) {
			out := Normalize(Mnemonic, map[string]any{key: "Macrolides"})
			assert.Equal(t, map[string]any{"topic": "Macrolides"}, out)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rec := mustMap(t, canonicalStaged)

	once := Normalize(Staged, rec)
	assert.Equal(t, rec, once)

	twice := Normalize(Staged, once)
	assert.Equal(t, once, twice)
}

func TestNormalize_AliasesContainersAndUnknownKeys(t *testing.T) {
	raw := mustMap(t, `{
		"mnemonic_data": {
			"TEMA": "Beta blockers",
			"historia": "Betty blocks the door",
			"asociaciones": [{"personaje": "Betty", "termino_medico": "Beta blocker", "color": "red"}],
			"prompt_visual": "Betty at a door"
		},
		"quiz_data": [{"pregunta": "Effect?", "opciones": ["A", "B"], "correct_option_index": 0}],
		"story": "Top-level story wins",
		"extra": "dropped"
	}`)

	out := Normalize(Staged, raw)

	assert.Equal(t, "Beta blockers", out["topic"])
	assert.Equal(t, "Top-level story wins", out["story"])
	assert.Equal(t, "Betty at a door", out["visualPrompt"])
	assert.NotContains(t, out, "extra")
	assert.NotContains(t, out, "mnemonic_data")

	assoc := out["associations"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"character": "Betty", "medicalTerm": "Beta blocker"}, assoc)

	quiz := out["quizzes"].([]any)[0].(map[string]any)
	assert.Equal(t, "Effect?", quiz["question"])
	assert.Equal(t, float64(0), quiz["correctOptionIndex"])
}

func TestDecodeStaged_NestedStagingShape(t *testing.T) {
	raw := []byte(`{
		"mnemonic_data": {"topic": "Digoxin", "story": "Doug", "associations": [{"character": "Doug", "medicalTerm": "Digoxin"}], "visualPrompt": "Doug"},
		"quiz_data": {"quizzes": [{"character": "Doug", "question": "Toxicity sign?", "options": ["Yellow vision", "Hearing loss"], "correctOptionIndex": 0}]},
		"input": "Cardiology"
	}`)

	rec, err := DecodeStaged(raw)
	require.NoError(t, err)
	assert.Equal(t, "Digoxin", rec.Topic)
	assert.Equal(t, "Cardiology", rec.Specialty)
	require.Len(t, rec.Quizzes, 1)
	assert.Equal(t, "Toxicity sign?", rec.Quizzes[0].Question)
}

func TestNormalize_ExactSpellingWins(t *testing.T) {
	out := Normalize(Mnemonic, map[string]any{"Topic": "folded", "topic": "exact", "tema": "alias"})
	assert.Equal(t, "exact", out["topic"])

	out = Normalize(Mnemonic, map[string]any{"Topic": "folded", "tema": "alias"})
	assert.Equal(t, "folded", out["topic"])
}

func TestDecodeStaged_MissingTopic(t *testing.T) {
	rec := mustMap(t, canonicalStaged)
	delete(rec, "topic")
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	_, err = DecodeStaged(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchema))

	field, ok := domain.SchemaField(err)
	require.True(t, ok)
	assert.Equal(t, "topic", field)
}

func TestDecodeStaged_NullRequiredField(t *testing.T) {
	rec := mustMap(t, canonicalStaged)
	rec["visual_prompt"] = nil
	delete(rec, "visualPrompt")
	raw, _ := json.Marshal(rec)

	_, err := DecodeStaged(raw)
	field, ok := domain.SchemaField(err)
	require.True(t, ok)
	assert.Equal(t, "visualPrompt", field)
}

func TestDecodeStaged_NestedFieldPath(t *testing.T) {
	rec := mustMap(t, canonicalStaged)
	rec["associations"] = []any{
		map[string]any{"character": "A", "medicalTerm": "a"},
		map[string]any{"medicalTerm": "b"},
	}
	raw, _ := json.Marshal(rec)

	_, err := DecodeStaged(raw)
	field, ok := domain.SchemaField(err)
	require.True(t, ok)
	assert.Equal(t, "associations[1].character", field)
}

func TestDecodeStaged_AnswerOutOfRange(t *testing.T) {
	rec := mustMap(t, canonicalStaged)
	rec["quizzes"].([]any)[0].(map[string]any)["correctOptionIndex"] = 5
	raw, _ := json.Marshal(rec)

	_, err := DecodeStaged(raw)
	field, ok := domain.SchemaField(err)
	require.True(t, ok)
	assert.Equal(t, "quizzes[0].correctOptionIndex", field)
}

func TestDecodeStaged_WrongTypeIsSchemaError(t *testing.T) {
	rec := mustMap(t, canonicalStaged)
	rec["facts"] = "not a list"
	raw, _ := json.Marshal(rec)

	_, err := DecodeStaged(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchema))
}

func TestDecodeStaged_Valid(t *testing.T) {
	rec, err := DecodeStaged([]byte(canonicalStaged))
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Macrolides", rec.Topic)
	require.Len(t, rec.Associations, 1)
	assert.Equal(t, "Macrolide", rec.Associations[0].MedicalTerm)
	require.Len(t, rec.Quizzes, 1)
	assert.Equal(t, 1, rec.Quizzes[0].CorrectOptionIndex)
}

func TestDecodeMnemonic(t *testing.T) {
	rec, err := DecodeMnemonic([]byte(`{"Topic": "Statins", "Story": "Stan", "Associations": [{"Character": "Stan", "medical_term": "Statin"}], "visual_prompt": "Stan"}`))
	require.NoError(t, err)
	assert.Equal(t, "Statins", rec.Topic)
	assert.Equal(t, "Statin", rec.Associations[0].MedicalTerm)
	assert.Equal(t, "Stan", rec.VisualPrompt)

	_, err = DecodeMnemonic([]byte(`["not", "an", "object"]`))
	assert.True(t, errors.Is(err, domain.ErrSchema))
}

func TestDecodeBoxes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []domain.CharBox
		wantErr bool
	}{
		{
			name: "wrapped",
			raw:  `{"boxes": [{"character": "Stan", "box_2d": [10, 20, 300, 400]}]}`,
			want: []domain.CharBox{{Character: "Stan", Box: [4]int{10, 20, 300, 400}}},
		},
		{
			name: "bare array with aliases",
			raw:  `[{"Label": "Stan", "bbox": [10.0, 20, 300, 400]}, {"character": "Ghost", "box_2d": [0, 0, 0, 0]}]`,
			want: []domain.CharBox{{Character: "Stan", Box: [4]int{10, 20, 300, 400}}},
		},
		{
			name:    "three coordinates",
			raw:     `[{"character": "Stan", "box_2d": [10, 20, 300]}]`,
			wantErr: true,
		},
		{
			name:    "fractional coordinates",
			raw:     `[{"character": "Stan", "box_2d": [10.5, 20, 300, 400]}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBoxes([]byte(tt.raw))
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrSchema))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Boxes)
		})
	}
}

func TestDecodeQuizzes(t *testing.T) {
	items, err := DecodeQuizzes([]byte(`{"quizzes": [{"character": "Stan", "question": "Q?", "options": ["a", "b", "c", "d"], "correctOptionIndex": 2, "explanation": "c"}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Stan", items[0].Character)

	items, err = DecodeQuizzes([]byte(`[{"pregunta": "Q?", "opciones": ["a", "b"], "respuesta_correcta": 0}]`))
	require.NoError(t, err)
	assert.Equal(t, "Q?", items[0].Question)

	_, err = DecodeQuizzes([]byte(`"nope"`))
	assert.True(t, errors.Is(err, domain.ErrSchema))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"Here you go: {\"a\": {\"b\": 2}} hope it helps", `{"a": {"b": 2}}`},
		{"```\n[1, 2]\n```", `[1, 2]`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractJSON(tt.in))
	}
}
