// Package normalize rewrites provider JSON onto the canonical record schemas and decodes
// it into typed values.
//
// Keys are matched after folding (lowercase, whitespace, '_' and '-' removed), so "Topic",
// "topic" and "TOPIC_" all land on "topic". Known legacy and Spanish spellings are mapped
// through per-field aliases. Anything else is dropped.
package normalize

type kind int

const (
	kindAny kind = iota
	kindObjects
	kindBox
)

// Field is one canonical field of a Schema.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
	kind     kind
	elem     *Schema
}

// Schema is a fixed set of canonical fields. Containers name wrapper objects whose
// contents are lifted into the record before top-level keys are applied. A container key
// holding a non-object value is matched as an ordinary key.
type Schema struct {
	Name       string
	Fields     []Field
	Containers []string

	index map[string]match
}

type match struct {
	field    int
	priority int
}

func newSchema(name string, containers []string, fields ...Field) *Schema {
	s := &Schema{Name: name, Fields: fields, Containers: containers, index: make(map[string]match)}
	for i, f := range fields {
		s.index[fold(f.Name)] = match{field: i, priority: 1}
		for j, a := range f.Aliases {
			k := fold(a)
			if _, taken := s.index[k]; !taken {
				s.index[k] = match{field: i, priority: 2 + j}
			}
		}
	}
	return s
}

func objects(name string, elem *Schema, required bool, aliases ...string) Field {
	return Field{Name: name, Aliases: aliases, Required: required, kind: kindObjects, elem: elem}
}

func scalar(name string, required bool, aliases ...string) Field {
	return Field{Name: name, Aliases: aliases, Required: required}
}

var (
	// Association is one character/medical-term pair.
	Association = newSchema("association", nil,
		scalar("character", true, "personaje", "personaje_elemento", "personaje_objeto"),
		scalar("medicalTerm", true, "termino_medico", "elemento_medico"),
		scalar("explanation", false, "explicacion", "descripcion"),
	)

	// Quiz is one multiple-choice question.
	Quiz = newSchema("quiz", nil,
		scalar("character", false, "personaje"),
		scalar("question", true, "pregunta"),
		scalar("options", true, "opciones"),
		scalar("correctOptionIndex", true, "correct_answer_index", "indice_correcto", "respuesta_correcta", "correct_answer", "answer", "respuesta"),
		scalar("explanation", false, "explicacion"),
	)

	// Box is one detected character box.
	Box = newSchema("box", nil,
		scalar("character", true, "label", "personaje"),
		Field{Name: "box_2d", Aliases: []string{"box", "bbox", "bounding_box"}, Required: true, kind: kindBox},
	)

	// Mnemonic is the step 1 response.
	Mnemonic = newSchema("mnemonic", []string{"mnemonico", "mnemotecnia"},
		scalar("topic", true, "titulo", "tema"),
		scalar("facts", false, "datos", "hechos", "puntos_clave"),
		scalar("story", true, "historia", "mnemonic_story", "mnemonico_historia", "mnemotecnia_historia", "historia_mnemonica", "mnemotecnico_historia", "titulo_historia"),
		objects("associations", Association, true, "asociaciones"),
		scalar("visualPrompt", true, "prompt_visual"),
		scalar("id", false, "custom_id", "tag"),
	)

	// Staged is one record of the staging file.
	Staged = newSchema("staged", []string{"mnemonic_data", "quiz_data", "mnemonico", "mnemotecnia"},
		scalar("id", false, "custom_id", "tag"),
		scalar("title", false, "input_title"),
		scalar("topic", true, "titulo", "tema"),
		scalar("facts", false, "datos", "hechos", "puntos_clave"),
		scalar("story", true, "historia", "mnemonic_story", "mnemonico_historia", "mnemotecnia_historia", "historia_mnemonica", "mnemotecnico_historia", "titulo_historia"),
		objects("associations", Association, true, "asociaciones"),
		scalar("visualPrompt", true, "prompt_visual"),
		objects("quizzes", Quiz, true, "quiz_data", "quiz", "cuestionario", "quiz_preguntas", "preguntas_quiz", "cuestionario_final"),
		scalar("theme", false, "tema_visual"),
		scalar("visualStyle", false, "estilo_visual"),
		scalar("language", false, "idioma"),
		scalar("specialty", false, "especialidad", "input"),
	)

	// QuizSet wraps the step 5 response.
	QuizSet = newSchema("quiz_set", nil,
		objects("quizzes", Quiz, true, "quiz", "preguntas", "cuestionario"),
	)

	// BoxSet wraps the step 4 response.
	BoxSet = newSchema("box_set", nil,
		objects("boxes", Box, true, "bounding_boxes", "bboxes", "cajas"),
	)
)

func (s *Schema) lookup(key string) (int, int, bool) {
	if i, ok := s.fieldByName(key); ok {
		return i, 0, true
	}
	m, ok := s.index[fold(key)]
	return m.field, m.priority, ok
}

func (s *Schema) fieldByName(key string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == key {
			return i, true
		}
	}
	return 0, false
}

func (s *Schema) isContainer(key string) bool {
	k := fold(key)
	for _, c := range s.Containers {
		if fold(c) == k {
			return true
		}
	}
	return false
}
