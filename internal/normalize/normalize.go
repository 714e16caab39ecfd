package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"medmonics/internal/domain"
)

func fold(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Normalize returns a copy of raw with every recognized key renamed to its canonical name.
// Arrays of nested records are normalized element by element. Normalizing an already
// canonical record returns an equal record.
func Normalize(s *Schema, raw map[string]any) map[string]any {
	type pick struct {
		value    any
		priority int
	}
	picked := make(map[int]pick)

	apply := func(src map[string]any, top bool) {
		level := make(map[int]pick)
		for _, k := range sortedKeys(src) {
			if _, isObj := src[k].(map[string]any); top && isObj && s.isContainer(k) {
				continue
			}
			i, prio, ok := s.lookup(k)
			if !ok {
				continue
			}
			if cur, seen := level[i]; seen && cur.priority <= prio {
				continue
			}
			level[i] = pick{value: src[k], priority: prio}
		}
		for i, p := range level {
			picked[i] = p
		}
	}

	for _, k := range sortedKeys(raw) {
		if !s.isContainer(k) {
			continue
		}
		if inner, ok := raw[k].(map[string]any); ok {
			apply(inner, false)
		}
	}
	apply(raw, true)

	out := make(map[string]any, len(picked))
	for i, p := range picked {
		f := s.Fields[i]
		v := p.value
		if f.kind == kindObjects {
			v = normalizeList(f.elem, v)
		}
		out[f.Name] = v
	}
	return out
}

func normalizeList(elem *Schema, v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, item := range list {
		if m, ok := item.(map[string]any); ok {
			out[i] = Normalize(elem, m)
		} else {
			out[i] = item
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks a normalized record: required fields present and non-null, nested
// records valid, boxes of exactly four integers. The returned SchemaError names the
// offending field path, e.g. "associations[1].character".
func Validate(s *Schema, rec map[string]any) error {
	return validate(s, rec, "")
}

func validate(s *Schema, rec map[string]any, prefix string) error {
	for _, f := range s.Fields {
		path := prefix + f.Name
		v, present := rec[f.Name]
		if !present || v == nil {
			if f.Required {
				return domain.NewSchemaError(path, "required field is missing")
			}
			continue
		}
		switch f.kind {
		case kindObjects:
			list, ok := v.([]any)
			if !ok {
				return domain.NewSchemaError(path, "expected an array of objects")
			}
			for i, item := range list {
				m, ok := item.(map[string]any)
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if !ok {
					return domain.NewSchemaError(itemPath, "expected an object")
				}
				if err := validate(f.elem, m, itemPath+"."); err != nil {
					return err
				}
			}
		case kindBox:
			if err := validateBox(path, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateBox(path string, v any) error {
	list, ok := v.([]any)
	if !ok || len(list) != 4 {
		return domain.NewSchemaError(path, "expected [ymin, xmin, ymax, xmax]")
	}
	for _, n := range list {
		f, ok := n.(float64)
		if !ok || f != float64(int(f)) {
			return domain.NewSchemaError(path, "coordinates must be integers")
		}
	}
	return nil
}

// Decode parses raw JSON, normalizes and validates it against s, then decodes it strictly
// into T. Any failure is a SchemaError.
func Decode[T any](s *Schema, raw []byte) (T, error) {
	var zero T
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return zero, domain.NewSchemaError(s.Name, "not a JSON object: "+err.Error())
	}
	return decodeMap[T](s, obj)
}

func decodeMap[T any](s *Schema, obj map[string]any) (T, error) {
	var out T
	rec := Normalize(s, obj)
	if err := Validate(s, rec); err != nil {
		return out, err
	}
	canonical, err := json.Marshal(rec)
	if err != nil {
		return out, domain.NewSchemaError(s.Name, err.Error())
	}
	dec := json.NewDecoder(bytes.NewReader(canonical))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		field := s.Name
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field = typeErr.Field
		}
		return out, domain.NewSchemaError(field, err.Error())
	}
	return out, nil
}

// DecodeMnemonic decodes a step 1 response.
func DecodeMnemonic(raw []byte) (*domain.MnemonicRecord, error) {
	rec, err := Decode[domain.MnemonicRecord](Mnemonic, raw)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DecodeStaged decodes one staging record and checks its quiz answer indexes.
func DecodeStaged(raw []byte) (*domain.StagedRecord, error) {
	rec, err := Decode[domain.StagedRecord](Staged, raw)
	if err != nil {
		return nil, err
	}
	if err := checkQuizzes(rec.Quizzes); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DecodeQuizzes decodes a step 5 response, either {"quizzes": [...]} or a bare array.
func DecodeQuizzes(raw []byte) ([]domain.QuizItem, error) {
	obj, err := wrapList(raw, "quizzes", QuizSet)
	if err != nil {
		return nil, err
	}
	set, err := decodeMap[struct {
		Quizzes []domain.QuizItem `json:"quizzes"`
	}](QuizSet, obj)
	if err != nil {
		return nil, err
	}
	if err := checkQuizzes(set.Quizzes); err != nil {
		return nil, err
	}
	return set.Quizzes, nil
}

// DecodeBoxes decodes a step 4 response, either {"boxes": [...]} or a bare array. Boxes
// whose coordinates are all zero are dropped.
func DecodeBoxes(raw []byte) (domain.BboxSet, error) {
	obj, err := wrapList(raw, "boxes", BoxSet)
	if err != nil {
		return domain.BboxSet{}, err
	}
	set, err := decodeMap[domain.BboxSet](BoxSet, obj)
	if err != nil {
		return domain.BboxSet{}, err
	}
	kept := make([]domain.CharBox, 0, len(set.Boxes))
	for _, b := range set.Boxes {
		if b.Box == [4]int{} {
			continue
		}
		kept = append(kept, b)
	}
	return domain.BboxSet{Boxes: kept}, nil
}

func wrapList(raw []byte, key string, s *Schema) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, domain.NewSchemaError(s.Name, "invalid JSON: "+err.Error())
	}
	switch t := v.(type) {
	case []any:
		return map[string]any{key: t}, nil
	case map[string]any:
		return t, nil
	default:
		return nil, domain.NewSchemaError(s.Name, "expected an object or an array")
	}
}

func checkQuizzes(items []domain.QuizItem) error {
	for i, q := range items {
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			return domain.NewSchemaError(fmt.Sprintf("quizzes[%d].correctOptionIndex", i),
				fmt.Sprintf("index %d out of range for %d options", q.CorrectOptionIndex, len(q.Options)))
		}
	}
	return nil
}

// ExtractJSON pulls the JSON payload out of model text: markdown fences are stripped and
// the outermost object or array is returned.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}
