package service

import (
	"strings"

	"medmonics/internal/domain"
)

// LinkQuizzes ties each quiz item to a detected box. A character that matches a box label
// case-insensitively is rewritten to the label's spelling; any other character is cleared
// so that no item references a character missing from boxes.
func LinkQuizzes(quizzes []domain.QuizItem, boxes domain.BboxSet) []domain.QuizItem {
	labels := make(map[string]string, len(boxes.Boxes))
	for _, b := range boxes.Boxes {
		key := strings.ToLower(strings.TrimSpace(b.Character))
		if _, ok := labels[key]; !ok {
			labels[key] = b.Character
		}
	}

	out := make([]domain.QuizItem, len(quizzes))
	for i, q := range quizzes {
		q.Options = append([]string(nil), q.Options...)
		if q.Character != "" {
			q.Character = labels[strings.ToLower(strings.TrimSpace(q.Character))]
		}
		out[i] = q
	}
	return out
}
