package quiz

import (
	"quizrunner/internal/domain"
	"quizrunner/internal/rng"
)

// ChoiceMapping is the display<->original permutation for one question.
// Answers are always stored in original index space; the mapping only decides
// where each choice appears on screen.
type ChoiceMapping struct {
	DisplayToOriginal [domain.NumChoices]int
	OriginalToDisplay [domain.NumChoices]int
	DisplayChoices    [domain.NumChoices]string
	// DisplayCorrect is the display index of the correct answer.
	DisplayCorrect int
}

// BuildChoiceMapping derives the mapping for q. With shuffle off the mapping
// is the identity. With shuffle on it is a pure function of the question id
// (question text when the id is empty), so the same question renders with the
// same arrangement across navigation, re-renders, and review.
func BuildChoiceMapping(q domain.Question, shuffle bool) ChoiceMapping {
	m := ChoiceMapping{DisplayToOriginal: [domain.NumChoices]int{0, 1, 2, 3}}

	if shuffle {
		seed := q.ID
		if seed == "" {
			seed = q.Question
		}
		rng.New(seed).Shuffle(domain.NumChoices, func(i, j int) {
			m.DisplayToOriginal[i], m.DisplayToOriginal[j] = m.DisplayToOriginal[j], m.DisplayToOriginal[i]
		})
	}

	for display, orig := range m.DisplayToOriginal {
		m.OriginalToDisplay[orig] = display
		m.DisplayChoices[display] = q.Choices[orig]
	}
	m.DisplayCorrect = m.OriginalToDisplay[q.AnswerIndex]
	return m
}

// Label returns the display letter (A-D) for an original choice index, or "?"
// for anything out of range.
func (m ChoiceMapping) Label(originalIdx int) string {
	if originalIdx < 0 || originalIdx >= domain.NumChoices {
		return "?"
	}
	return string(rune('A' + m.OriginalToDisplay[originalIdx]))
}
