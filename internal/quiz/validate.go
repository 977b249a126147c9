// Package quiz turns untrusted quiz JSON into canonical questions and derives
// the per-question choice display mapping.
package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizrunner/internal/domain"
)

// ValidationError reports why a quiz document was rejected. Index is the
// 1-based question number, or 0 when the document as a whole is at fault.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index == 0 {
		return e.Reason
	}
	return fmt.Sprintf("question #%d %s", e.Index, e.Reason)
}

func errAt(idx int, format string, args ...any) error {
	return &ValidationError{Index: idx, Reason: fmt.Sprintf(format, args...)}
}

// letterIndex maps the friendly "answer" letter form to an original index.
var letterIndex = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// Normalize parses raw quiz JSON and returns the canonical question list.
// Validation is fail-closed: the first bad element aborts with no partial
// results. The returned list is never empty on success.
func Normalize(raw []byte) ([]domain.Question, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, &ValidationError{Reason: "invalid JSON: " + err.Error()}
	}
	elems, ok := root.([]any)
	if !ok {
		return nil, &ValidationError{Reason: "JSON root must be an array of questions"}
	}

	out := make([]domain.Question, 0, len(elems))
	for i, elem := range elems {
		q, err := normalizeOne(i+1, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}

	if len(out) == 0 {
		return nil, &ValidationError{Reason: "quiz has no questions"}
	}
	return out, nil
}

func normalizeOne(idx int, elem any) (domain.Question, error) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return domain.Question{}, errAt(idx, "is not an object")
	}

	text, ok := obj["question"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return domain.Question{}, errAt(idx, `must have a non-empty "question" string`)
	}

	rawChoices, ok := obj["choices"].([]any)
	if !ok || len(rawChoices) != domain.NumChoices {
		return domain.Question{}, errAt(idx, `must have "choices" as an array of exactly %d strings`, domain.NumChoices)
	}
	choices := make([]string, domain.NumChoices)
	for c, rc := range rawChoices {
		s, ok := rc.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return domain.Question{}, errAt(idx, "choice #%d must be a non-empty string", c+1)
		}
		// Choice text is preserved verbatim; only emptiness is checked.
		choices[c] = s
	}

	answer, ok := answerIndex(obj)
	if !ok {
		return domain.Question{}, errAt(idx, `must have "answerIndex" (0-3) or "answer" (A-D)`)
	}

	q := domain.Question{
		ID:          questionID(obj),
		Question:    text,
		Choices:     choices,
		AnswerIndex: answer,
	}
	if expl, ok := obj["explanation"].(string); ok {
		q.Explanation = expl
	}
	if code, ok := obj["code"].(string); ok && strings.TrimSpace(code) != "" {
		q.Code = code
	}
	return q, nil
}

// answerIndex resolves the correct choice from "answerIndex" (integer 0..3)
// or, failing that, the letter form "answer" (A-D, case-insensitive).
func answerIndex(obj map[string]any) (int, bool) {
	if n, ok := obj["answerIndex"].(float64); ok && n == math.Trunc(n) {
		if n >= 0 && n < domain.NumChoices {
			return int(n), true
		}
		return 0, false
	}
	// A missing or non-integer answerIndex falls back to the letter form;
	// an integer out of range never does.
	if letter, ok := obj["answer"].(string); ok {
		if i, ok := letterIndex[strings.ToUpper(strings.TrimSpace(letter))]; ok {
			return i, true
		}
	}
	return 0, false
}

// questionID keeps a non-empty trimmed input id verbatim and synthesizes a
// fresh one otherwise.
func questionID(obj map[string]any) string {
	if id, ok := obj["id"].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return fmt.Sprintf("q_%s_%d", strings.SplitN(uuid.NewString(), "-", 2)[0], time.Now().UnixMilli())
}
