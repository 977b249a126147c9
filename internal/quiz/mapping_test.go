package quiz

import (
	"testing"

	"quizrunner/internal/domain"
)

func sampleQuestion(id string) domain.Question {
	return domain.Question{
		ID:          id,
		Question:    "What is 2 + 2?",
		Choices:     []string{"3", "4", "5", "22"},
		AnswerIndex: 1,
	}
}

func TestMappingIdentityWithoutShuffle(t *testing.T) {
	m := BuildChoiceMapping(sampleQuestion("q-a"), false)
	for i := 0; i < domain.NumChoices; i++ {
		if m.DisplayToOriginal[i] != i || m.OriginalToDisplay[i] != i {
			t.Fatalf("expected identity mapping, got %+v", m)
		}
	}
	if m.DisplayCorrect != 1 {
		t.Fatalf("display correct should equal answer index, got %d", m.DisplayCorrect)
	}
	if m.Label(1) != "B" {
		t.Fatalf("expected label B, got %s", m.Label(1))
	}
}

func TestMappingDeterministicPerID(t *testing.T) {
	first := BuildChoiceMapping(sampleQuestion("q-a"), true)
	second := BuildChoiceMapping(sampleQuestion("q-a"), true)
	if first != second {
		t.Fatalf("same id must yield the same mapping: %+v vs %+v", first, second)
	}
}

func TestMappingIsInvolutivePermutation(t *testing.T) {
	for _, id := range []string{"q-a", "q-b", "", "some longer id value"} {
		m := BuildChoiceMapping(sampleQuestion(id), true)
		seen := [domain.NumChoices]bool{}
		for display, orig := range m.DisplayToOriginal {
			if orig < 0 || orig >= domain.NumChoices || seen[orig] {
				t.Fatalf("id %q: not a permutation: %+v", id, m)
			}
			seen[orig] = true
			if m.OriginalToDisplay[orig] != display {
				t.Fatalf("id %q: inverse does not compose to identity: %+v", id, m)
			}
		}
	}
}

func TestMappingCorrectFollowsShuffle(t *testing.T) {
	q := sampleQuestion("q-a")
	m := BuildChoiceMapping(q, true)
	if m.DisplayChoices[m.DisplayCorrect] != q.Choices[q.AnswerIndex] {
		t.Fatalf("display correct must point at the correct text: %+v", m)
	}
}

func TestMappingFallsBackToQuestionText(t *testing.T) {
	q := sampleQuestion("")
	first := BuildChoiceMapping(q, true)
	second := BuildChoiceMapping(q, true)
	if first != second {
		t.Fatalf("empty id must still be deterministic via question text")
	}
}
