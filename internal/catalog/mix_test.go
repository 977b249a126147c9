package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quizrunner/internal/domain"
)

func poolSource(t *testing.T, filesOfTwenty int) *stubSource {
	t.Helper()
	quizzes := map[string]string{
		"sample-quiz.json": `[{"question": "s?", "choices": ["a","b","c","d"], "answerIndex": 0}]`,
	}
	var links []string
	for f := 0; f < filesOfTwenty; f++ {
		file := fmt.Sprintf("topic-%d.json", f)
		var b strings.Builder
		b.WriteString("[")
		for i := 0; i < 20; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"id": "t%d-%d", "question": "q?", "choices": ["a","b","c","d"], "answerIndex": 0}`, f, i)
		}
		b.WriteString("]")
		quizzes[file] = b.String()
		links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, file, file))
	}
	links = append(links, `<a href="sample-quiz.json">sample-quiz.json</a>`)
	return &stubSource{listing: strings.Join(links, "\n"), quizzes: quizzes}
}

func TestRandomMixTakesNAcrossNonSamplePool(t *testing.T) {
	ctx := context.Background()
	mixer := NewMixer(poolSource(t, 3))

	qs, err := mixer.RandomMix(ctx, 40)
	if err != nil {
		t.Fatalf("random mix: %v", err)
	}
	if len(qs) != 40 {
		t.Fatalf("expected 40 questions from a 60-question pool, got %d", len(qs))
	}
	for _, q := range qs {
		if !strings.HasPrefix(q.ID, "t") {
			t.Fatalf("question outside the non-sample pool: %+v", q)
		}
		if len(q.Choices) != domain.NumChoices {
			t.Fatalf("mix output must be canonical: %+v", q)
		}
	}
}

func TestRandomMixCapsAtPoolSize(t *testing.T) {
	ctx := context.Background()
	mixer := NewMixer(poolSource(t, 1))

	qs, err := mixer.RandomMix(ctx, 40)
	if err != nil {
		t.Fatalf("random mix: %v", err)
	}
	if len(qs) != 20 {
		t.Fatalf("expected all 20 pool questions, got %d", len(qs))
	}
}

func TestRandomMixSkipsUnreadableFiles(t *testing.T) {
	ctx := context.Background()
	src := poolSource(t, 2)
	src.listing += "\n" + `<a href="ghost.json">ghost.json</a>` + "\n" + `<a href="garbage.json">garbage.json</a>`
	src.quizzes["garbage.json"] = "{not an array"

	qs, err := NewMixer(src).RandomMix(ctx, 100)
	if err != nil {
		t.Fatalf("random mix: %v", err)
	}
	if len(qs) != 40 {
		t.Fatalf("unreadable files should be skipped, got %d questions", len(qs))
	}
}

func TestRandomMixEmptyPool(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{listing: `<a href="sample-quiz.json">sample-quiz.json</a>`, quizzes: map[string]string{
		"sample-quiz.json": `[{"question": "s?", "choices": ["a","b","c","d"], "answerIndex": 0}]`,
	}}
	if _, err := NewMixer(src).RandomMix(ctx, 40); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}

	if _, err := NewMixer(&stubSource{}).RandomMix(ctx, 40); !errors.Is(err, domain.ErrListUnavailable) {
		t.Fatalf("expected ErrListUnavailable, got %v", err)
	}
}

func TestMixIdentity(t *testing.T) {
	if MixKey(40) != "random-40" || MixName(40) != "Random 40" {
		t.Fatalf("unexpected mix identity: %s %s", MixKey(40), MixName(40))
	}
}
