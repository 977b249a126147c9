package session

import (
	"math/rand"
	"testing"
	"time"

	"quizrunner/internal/domain"
)

func testQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q-a", Question: "What is 2 + 2?", Choices: []string{"3", "4", "5", "22"}, AnswerIndex: 1, Explanation: "2 + 2 = 4"},
		{ID: "q-b", Question: "Sky?", Choices: []string{"green", "blue", "red", "black"}, AnswerIndex: 1},
	}
}

func newTestSession() *Session {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	now := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return NewWithClock(now, rand.New(rand.NewSource(1)))
}

func TestLifecycleHappyPath(t *testing.T) {
	s := newTestSession()
	if s.State() != StateEmpty {
		t.Fatalf("fresh session should be empty, got %v", s.State())
	}

	s.Install(testQuestions(), "Sample Quiz", "sample-quiz.json")
	if s.State() != StateLoaded {
		t.Fatalf("expected loaded, got %v", s.State())
	}

	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != StatePlaying {
		t.Fatalf("expected playing, got %v", s.State())
	}
	if s.StartedAt().IsZero() || !s.EndedAt().IsZero() {
		t.Fatalf("timestamps wrong after start: started=%v ended=%v", s.StartedAt(), s.EndedAt())
	}

	if err := s.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	finished, err := s.Next()
	if err != nil || finished {
		t.Fatalf("next: finished=%v err=%v", finished, err)
	}
	if err := s.Select(1); err != nil {
		t.Fatalf("select q2: %v", err)
	}
	finished, err = s.Next()
	if err != nil || !finished {
		t.Fatalf("next past last should finish: finished=%v err=%v", finished, err)
	}
	if s.State() != StateFinished || s.EndedAt().IsZero() {
		t.Fatalf("expected finished with endedAt set")
	}

	rs := s.Results()
	if rs.Total != 2 || rs.CorrectCount != 2 || rs.WrongCount != 0 || rs.Pct != 100 {
		t.Fatalf("unexpected results: %+v", rs)
	}
}

func TestUnansweredIsNeverCorrect(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample Quiz", "sample-quiz.json")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	// Finish without answering the second question.
	if err := s.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	rs := s.Results()
	if rs.Total != 2 || rs.CorrectCount != 1 || rs.WrongCount != 1 || rs.Pct != 50 {
		t.Fatalf("unexpected results: %+v", rs)
	}
	if rs.Results[1].Selected != domain.Unanswered || rs.Results[1].IsCorrect {
		t.Fatalf("unanswered slot must not be correct: %+v", rs.Results[1])
	}
}

func TestAnswersLiveInOriginalIndexSpace(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample Quiz", "sample-quiz.json")
	if err := s.Start(false, true); err != nil {
		t.Fatalf("start: %v", err)
	}

	m1, err := s.Mapping()
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	// Answer via the displayed letter for original index 1, navigate away
	// and back, and confirm the same letter still marks the selection.
	letter := m1.Label(1)
	if err := s.Select(m1.DisplayToOriginal[int(letter[0]-'A')]); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := s.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	m2, err := s.Mapping()
	if err != nil {
		t.Fatalf("mapping after nav: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("mapping must be stable across navigation: %+v vs %+v", m1, m2)
	}
	if s.Selected() != 1 {
		t.Fatalf("selection must persist in original space, got %d", s.Selected())
	}
}

func TestPrevClampsAtFirstQuestion(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "", "")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Prev(); err != nil {
		t.Fatalf("prev at first: %v", err)
	}
	pos, total, _, err := s.Current()
	if err != nil || pos != 0 || total != 2 {
		t.Fatalf("expected clamped cursor, pos=%d total=%d err=%v", pos, total, err)
	}
}

func TestSingleQuestionQuizFinishesOnNext(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions()[:1], "One", "one.json")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, total, _, err := s.Current()
	if err != nil || total != 1 {
		t.Fatalf("expected single item, total=%d err=%v", total, err)
	}
	if err := s.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	finished, err := s.Next()
	if err != nil || !finished {
		t.Fatalf("single-question next should finish, got finished=%v err=%v", finished, err)
	}
	if rs := s.Results(); rs.Pct != 100 {
		t.Fatalf("expected 100%%, got %+v", rs)
	}
}

func TestStartWithOrderDisablesRecordingAndSubsets(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.StartWithOrder([]int{1}, false, false); err != nil {
		t.Fatalf("start with order: %v", err)
	}
	if !s.FirstScorePosted() {
		t.Fatalf("retry attempts must be pre-latched against recording")
	}
	_, total, q, err := s.Current()
	if err != nil || total != 1 || q.ID != "q-b" {
		t.Fatalf("expected subset order, total=%d q=%+v err=%v", total, q, err)
	}
}

func TestEmptyRetryOrderFinishesWithZeroScore(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.StartWithOrder(nil, false, false); err != nil {
		t.Fatalf("start with empty order: %v", err)
	}
	finished, err := s.Next()
	if err != nil || !finished {
		t.Fatalf("empty order should finish immediately, finished=%v err=%v", finished, err)
	}
	rs := s.Results()
	if rs.Total != 0 || rs.Pct != 0 {
		t.Fatalf("expected zero-item result, got %+v", rs)
	}
}

func TestStartWithOrderRejectsBadIndices(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.StartWithOrder([]int{5}, false, false); err != domain.ErrBadOrder {
		t.Fatalf("expected ErrBadOrder, got %v", err)
	}
}

func TestSelectValidatesRange(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Select(4); err != domain.ErrBadChoice {
		t.Fatalf("expected ErrBadChoice, got %v", err)
	}
	if err := s.Select(domain.Unanswered); err != nil {
		t.Fatalf("clearing a selection must be allowed: %v", err)
	}
}

func TestWrongOrderListsIncorrectOriginals(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Select(0); err != nil { // wrong
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := s.Select(1); err != nil { // right
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	wrong := WrongOrder(s.Results())
	if len(wrong) != 1 || wrong[0] != 0 {
		t.Fatalf("expected wrong order [0], got %v", wrong)
	}
}

func TestInstallResetsAttemptState(t *testing.T) {
	s := newTestSession()
	s.Install(testQuestions(), "Sample", "sample.json")
	if err := s.Start(false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	s.MarkScorePosted()

	s.Install(testQuestions(), "Other", "other.json")
	if s.State() != StateLoaded || s.FirstScorePosted() {
		t.Fatalf("install must clear the attempt, state=%v posted=%v", s.State(), s.FirstScorePosted())
	}
	if !s.StartedAt().IsZero() || !s.EndedAt().IsZero() {
		t.Fatalf("install must clear timestamps")
	}
}

func TestQuestionShuffleKeepsAllQuestions(t *testing.T) {
	many := make([]domain.Question, 10)
	for i := range many {
		many[i] = domain.Question{
			ID:          string(rune('a' + i)),
			Question:    "q",
			Choices:     []string{"1", "2", "3", "4"},
			AnswerIndex: 0,
		}
	}
	s := newTestSession()
	s.Install(many, "Many", "many.json")
	if err := s.Start(true, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	rs := s.Results()
	seen := make(map[int]bool)
	for _, r := range rs.Results {
		if seen[r.OriginalIndex] {
			t.Fatalf("shuffle duplicated question %d", r.OriginalIndex)
		}
		seen[r.OriginalIndex] = true
	}
	if len(seen) != len(many) {
		t.Fatalf("shuffle dropped questions: %d of %d", len(seen), len(many))
	}
}

func TestLoaderDropsStaleInstall(t *testing.T) {
	var loader Loader
	s := newTestSession()

	slow := loader.Begin()
	fast := loader.Begin()

	if !loader.Install(s, fast, testQuestions(), "Fast", "fast.json") {
		t.Fatalf("latest load must install")
	}
	if loader.Install(s, slow, testQuestions()[:1], "Slow", "slow.json") {
		t.Fatalf("stale load must be dropped")
	}
	if s.QuizKey() != "fast.json" || len(s.Questions()) != 2 {
		t.Fatalf("stale load overwrote newer install: key=%s", s.QuizKey())
	}
}
