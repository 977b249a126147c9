// Package session owns the state of one quiz play-through: the installed
// quiz, play order, answers, cursor, and timestamps. A session is a
// single-writer value; whoever drives it (a websocket connection, the play
// command, a test) serializes all mutations.
package session

import (
	"math"
	"math/rand"
	"time"

	"quizrunner/internal/domain"
	"quizrunner/internal/quiz"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Session drives one quiz from load to review.
type Session struct {
	quizName string
	quizKey  string

	questions []domain.Question
	order     []int
	answers   []int
	current   int

	startedAt time.Time
	endedAt   time.Time

	shuffleQuestions bool
	shuffleChoices   bool

	// firstScorePosted latches once stats for this session are recorded (or
	// recording is disabled, as with retry-wrong). It never resets except by
	// a fresh Start.
	firstScorePosted bool

	state State
	now   func() time.Time
	rnd   *rand.Rand
}

// New returns an empty session.
func New() *Session {
	return NewWithClock(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithClock allows deterministic timestamps and question shuffles in tests.
func NewWithClock(now func() time.Time, rnd *rand.Rand) *Session {
	return &Session{now: now, rnd: rnd}
}

// Install replaces the active quiz and resets all per-attempt state.
func (s *Session) Install(questions []domain.Question, name, key string) {
	if name == "" {
		name = "Quiz"
	}
	if key == "" {
		key = name
	}
	s.questions = questions
	s.quizName = name
	s.quizKey = key
	s.order = nil
	s.answers = nil
	s.current = 0
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
	s.firstScorePosted = false
	s.state = StateLoaded
}

// Start begins a fresh attempt over every installed question. The resulting
// finish is eligible for stats recording.
func (s *Session) Start(shuffleQuestions, shuffleChoices bool) error {
	if s.state == StateEmpty || len(s.questions) == 0 {
		return domain.ErrNoQuiz
	}
	order := make([]int, len(s.questions))
	for i := range order {
		order[i] = i
	}
	s.begin(order, shuffleQuestions, shuffleChoices)
	s.firstScorePosted = false
	return nil
}

// StartWithOrder begins an attempt over a caller-supplied subset order, with
// stats recording pre-disarmed. This is the retry-wrong contract: the finish
// of such an attempt never touches the scoreboard.
func (s *Session) StartWithOrder(order []int, shuffleQuestions, shuffleChoices bool) error {
	if s.state == StateEmpty {
		return domain.ErrNoQuiz
	}
	for _, idx := range order {
		if idx < 0 || idx >= len(s.questions) {
			return domain.ErrBadOrder
		}
	}
	s.begin(append([]int(nil), order...), shuffleQuestions, shuffleChoices)
	s.firstScorePosted = true
	return nil
}

func (s *Session) begin(order []int, shuffleQuestions, shuffleChoices bool) {
	s.shuffleQuestions = shuffleQuestions
	s.shuffleChoices = shuffleChoices
	if shuffleQuestions {
		s.rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	s.order = order
	s.answers = make([]int, len(order))
	for i := range s.answers {
		s.answers[i] = domain.Unanswered
	}
	s.current = 0
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.state = StatePlaying
}

// Select records an answer for the current question in original index space,
// or clears it with domain.Unanswered.
func (s *Session) Select(originalIdx int) error {
	if s.state != StatePlaying {
		return domain.ErrNotPlaying
	}
	if s.current >= len(s.order) {
		return domain.ErrNotPlaying
	}
	if originalIdx != domain.Unanswered && (originalIdx < 0 || originalIdx >= domain.NumChoices) {
		return domain.ErrBadChoice
	}
	s.answers[s.current] = originalIdx
	return nil
}

// Prev moves the cursor back one question, clamping at the first.
func (s *Session) Prev() error {
	if s.state != StatePlaying {
		return domain.ErrNotPlaying
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Next advances the cursor. Moving past the last question finishes the
// session instead of overflowing; the returned flag reports that.
func (s *Session) Next() (finished bool, err error) {
	if s.state != StatePlaying {
		return false, domain.ErrNotPlaying
	}
	if s.current >= len(s.order)-1 {
		s.finish()
		return true, nil
	}
	s.current++
	return false, nil
}

// Finish ends the attempt. endedAt is set exactly once per finish; whether
// the score is recorded is the stats recorder's decision.
func (s *Session) Finish() error {
	if s.state != StatePlaying {
		return domain.ErrNotPlaying
	}
	s.finish()
	return nil
}

func (s *Session) finish() {
	s.endedAt = s.now()
	s.state = StateFinished
}

// Current returns the cursor position, the number of items in play, and the
// question under the cursor.
func (s *Session) Current() (pos, total int, q domain.Question, err error) {
	if s.state != StatePlaying || s.current >= len(s.order) {
		return 0, len(s.order), domain.Question{}, domain.ErrNotPlaying
	}
	return s.current, len(s.order), s.questions[s.order[s.current]], nil
}

// Mapping derives the choice display mapping for the question under the
// cursor, honoring the shuffleChoices flag captured at start.
func (s *Session) Mapping() (quiz.ChoiceMapping, error) {
	_, _, q, err := s.Current()
	if err != nil {
		return quiz.ChoiceMapping{}, err
	}
	return quiz.BuildChoiceMapping(q, s.shuffleChoices), nil
}

// Selected returns the answer stored for the current question.
func (s *Session) Selected() int {
	if s.state != StatePlaying || s.current >= len(s.answers) {
		return domain.Unanswered
	}
	return s.answers[s.current]
}

// Results derives the per-question verdicts and the aggregate score. It is a
// pure read; callers may invoke it any number of times.
func (s *Session) Results() domain.ResultSet {
	results := make([]domain.Result, len(s.order))
	correctCount := 0
	for i, originalIdx := range s.order {
		q := s.questions[originalIdx]
		selected := s.answers[i]
		isCorrect := selected != domain.Unanswered && selected == q.AnswerIndex
		if isCorrect {
			correctCount++
		}
		results[i] = domain.Result{
			OriginalIndex: originalIdx,
			QuestionID:    q.ID,
			Question:      q.Question,
			Choices:       q.Choices,
			Selected:      selected,
			Correct:       q.AnswerIndex,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		}
	}

	total := len(results)
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(correctCount) / float64(total)))
	}
	return domain.ResultSet{
		Total:        total,
		CorrectCount: correctCount,
		WrongCount:   total - correctCount,
		Pct:          pct,
		Results:      results,
	}
}

// WrongOrder lists the original indices answered incorrectly, in play order.
// It is the order fed back into StartWithOrder for a retry-wrong attempt.
func WrongOrder(rs domain.ResultSet) []int {
	var wrong []int
	for _, r := range rs.Results {
		if !r.IsCorrect {
			wrong = append(wrong, r.OriginalIndex)
		}
	}
	return wrong
}

// State reports the lifecycle phase.
func (s *Session) State() State { return s.state }

// QuizName is the display label of the installed quiz.
func (s *Session) QuizName() string { return s.quizName }

// QuizKey is the stable identifier used for stats.
func (s *Session) QuizKey() string { return s.quizKey }

// Questions exposes the canonical list of the installed quiz.
func (s *Session) Questions() []domain.Question { return s.questions }

// ShuffleChoices reports the flag captured at start.
func (s *Session) ShuffleChoices() bool { return s.shuffleChoices }

// ShuffleQuestions reports the flag captured at start.
func (s *Session) ShuffleQuestions() bool { return s.shuffleQuestions }

// StartedAt is the time the current attempt began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// EndedAt is the time the current attempt finished, zero while playing.
func (s *Session) EndedAt() time.Time { return s.endedAt }

// FirstScorePosted reports whether this attempt's score has been recorded or
// recording was disabled at start.
func (s *Session) FirstScorePosted() bool { return s.firstScorePosted }

// MarkScorePosted latches the recording guard. It is set at most once per
// attempt and only the stats recorder calls it.
func (s *Session) MarkScorePosted() { s.firstScorePosted = true }
