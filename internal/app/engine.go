// Package app contains the quiz runner use cases: loading quizzes from the
// catalog, driving the session through play and finish, and handing finished
// attempts to the stats recorder.
package app

import (
	"context"
	"strings"

	"quizrunner/internal/catalog"
	"quizrunner/internal/domain"
	"quizrunner/internal/quiz"
	"quizrunner/internal/session"
	"quizrunner/internal/stats"
)

// Engine owns one session and serializes every mutation on it. Each driver
// (a websocket connection, the play command) gets its own Engine; the session
// has exactly one writer by construction.
type Engine struct {
	src      catalog.Source
	mixer    *catalog.Mixer
	recorder *stats.Recorder

	sess   *session.Session
	loader session.Loader
}

func NewEngine(src catalog.Source, recorder *stats.Recorder) *Engine {
	return &Engine{
		src:      src,
		mixer:    catalog.NewMixer(src),
		recorder: recorder,
		sess:     session.New(),
	}
}

// Session exposes the engine's session for reads.
func (e *Engine) Session() *session.Session { return e.sess }

// Catalog lists the available quizzes.
func (e *Engine) Catalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	return catalog.List(ctx, e.src)
}

// Scoreboard builds the display scoreboard over the current catalog.
func (e *Engine) Scoreboard(ctx context.Context) ([]domain.ScoreboardRow, error) {
	entries, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return e.recorder.Scoreboard(ctx, entries), nil
}

// LoadQuiz fetches, validates, and installs a catalog quiz. The file path is
// the stable stats key. Overlapping loads resolve last-install-wins: a
// slower earlier load cannot overwrite a newer one.
func (e *Engine) LoadQuiz(ctx context.Context, file string) error {
	token := e.loader.Begin()

	name := catalog.PrettyName(file)
	if entries, err := e.Catalog(ctx); err == nil {
		for _, entry := range entries {
			if entry.File == file {
				name = entry.Name
				break
			}
		}
	}

	data, err := e.src.Quiz(ctx, file)
	if err != nil {
		return err
	}
	questions, err := quiz.Normalize(data)
	if err != nil {
		return err
	}
	e.loader.Install(e.sess, token, questions, name, file)
	return nil
}

// LoadRaw validates and installs an uploaded quiz document. The display name
// doubles as the stats key since no file path is known.
func (e *Engine) LoadRaw(name string, data []byte) error {
	token := e.loader.Begin()
	questions, err := quiz.Normalize(data)
	if err != nil {
		return err
	}
	name = strings.TrimSuffix(name, ".json")
	e.loader.Install(e.sess, token, questions, name, name)
	return nil
}

// LoadRandomMix assembles and installs a Random-N session and starts it with
// both shuffles enabled.
func (e *Engine) LoadRandomMix(ctx context.Context, n int) error {
	token := e.loader.Begin()
	questions, err := e.mixer.RandomMix(ctx, n)
	if err != nil {
		return err
	}
	if !e.loader.Install(e.sess, token, questions, catalog.MixName(n), catalog.MixKey(n)) {
		return nil
	}
	return e.sess.Start(true, true)
}

// Start begins a fresh, recordable attempt.
func (e *Engine) Start(shuffleQuestions, shuffleChoices bool) error {
	return e.sess.Start(shuffleQuestions, shuffleChoices)
}

// RetryWrong starts a non-recordable attempt over the questions answered
// incorrectly in the finished attempt, keeping the shuffle flags.
func (e *Engine) RetryWrong() error {
	if e.sess.State() != session.StateFinished {
		return domain.ErrNotPlaying
	}
	wrong := session.WrongOrder(e.sess.Results())
	return e.sess.StartWithOrder(wrong, e.sess.ShuffleQuestions(), e.sess.ShuffleChoices())
}

// Select stores an answer for the current question in original index space.
func (e *Engine) Select(originalIdx int) error {
	return e.sess.Select(originalIdx)
}

// Prev moves back one question.
func (e *Engine) Prev() error {
	return e.sess.Prev()
}

// Next advances; walking past the last question finishes and records.
func (e *Engine) Next(ctx context.Context) (finished bool, err error) {
	finished, err = e.sess.Next()
	if err != nil {
		return false, err
	}
	if finished {
		e.recorder.Record(ctx, e.sess)
	}
	return finished, nil
}

// Finish ends the attempt and records the score if this session is still
// eligible. Recording failures never surface here.
func (e *Engine) Finish(ctx context.Context) (domain.ResultSet, error) {
	if err := e.sess.Finish(); err != nil {
		return domain.ResultSet{}, err
	}
	e.recorder.Record(ctx, e.sess)
	return e.sess.Results(), nil
}
