// Package stats records first-attempt scores and builds the scoreboard.
// Recording is best effort by contract: neither a broken store nor an
// unreachable sink may ever interrupt the user flow.
package stats

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"quizrunner/internal/domain"
	"quizrunner/internal/session"
)

// ScoreStore is the local scoreboard store (in-memory, Redis, etc).
type ScoreStore interface {
	Get(ctx context.Context, quizKey string) (domain.ScoreEntry, bool, error)
	Put(ctx context.Context, quizKey string, entry domain.ScoreEntry) error
	All(ctx context.Context) (map[string]domain.ScoreEntry, error)
}

// ResultSink receives a best-effort remote append of each first score.
type ResultSink interface {
	Append(ctx context.Context, quizKey string, firstScore int) error
}

// ResultsReader reads persisted result files, grouped by normalized quiz key.
type ResultsReader interface {
	ReadAll(ctx context.Context) (map[string][]int, error)
}

// Recorder applies the at-most-once recording policy.
type Recorder struct {
	store   ScoreStore
	sink    ResultSink
	results ResultsReader
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewRecorder wires a recorder. sink and results may be nil when no remote
// endpoint or results directory is configured.
func NewRecorder(store ScoreStore, sink ResultSink, results ResultsReader, logger *zap.SugaredLogger) *Recorder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Recorder{store: store, sink: sink, results: results, logger: logger, now: time.Now}
}

// Record posts the session's score once per session: only a finished attempt
// whose firstScorePosted latch is still clear is recorded. It returns whether
// a record was emitted. Store and sink failures are swallowed.
func (r *Recorder) Record(ctx context.Context, sess *session.Session) bool {
	if sess.State() != session.StateFinished || sess.FirstScorePosted() {
		return false
	}
	// Latch before any I/O so a failed sink is never re-sent.
	sess.MarkScorePosted()

	pct := sess.Results().Pct
	key := sess.QuizKey()

	entry, _, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Debugw("scoreboard read failed", "quiz", key, "err", err)
		entry = domain.ScoreEntry{}
	}
	entry.Count++
	entry.TotalPct += pct
	entry.AvgPct = round2(float64(entry.TotalPct) / float64(entry.Count))
	entry.LastAt = r.now()
	if err := r.store.Put(ctx, key, entry); err != nil {
		r.logger.Debugw("scoreboard write failed", "quiz", key, "err", err)
	}

	if r.sink != nil {
		if err := r.sink.Append(ctx, key, pct); err != nil {
			r.logger.Debugw("remote result append failed", "quiz", key, "err", err)
		}
	}
	return true
}

// Scoreboard builds display rows for the given catalog entries: attempts come
// from the persisted result files when readable, falling back to the local
// store. Entries with no attempts are omitted.
func (r *Recorder) Scoreboard(ctx context.Context, entries []domain.CatalogEntry) []domain.ScoreboardRow {
	byKey, err := r.readResults(ctx)
	if err != nil || len(byKey) == 0 {
		byKey = r.localAttempts(ctx)
	}

	rows := make([]domain.ScoreboardRow, 0, len(entries))
	for _, e := range entries {
		scores := byKey[NormalizeKey(e.File)]
		if len(scores) == 0 {
			continue
		}
		sum := 0
		for _, s := range scores {
			sum += s
		}
		rows = append(rows, domain.ScoreboardRow{
			Name:  e.Name,
			File:  e.File,
			Count: len(scores),
			Avg:   round2(float64(sum) / float64(len(scores))),
		})
	}
	return rows
}

func (r *Recorder) readResults(ctx context.Context) (map[string][]int, error) {
	if r.results == nil {
		return nil, nil
	}
	byKey, err := r.results.ReadAll(ctx)
	if err != nil {
		r.logger.Debugw("result files unreadable, falling back to local store", "err", err)
		return nil, err
	}
	return byKey, nil
}

func (r *Recorder) localAttempts(ctx context.Context) map[string][]int {
	byKey := make(map[string][]int)
	all, err := r.store.All(ctx)
	if err != nil {
		r.logger.Debugw("local scoreboard unreadable", "err", err)
		return byKey
	}
	// The local store keeps aggregates, not individual attempts; expose the
	// average count times so counts and averages line up in the rows.
	for key, entry := range all {
		if entry.Count == 0 {
			continue
		}
		scores := make([]int, entry.Count)
		avg := int(math.Round(float64(entry.TotalPct) / float64(entry.Count)))
		for i := range scores {
			scores[i] = avg
		}
		byKey[NormalizeKey(key)] = scores
	}
	return byKey
}

// NormalizeKey strips a leading "./" and a trailing ".json" so file paths and
// bare keys group together.
func NormalizeKey(key string) string {
	key = strings.TrimPrefix(key, "./")
	if strings.HasSuffix(strings.ToLower(key), ".json") {
		key = key[:len(key)-len(".json")]
	}
	return key
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
