package session

import (
	"sync/atomic"

	"quizrunner/internal/domain"
)

// Loader hands out monotonic load tokens so a slow quiz fetch can never
// clobber a newer one: every load claims a token up front, and only the
// holder of the latest token may install. A superseded fetch is not aborted,
// its completion is simply dropped.
type Loader struct {
	seq atomic.Uint64
}

// Begin claims a token for a new load, superseding all earlier ones.
func (l *Loader) Begin() uint64 {
	return l.seq.Add(1)
}

// Install applies the loaded quiz to the session iff token is still the
// latest, and reports whether the install happened.
func (l *Loader) Install(s *Session, token uint64, questions []domain.Question, name, key string) bool {
	if token != l.seq.Load() {
		return false
	}
	s.Install(questions, name, key)
	return true
}
