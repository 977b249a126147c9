package domain

import "errors"

var (
	// ErrNoQuiz is returned when an operation needs an installed quiz.
	ErrNoQuiz = errors.New("no quiz installed")
	// ErrNotPlaying is returned when an operation needs a running session.
	ErrNotPlaying = errors.New("session is not playing")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrBadOrder indicates a caller-supplied order references questions
	// outside the installed quiz.
	ErrBadOrder = errors.New("order contains invalid question index")
	// ErrBadChoice indicates a selected choice index outside 0..3.
	ErrBadChoice = errors.New("choice index out of range")
	// ErrListUnavailable is returned when neither the manifest nor the
	// directory listing could be read.
	ErrListUnavailable = errors.New("quiz list unavailable")
	// ErrEmptyPool is returned when a random mix has no questions to draw from.
	ErrEmptyPool = errors.New("no questions available for random mix")
)
