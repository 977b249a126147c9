package domain

import "time"

// NumChoices is the number of choices every canonical question carries.
const NumChoices = 4

// Unanswered marks an answer slot the player never filled in.
const Unanswered = -1

// Question is a multiple-choice question after validation. Choices are in
// the order declared by the input; AnswerIndex points into that order.
type Question struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
	Code        string   `json:"code,omitempty"`
}

// CatalogEntry is one selectable quiz in the catalog.
type CatalogEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Result is the verdict for one played position.
type Result struct {
	OriginalIndex int      `json:"originalIndex"`
	QuestionID    string   `json:"questionId"`
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	Selected      int      `json:"selected"` // original index, or Unanswered
	Correct       int      `json:"correct"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ResultSet aggregates the verdicts for a finished session.
type ResultSet struct {
	Total        int      `json:"total"`
	CorrectCount int      `json:"correctCount"`
	WrongCount   int      `json:"wrongCount"`
	Pct          int      `json:"pct"`
	Results      []Result `json:"results"`
}

// ScoreEntry is the per-quiz aggregate kept in the local scoreboard store.
type ScoreEntry struct {
	Count    int       `json:"count"`
	TotalPct int       `json:"totalPct"`
	AvgPct   float64   `json:"avgPct"`
	LastAt   time.Time `json:"lastAt"`
}

// ScoreboardRow is a display-ready scoreboard line for one catalog entry.
type ScoreboardRow struct {
	Name  string  `json:"name"`
	File  string  `json:"file"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}
