package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"quizrunner/internal/app"
	"quizrunner/internal/domain"
	"quizrunner/internal/quiz"
	"quizrunner/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type loadPayload struct {
	File string `json:"file"`
}

type uploadPayload struct {
	Name      string          `json:"name"`
	Questions json.RawMessage `json:"questions"`
}

type mixPayload struct {
	Count int `json:"count"`
}

type startPayload struct {
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShuffleChoices   bool `json:"shuffleChoices"`
}

type selectPayload struct {
	// OriginalIndex is nil to clear the selection.
	OriginalIndex *int `json:"originalIndex"`
}

type loadedPayload struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Total int    `json:"total"`
}

type questionPayload struct {
	QuizName          string   `json:"quizName"`
	Position          int      `json:"position"` // 1-based for display
	Total             int      `json:"total"`
	Question          string   `json:"question"`
	Code              string   `json:"code,omitempty"`
	Choices           []string `json:"choices"` // display order
	DisplayToOriginal []int    `json:"displayToOriginal"`
	Selected          *int     `json:"selected"` // original index, nil if none
}

type resultsPayload struct {
	domain.ResultSet
	QuizName  string `json:"quizName"`
	WrongLeft int    `json:"wrongLeft"`
}

// handlePlay upgrades the connection and drives one engine per socket. All
// session mutations happen in this read loop, so the session has a single
// writer for the lifetime of the connection.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	engine := app.NewEngine(s.src, s.recorder)
	ctx := r.Context()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		fail := func(err error) {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}

		switch inbound.Type {
		case "catalog":
			entries, err := engine.Catalog(ctx)
			if err != nil {
				fail(err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage[[]domain.CatalogEntry]{Type: "catalog", Payload: entries})

		case "scoreboard":
			rows, err := engine.Scoreboard(ctx)
			if err != nil {
				fail(err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage[[]domain.ScoreboardRow]{Type: "scoreboard", Payload: rows})

		case "load":
			var payload loadPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			if err := engine.LoadQuiz(ctx, payload.File); err != nil {
				fail(err)
				continue
			}
			s.sendLoaded(conn, engine)

		case "upload":
			var payload uploadPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			if err := engine.LoadRaw(payload.Name, payload.Questions); err != nil {
				fail(err)
				continue
			}
			s.sendLoaded(conn, engine)

		case "randomMix":
			var payload mixPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			if err := engine.LoadRandomMix(ctx, payload.Count); err != nil {
				fail(err)
				continue
			}
			s.sendQuestion(ctx, conn, engine)

		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			if err := engine.Start(payload.ShuffleQuestions, payload.ShuffleChoices); err != nil {
				fail(err)
				continue
			}
			s.sendQuestion(ctx, conn, engine)

		case "retryWrong":
			if err := engine.RetryWrong(); err != nil {
				fail(err)
				continue
			}
			s.sendQuestion(ctx, conn, engine)

		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			idx := domain.Unanswered
			if payload.OriginalIndex != nil {
				idx = *payload.OriginalIndex
			}
			if err := engine.Select(idx); err != nil {
				fail(err)
				continue
			}
			s.sendQuestion(ctx, conn, engine)

		case "prev":
			if err := engine.Prev(); err != nil {
				fail(err)
				continue
			}
			s.sendQuestion(ctx, conn, engine)

		case "next":
			finished, err := engine.Next(ctx)
			if err != nil {
				fail(err)
				continue
			}
			if finished {
				s.sendResults(conn, engine)
			} else {
				s.sendQuestion(ctx, conn, engine)
			}

		case "finish":
			if _, err := engine.Finish(ctx); err != nil {
				fail(err)
				continue
			}
			s.sendResults(conn, engine)

		default:
			fail(errUnsupported)
		}
	}
}

var errUnsupported = &unsupportedError{}

type unsupportedError struct{}

func (*unsupportedError) Error() string { return "unsupported message type" }

func (s *Server) sendLoaded(conn *websocket.Conn, engine *app.Engine) {
	sess := engine.Session()
	_ = conn.WriteJSON(outboundMessage[loadedPayload]{Type: "loaded", Payload: loadedPayload{
		Name:  sess.QuizName(),
		Key:   sess.QuizKey(),
		Total: len(sess.Questions()),
	}})
}

func (s *Server) sendQuestion(ctx context.Context, conn *websocket.Conn, engine *app.Engine) {
	sess := engine.Session()
	pos, total, q, err := sess.Current()
	if err != nil {
		// An empty retry order is immediately finishable; report it as done.
		if sess.State() == session.StatePlaying && total == 0 {
			if _, err := engine.Finish(ctx); err == nil {
				s.sendResults(conn, engine)
				return
			}
		}
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	mapping := quiz.BuildChoiceMapping(q, sess.ShuffleChoices())
	payload := questionPayload{
		QuizName:          sess.QuizName(),
		Position:          pos + 1,
		Total:             total,
		Question:          q.Question,
		Code:              q.Code,
		Choices:           mapping.DisplayChoices[:],
		DisplayToOriginal: mapping.DisplayToOriginal[:],
	}
	if selected := sess.Selected(); selected != domain.Unanswered {
		payload.Selected = &selected
	}
	_ = conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: payload})
}

func (s *Server) sendResults(conn *websocket.Conn, engine *app.Engine) {
	sess := engine.Session()
	rs := sess.Results()
	_ = conn.WriteJSON(outboundMessage[resultsPayload]{Type: "results", Payload: resultsPayload{
		ResultSet: rs,
		QuizName:  sess.QuizName(),
		WrongLeft: len(session.WrongOrder(rs)),
	}})
}
