// Package http exposes the quiz runner over HTTP: static quiz and result
// files, the save-result append endpoint, catalog and scoreboard APIs, and a
// websocket play transport.
package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"quizrunner/internal/catalog"
	"quizrunner/internal/stats"
)

// Server bundles the HTTP surface. Engines are created per websocket
// connection; the rest of the routes are stateless.
type Server struct {
	src      catalog.Source
	recorder *stats.Recorder
	results  *stats.FileResults
	quizzes  string
	logger   *zap.SugaredLogger
}

func NewServer(src catalog.Source, recorder *stats.Recorder, results *stats.FileResults, quizzesDir string, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{src: src, recorder: recorder, results: results, quizzes: quizzesDir, logger: logger}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/save-result", s.handleSaveResult)
	r.Get("/api/catalog", s.handleCatalog)
	r.Get("/api/scoreboard", s.handleScoreboard)
	r.Get("/ws/play", s.handlePlay)

	r.Get("/quizzes/", s.handleQuizListing)
	r.Get("/quizzes/*", s.handleQuizFile)
	r.Handle("/results/*", http.StripPrefix("/results/", http.FileServer(http.Dir(s.results.Dir()))))

	return r
}

// saveResultRequest mirrors what clients actually send; older ones use the
// quizKey/key and pct aliases.
type saveResultRequest struct {
	Quiz       string   `json:"quiz"`
	QuizKey    string   `json:"quizKey"`
	Key        string   `json:"key"`
	FirstScore *float64 `json:"firstScore"`
	Pct        *float64 `json:"pct"`
}

func (s *Server) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	var req saveResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	key := req.Quiz
	if key == "" {
		key = req.QuizKey
	}
	if key == "" {
		key = req.Key
	}
	score := req.FirstScore
	if score == nil {
		score = req.Pct
	}
	if key == "" || score == nil {
		http.Error(w, "Missing quiz or score", http.StatusBadRequest)
		return
	}

	if err := s.results.Append(r.Context(), key, int(*score)); err != nil {
		s.logger.Warnw("result append failed", "quiz", key, "err", err)
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("OK"))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := catalog.List(r.Context(), s.src)
	if err != nil {
		http.Error(w, "quiz list unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := catalog.List(r.Context(), s.src)
	if err != nil {
		http.Error(w, "quiz list unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.recorder.Scoreboard(r.Context(), entries))
}

// handleQuizListing serves the directory listing discovery scrapes.
func (s *Server) handleQuizListing(w http.ResponseWriter, r *http.Request) {
	listing, err := catalog.ListingHTML(s.quizzes)
	if err != nil {
		http.Error(w, "quizzes directory unavailable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(listing))
}

func (s *Server) handleQuizFile(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "*")
	if strings.Contains(file, "..") {
		http.NotFound(w, r)
		return
	}
	data, err := s.src.Quiz(r.Context(), file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
