package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// resultEntry is one appended attempt in a results file. Reading tolerates
// the historical field aliases (quizKey/key/file, pct).
type resultEntry struct {
	Quiz       string   `json:"quiz,omitempty"`
	QuizKey    string   `json:"quizKey,omitempty"`
	Key        string   `json:"key,omitempty"`
	File       string   `json:"file,omitempty"`
	FirstScore *float64 `json:"firstScore,omitempty"`
	Pct        *float64 `json:"pct,omitempty"`
	When       string   `json:"when,omitempty"`
}

func (e resultEntry) key() string {
	for _, k := range []string{e.Quiz, e.QuizKey, e.Key, e.File} {
		if k != "" {
			return k
		}
	}
	return ""
}

func (e resultEntry) score() (int, bool) {
	v := e.FirstScore
	if v == nil {
		v = e.Pct
	}
	if v == nil || *v < 0 || *v > 100 {
		return 0, false
	}
	return int(*v), true
}

// FileResults appends and reads result files under a directory, one JSON
// array per quiz key, the way the original result log keeps them.
type FileResults struct {
	dir string
	now func() time.Time
}

// NewFileResults returns a file-backed result log rooted at dir.
func NewFileResults(dir string) *FileResults {
	return &FileResults{dir: dir, now: time.Now}
}

// Dir is the directory the result files live in.
func (f *FileResults) Dir() string { return f.dir }

// Append adds one attempt to <safe-key>_results.json, creating the file and
// the directory as needed. An unreadable existing file is treated as empty.
// The write is atomic: temp file then rename.
func (f *FileResults) Append(_ context.Context, quizKey string, firstScore int) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("results dir: %w", err)
	}

	path := filepath.Join(f.dir, safeKey(quizKey)+"_results.json")

	var entries []resultEntry
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			var single resultEntry
			if err := json.Unmarshal(data, &single); err == nil {
				entries = []resultEntry{single}
			} else {
				entries = nil
			}
		}
	}

	score := float64(firstScore)
	entries = append(entries, resultEntry{
		Quiz:       quizKey,
		FirstScore: &score,
		When:       f.now().UTC().Format(time.RFC3339),
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadAll parses every *.json file in the results directory and groups scores
// by normalized quiz key. Files that fail to parse are skipped.
func (f *FileResults) ReadAll(_ context.Context) (map[string][]int, error) {
	dirents, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	byKey := make(map[string][]int)
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(strings.ToLower(de.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, de.Name()))
		if err != nil {
			continue
		}
		for _, entry := range parseResultFile(data) {
			key := entry.key()
			score, ok := entry.score()
			if key == "" || !ok {
				continue
			}
			norm := NormalizeKey(key)
			byKey[norm] = append(byKey[norm], score)
		}
	}
	return byKey, nil
}

// parseResultFile accepts either a single object or an array of objects.
func parseResultFile(data []byte) []resultEntry {
	var entries []resultEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries
	}
	var single resultEntry
	if err := json.Unmarshal(data, &single); err == nil {
		return []resultEntry{single}
	}
	return nil
}

// safeKey reduces a quiz key to a filename-friendly token.
func safeKey(key string) string {
	key = NormalizeKey(key)
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "quiz"
	}
	return b.String()
}
