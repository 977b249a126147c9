package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quizrunner/internal/domain"
	"quizrunner/internal/quiz"
)

// Mixer assembles "Random N" sessions: a pool of raw questions drawn from
// every non-sample catalog entry, shuffled with a fresh non-deterministic
// PRNG, truncated to N, then validated.
type Mixer struct {
	src Source
	rnd *rand.Rand
}

func NewMixer(src Source) *Mixer {
	return &Mixer{src: src, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// MixKey is the synthetic quiz key for a Random-N session, e.g. "random-40".
func MixKey(n int) string {
	return fmt.Sprintf("random-%d", n)
}

// MixName is the display name for a Random-N session.
func MixName(n int) string {
	return fmt.Sprintf("Random %d", n)
}

// RandomMix builds a canonical question list of up to n questions. Entries
// whose file or name matches "sample" (case-insensitive) are excluded from
// the pool; files that fail to fetch or parse are skipped.
func (m *Mixer) RandomMix(ctx context.Context, n int) ([]domain.Question, error) {
	entries, err := List(ctx, m.src)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if isSample(e) {
			continue
		}
		files = append(files, e.File)
	}

	pool := m.fetchPool(ctx, files)
	if len(pool) == 0 {
		return nil, domain.ErrEmptyPool
	}

	m.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if n < len(pool) {
		pool = pool[:n]
	}

	raw, err := json.Marshal(pool)
	if err != nil {
		return nil, err
	}
	return quiz.Normalize(raw)
}

// fetchPool concurrently fetches every file and concatenates the raw
// elements of each parseable array root.
func (m *Mixer) fetchPool(ctx context.Context, files []string) []json.RawMessage {
	var (
		mu   sync.Mutex
		pool []json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := m.src.Quiz(gctx, file)
			if err != nil {
				return nil // skip unreadable files
			}
			var elems []json.RawMessage
			if err := json.Unmarshal(data, &elems); err != nil {
				return nil
			}
			mu.Lock()
			pool = append(pool, elems...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return pool
}

func isSample(e domain.CatalogEntry) bool {
	return strings.Contains(strings.ToLower(e.File), "sample") ||
		strings.Contains(strings.ToLower(e.Name), "sample")
}
