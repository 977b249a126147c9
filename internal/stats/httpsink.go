package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSink posts first scores to a save-result endpoint. The response body is
// ignored; only transport errors surface (and the recorder swallows those).
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSink targets endpoint, e.g. "http://localhost:5173/save-result".
func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Append(ctx context.Context, quizKey string, firstScore int) error {
	body, err := json.Marshal(map[string]any{
		"quiz":       quizKey,
		"firstScore": firstScore,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
