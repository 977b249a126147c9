package catalog

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quizrunner/internal/domain"
)

// DirSource serves the catalog from a local quizzes directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Manifest(_ context.Context) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, "index.json"))
}

func (s *DirSource) Listing(_ context.Context) (string, error) {
	return ListingHTML(s.dir)
}

func (s *DirSource) Quiz(_ context.Context, file string) ([]byte, error) {
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, file)
	}
	return data, nil
}

// resolve confines file to the quizzes directory.
func (s *DirSource) resolve(file string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimPrefix(file, "./"))
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("%w: %s", domain.ErrQuizNotFound, file)
	}
	return filepath.Join(s.dir, clean), nil
}

// ListingHTML renders a directory listing linking every file in dir, in the
// same shape the stock file servers produce. The discovery scraper and the
// HTTP transport both use it.
func ListingHTML(dir string) (string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read quizzes dir: %w", err)
	}
	names := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if !de.IsDir() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<body>\n<pre>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", html.EscapeString(url.PathEscape(name)), html.EscapeString(name))
	}
	b.WriteString("</pre>\n</body>\n</html>\n")
	return b.String(), nil
}

// HTTPSource serves the catalog from a remote quiz server, the layout the
// single-page client fetches: <base>/quizzes/ plus sibling files.
type HTTPSource struct {
	base   string
	client *http.Client
}

func NewHTTPSource(base string) *HTTPSource {
	return &HTTPSource{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPSource) Manifest(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.base+"/quizzes/index.json")
}

func (s *HTTPSource) Listing(ctx context.Context) (string, error) {
	data, err := s.get(ctx, s.base+"/quizzes/")
	return string(data), err
}

func (s *HTTPSource) Quiz(ctx context.Context, file string) ([]byte, error) {
	file = strings.TrimPrefix(strings.TrimPrefix(file, "./"), "/")
	if !strings.HasPrefix(file, "quizzes/") {
		file = "quizzes/" + file
	}
	return s.get(ctx, s.base+"/"+file)
}

func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
