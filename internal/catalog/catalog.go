// Package catalog discovers available quizzes and assembles Random-N mixes.
// Entries come from two merged sources: an optional manifest (index.json)
// and a scrape of the quizzes directory listing.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"quizrunner/internal/domain"
)

// Source supplies the raw catalog inputs: the manifest document, the
// directory listing HTML, and individual quiz files.
type Source interface {
	Manifest(ctx context.Context) ([]byte, error)
	Listing(ctx context.Context) (string, error)
	Quiz(ctx context.Context, file string) ([]byte, error)
}

// manifestItem is one element of quizzes/index.json. "file" is preferred,
// then "path"; elements without either are dropped.
type manifestItem struct {
	Name string `json:"name"`
	File string `json:"file"`
	Path string `json:"path"`
}

// ParseManifest extracts catalog entries from a manifest document. Anything
// that is not an array yields no entries.
func ParseManifest(data []byte) []domain.CatalogEntry {
	var items []manifestItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	entries := make([]domain.CatalogEntry, 0, len(items))
	for _, it := range items {
		file := it.File
		if file == "" {
			file = it.Path
		}
		if file == "" {
			continue
		}
		name := it.Name
		if name == "" {
			name = PrettyName(file)
		}
		entries = append(entries, domain.CatalogEntry{Name: name, File: file})
	}
	return entries
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// ParseListing scrapes quiz files out of a directory listing document: every
// link ending in .json except index.json is a candidate.
func ParseListing(html string) []domain.CatalogEntry {
	seen := make(map[string]bool)
	var entries []domain.CatalogEntry
	for _, m := range hrefPattern.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".json") || strings.Contains(lower, "index.json") {
			continue
		}
		file := strings.TrimPrefix(href, "./")
		if seen[file] {
			continue
		}
		seen[file] = true
		entries = append(entries, domain.CatalogEntry{Name: PrettyName(file), File: file})
	}
	return entries
}

// PrettyName turns a file name into a display name: extension stripped,
// underscores and dashes become spaces, whitespace collapsed, first letter
// uppercased.
func PrettyName(file string) string {
	base := file
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	name := base
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		name = name[:len(name)-len(".json")]
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return base
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Merge combines discovered and manifest entries keyed by file, with the
// manifest winning on name, and sorts the result by display name using
// locale-aware, case-insensitive, numeric-aware comparison.
func Merge(discovered, manifest []domain.CatalogEntry) []domain.CatalogEntry {
	byFile := make(map[string]domain.CatalogEntry)
	for _, e := range discovered {
		if e.File == "" {
			continue
		}
		byFile[e.File] = e
	}
	for _, e := range manifest {
		if e.File == "" {
			continue
		}
		byFile[e.File] = e
	}

	entries := make([]domain.CatalogEntry, 0, len(byFile))
	for _, e := range byFile {
		lower := strings.ToLower(e.File)
		if !strings.HasSuffix(lower, ".json") || lower == "index.json" {
			continue
		}
		entries = append(entries, e)
	}

	cl := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	sort.SliceStable(entries, func(i, j int) bool {
		return cl.CompareString(entries[i].Name, entries[j].Name) < 0
	})
	return entries
}

// List fetches both catalog sources best-effort and merges them. Only when
// neither source is readable does it fail, with domain.ErrListUnavailable.
func List(ctx context.Context, src Source) ([]domain.CatalogEntry, error) {
	var manifest, discovered []domain.CatalogEntry

	manifestData, manifestErr := src.Manifest(ctx)
	if manifestErr == nil {
		manifest = ParseManifest(manifestData)
	}
	listing, listingErr := src.Listing(ctx)
	if listingErr == nil {
		discovered = ParseListing(listing)
	}

	if manifestErr != nil && listingErr != nil {
		return nil, errors.Join(domain.ErrListUnavailable, manifestErr, listingErr)
	}
	return Merge(discovered, manifest), nil
}
