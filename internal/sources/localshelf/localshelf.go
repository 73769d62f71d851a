// Package localshelf searches a local directory of e-book files by
// fuzzy filename match. It is a blocking connector: directory walks have
// no natural cancellation point, so the sync adapter bridges it onto the
// context-aware contract.
package localshelf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"bookhunt/internal/source"
)

// Kind is the factory key for this connector.
const Kind = "localshelf"

// bookExtensions are the file types treated as e-books.
var bookExtensions = map[string]bool{
	".pdf":  true,
	".epub": true,
	".mobi": true,
	".azw":  true,
	".azw3": true,
	".djvu": true,
}

// Match score tiers, best first.
const (
	scoreExact    = 100
	scorePrefix   = 90
	scoreContains = 80
	scoreClose    = 70
	scoreLoose    = 60
)

// Source scans a directory tree for e-book files matching a title.
type Source struct {
	name string
	dir  string
}

// New builds the connector from descriptor settings. The directory must
// exist: a shelf that can never match is a configuration error, not
// something to discover on the first search.
func New(settings map[string]string) (source.BlockingSource, error) {
	dir := settings["dir"]
	if dir == "" {
		return nil, errors.New("localshelf source requires a dir setting")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("localshelf directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localshelf path %s is not a directory", dir)
	}

	name := settings["name"]
	if name == "" {
		name = Kind
	}

	return &Source{name: name, dir: dir}, nil
}

func (s *Source) Name() string        { return s.name }
func (s *Source) SupportsISBN() bool  { return false }
func (s *Source) SupportsTitle() bool { return true }

type match struct {
	path  string
	name  string
	score int
}

// SearchBlocking walks the shelf directory and scores every e-book
// filename against the query. Unreadable subdirectories are skipped, not
// fatal; only a failure to read the root errors out.
func (s *Source) SearchBlocking(query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	if queryType == source.QueryISBN {
		return nil, fmt.Errorf("localshelf only supports title queries, got %q", queryType)
	}

	queryNorm := normalize(query)
	if queryNorm == "" {
		return nil, nil
	}

	var matches []match
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return walkEntryErr(s.dir, path, d, err)
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !bookExtensions[ext] {
			return nil
		}

		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if score := scoreMatch(queryNorm, normalize(base)); score > 0 {
			matches = append(matches, match{path: path, name: base, score: score})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan shelf directory: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	results := make([]source.RawResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, source.RawResult{
			Title:        m.name,
			Availability: "on disk",
			Link:         m.path,
			Extra: map[string]string{
				"score":  fmt.Sprintf("%d", m.score),
				"format": strings.TrimPrefix(strings.ToLower(filepath.Ext(m.path)), "."),
			},
		})
	}
	return results, nil
}

// walkEntryErr decides what a walk error means: failing to read the root
// aborts the scan, an unreadable subdirectory is skipped whole, and an
// error on a single file must not abandon the rest of its parent
// directory, so it is dropped.
func walkEntryErr(root, path string, d fs.DirEntry, err error) error {
	if path == root {
		return err
	}
	if d != nil && d.IsDir() {
		return fs.SkipDir
	}
	return nil
}

// FormatResults renders shelf hits with their file paths.
func (s *Source) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s)\n", r.Title, r.Link)
	}
	return b.String()
}

// normalize lowercases and strips everything that is not a letter or
// digit, so "소년이_온다 (한강).epub" and "소년이 온다" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// scoreMatch rates how well a normalized filename matches a normalized
// query. Zero means no match.
func scoreMatch(query, filename string) int {
	if filename == "" {
		return 0
	}
	switch {
	case filename == query:
		return scoreExact
	case strings.HasPrefix(filename, query):
		return scorePrefix
	case strings.Contains(filename, query):
		return scoreContains
	}

	switch ratio := similarity(query, filename); {
	case ratio >= 0.8:
		return scoreClose
	case ratio >= 0.5:
		return scoreLoose
	default:
		return 0
	}
}

// similarity is 2*LCS/(len(a)+len(b)) over runes, in [0,1].
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}
