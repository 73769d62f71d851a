package localshelf

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"bookhunt/internal/source"
	"bookhunt/internal/testutil"
)

func newShelf(t *testing.T, files ...string) *Source {
	t.Helper()

	env := testutil.NewTestEnv(t)
	for _, f := range files {
		env.WriteFileString(f, "content")
	}

	src, err := New(map[string]string{"dir": env.RootDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return src.(*Source)
}

func TestNewValidation(t *testing.T) {
	if _, err := New(map[string]string{}); err == nil {
		t.Error("expected error without dir")
	}
	if _, err := New(map[string]string{"dir": "/does/not/exist"}); err == nil {
		t.Error("expected error for missing directory")
	}

	env := testutil.NewTestEnv(t)
	env.WriteFileString("file.txt", "x")
	if _, err := New(map[string]string{"dir": env.Path("file.txt")}); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestCapabilities(t *testing.T) {
	shelf := newShelf(t)
	if shelf.SupportsISBN() || !shelf.SupportsTitle() {
		t.Error("localshelf should be title-only")
	}
	if shelf.Name() != "localshelf" {
		t.Errorf("Name = %q", shelf.Name())
	}
}

func TestSearchRejectsISBN(t *testing.T) {
	shelf := newShelf(t)
	if _, err := shelf.SearchBlocking("9788936434120", source.QueryISBN, 10); err == nil {
		t.Error("expected error for ISBN query")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"소년이_온다 (한강)", "소년이온다한강"},
		{"Human Acts - Han Kang", "humanactshankang"},
		{"UPPER case 123!", "uppercase123"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := normalize(tt.input); got != tt.expected {
			t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestScoreMatch(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		filename string
		expected int
	}{
		{"exact", "소년이온다", "소년이온다", scoreExact},
		{"prefix", "소년이온다", "소년이온다한강", scorePrefix},
		{"contains", "소년이온다", "한강소년이온다epub판", scoreContains},
		{"empty filename", "q", "", 0},
		{"unrelated", "소년이온다", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreMatch(tt.query, tt.filename); got != tt.expected {
				t.Errorf("scoreMatch(%q, %q) = %d, want %d", tt.query, tt.filename, got, tt.expected)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("abcd", "abcd"); got != 1.0 {
		t.Errorf("identical strings should score 1.0, got %f", got)
	}
	if got := similarity("abcd", "wxyz"); got != 0.0 {
		t.Errorf("disjoint strings should score 0.0, got %f", got)
	}
	if got := similarity("", "abc"); got != 0.0 {
		t.Errorf("empty string should score 0.0, got %f", got)
	}

	// "humanacts" vs "humanfacts": long shared subsequence, high ratio.
	if got := similarity("humanacts", "humanfacts"); got < 0.8 {
		t.Errorf("near-identical strings should score high, got %f", got)
	}
}

func TestSearchBlockingRanksAndFilters(t *testing.T) {
	shelf := newShelf(t,
		"소년이 온다.epub",
		"소년이 온다 - 한강.pdf",
		"nested/한강 단편집 소년이 온다 수록.mobi",
		"notes.txt",
		"cover.jpg",
		"unrelated-novel.epub",
	)

	results, err := shelf.SearchBlocking("소년이 온다", source.QueryTitle, 10)
	if err != nil {
		t.Fatalf("SearchBlocking failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(results), results)
	}

	// Exact match first, then prefix, then containment.
	if results[0].Title != "소년이 온다" {
		t.Errorf("best match should be the exact filename, got %q", results[0].Title)
	}
	if results[1].Title != "소년이 온다 - 한강" {
		t.Errorf("second should be the prefix match, got %q", results[1].Title)
	}
	if results[0].Extra["score"] != "100" || results[1].Extra["score"] != "90" {
		t.Errorf("unexpected scores: %v %v", results[0].Extra, results[1].Extra)
	}
	if results[0].Availability != "on disk" {
		t.Errorf("Availability = %q", results[0].Availability)
	}
	if results[0].Extra["format"] != "epub" {
		t.Errorf("format = %q", results[0].Extra["format"])
	}
}

func TestSearchBlockingMaxResults(t *testing.T) {
	shelf := newShelf(t,
		"소년이 온다 1.epub",
		"소년이 온다 2.epub",
		"소년이 온다 3.epub",
	)

	results, err := shelf.SearchBlocking("소년이 온다", source.QueryTitle, 2)
	if err != nil {
		t.Fatalf("SearchBlocking failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected results capped at 2, got %d", len(results))
	}
}

func TestSearchBlockingNoMatches(t *testing.T) {
	shelf := newShelf(t, "unrelated.epub")

	results, err := shelf.SearchBlocking("소년이 온다", source.QueryTitle, 10)
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestSearchBlockingEmptyQuery(t *testing.T) {
	shelf := newShelf(t, "book.epub")

	results, err := shelf.SearchBlocking("!!!", source.QueryTitle, 10)
	if err != nil {
		t.Fatalf("SearchBlocking failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("query that normalizes to nothing should match nothing, got %+v", results)
	}
}

type fakeDirEntry struct {
	fs.DirEntry
	dir bool
}

func (f fakeDirEntry) IsDir() bool { return f.dir }

func TestWalkEntryErr(t *testing.T) {
	walkErr := errors.New("permission denied")

	// Failing to read the root aborts the scan.
	if err := walkEntryErr("/shelf", "/shelf", nil, walkErr); !errors.Is(err, walkErr) {
		t.Errorf("root error should propagate, got %v", err)
	}

	// An unreadable subdirectory is skipped whole.
	if err := walkEntryErr("/shelf", "/shelf/locked", fakeDirEntry{dir: true}, walkErr); !errors.Is(err, fs.SkipDir) {
		t.Errorf("directory error should skip the directory, got %v", err)
	}

	// A broken file entry is dropped without skipping its siblings.
	if err := walkEntryErr("/shelf", "/shelf/broken.epub", fakeDirEntry{dir: false}, walkErr); err != nil {
		t.Errorf("file error should not stop the walk, got %v", err)
	}
	if err := walkEntryErr("/shelf", "/shelf/broken.epub", nil, walkErr); err != nil {
		t.Errorf("missing entry should not stop the walk, got %v", err)
	}
}

func TestFormatResults(t *testing.T) {
	shelf := newShelf(t)
	out := shelf.FormatResults([]source.RawResult{
		{Title: "소년이 온다", Link: "/books/소년이 온다.epub"},
	})
	if !strings.Contains(out, "- 소년이 온다 (/books/소년이 온다.epub)\n") {
		t.Errorf("unexpected formatting:\n%s", out)
	}
}
