package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gemporter/internal/playlist"
)

// fakeRunner writes the files yt-dlp and ffmpeg would produce. failures
// counts how many yt-dlp calls fail before one succeeds.
type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	failures int
	missing  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))

	if f.missing[name] {
		return nil, nil, ErrMissingDependency
	}
	if len(args) == 1 {
		return []byte("1.0\n"), nil, nil
	}

	switch name {
	case "yt-dlp":
		if f.failures > 0 {
			f.failures--
			return nil, []byte("HTTP Error 403"), errors.New("exit status 1")
		}
		var out string
		for i, a := range args {
			if a == "-o" {
				out = args[i+1]
			}
		}
		path := strings.Replace(out, "%(ext)s", "mp3", 1)
		return nil, nil, os.WriteFile(path, []byte("audio"), 0o644)
	case "ffmpeg":
		return nil, nil, os.WriteFile(args[len(args)-1], []byte("tagged"), 0o644)
	}
	return nil, nil, nil
}

func (f *fakeRunner) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c[0] == name {
			n++
		}
	}
	return n
}

type fakeSearcher struct {
	url string
	err error
}

func (f fakeSearcher) SearchTracks(context.Context, string, int) ([]playlist.Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []playlist.Track{{ID: "v1", URL: f.url}}, nil
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"plain", Item{Name: "Glass", Artists: []string{"Nova"}}, "Nova - Glass"},
		{"featuring", Item{Name: "Glass (feat. Kite)", Artists: []string{"Nova", "Kite"}}, "Nova, Kite - Glass"},
		{"with", Item{Name: "Glass (with Kite)", Artists: []string{"Nova"}}, "Nova - Glass"},
		{"version suffix", Item{Name: "Glass - 2019 Remaster", Artists: []string{"Nova"}}, "Nova - Glass"},
		{"bracket", Item{Name: "Glass [Live]", Artists: []string{"Nova"}}, "Nova - Glass"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SearchQuery(tc.item); got != tc.want {
				t.Errorf("SearchQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AC/DC - Tnt: Live? (1976) [x]", "AC_DC - Tnt_ Live_ (1976) [x]"},
		{"米津玄師 - 東京", "米津玄師 - 東京"},
		{"Sigur Rós - Hoppípolla", "Sigur Rós - Hoppípolla"},
		{"Кино - Группа крови!", "Кино - Группа крови_"},
	}

	for _, tc := range tests {
		if got := SafeName(tc.in); got != tc.want {
			t.Errorf("SafeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDownload_RetriesThenTags(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{failures: 1}
	d := New(Options{Dir: dir, Retries: 3}, runner, nil, nil)

	res := d.Download(context.Background(), Item{Name: "Glass", Artists: []string{"Nova"}, Album: "Tiny EP"})
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if res.Target != "ytsearch1:Nova - Glass" {
		t.Errorf("target = %q", res.Target)
	}
	if want := filepath.Join(dir, "Nova - Glass.mp3"); res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "tagged" {
		t.Errorf("expected the tagged file to replace the download, got %q", data)
	}
}

func TestDownload_GivesUpAfterRetries(t *testing.T) {
	runner := &fakeRunner{failures: 5}
	d := New(Options{Dir: t.TempDir(), Retries: 2}, runner, nil, nil)

	res := d.Download(context.Background(), Item{Name: "Glass", Artists: []string{"Nova"}})
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Err.Error(), "403") {
		t.Errorf("expected stderr in error, got %v", res.Err)
	}
	if runner.count("yt-dlp") != 2 || runner.count("ffmpeg") != 0 {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestDownload_SkipsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Nova - Glass.mp3"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	d := New(Options{Dir: dir, SkipExisting: true}, runner, nil, nil)

	res := d.Download(context.Background(), Item{Name: "Glass", Artists: []string{"Nova"}})
	if !res.Skipped || !res.OK() {
		t.Fatalf("expected a skip, got %+v", res)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no commands, got %v", runner.calls)
	}
}

func TestDownload_UsesSearcher(t *testing.T) {
	tests := []struct {
		name     string
		searcher Searcher
		want     string
	}{
		{"hit", fakeSearcher{url: "https://www.youtube.com/watch?v=v1"}, "https://www.youtube.com/watch?v=v1"},
		{"search error", fakeSearcher{err: errors.New("quota")}, "ytsearch1:Nova - Glass"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := New(Options{Dir: t.TempDir()}, &fakeRunner{}, tc.searcher, nil)
			res := d.Download(context.Background(), Item{Name: "Glass", Artists: []string{"Nova"}})
			if res.Target != tc.want {
				t.Errorf("target = %q, want %q", res.Target, tc.want)
			}
		})
	}
}

func TestDownloadAll_KeepsOrder(t *testing.T) {
	runner := &fakeRunner{}
	d := New(Options{Dir: filepath.Join(t.TempDir(), "out"), Workers: 3}, runner, nil, nil)

	items := []Item{
		{Name: "One", Artists: []string{"A"}},
		{Name: "Two", Artists: []string{"B"}},
		{Name: "Three", Artists: []string{"C"}},
		{Name: "Four", Artists: []string{"D"}},
	}
	var mu sync.Mutex
	seen := 0
	results, err := d.DownloadAll(context.Background(), items, func(Result) {
		mu.Lock()
		seen++
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != len(items) {
		t.Errorf("progress called %d times, want %d", seen, len(items))
	}
	for i, r := range results {
		if r.Item.Name != items[i].Name || !r.OK() {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func TestDownloadAll_NonLatinNamesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "米津玄師 - 東京.mp3"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	d := New(Options{Dir: dir, SkipExisting: true, Workers: 2}, runner, nil, nil)

	items := []Item{
		{ID: "t1", Name: "東京", Artists: []string{"米津玄師"}},
		{ID: "t2", Name: "京都", Artists: []string{"藤井風風"}},
	}
	results, err := d.DownloadAll(context.Background(), items, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Skipped {
		t.Errorf("expected %s to be skipped", results[0].Path)
	}
	if results[1].Skipped || !results[1].OK() {
		t.Errorf("expected %s to be downloaded, got %+v", results[1].Query, results[1])
	}
	if results[0].Path == results[1].Path {
		t.Errorf("both tracks map to %s", results[0].Path)
	}
}

func TestDownloadAll_CollidingNamesGetTrackID(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	d := New(Options{Dir: dir, Workers: 2}, runner, nil, nil)

	items := []Item{
		{ID: "t1", Name: "Glass?", Artists: []string{"Nova"}},
		{ID: "t2", Name: "Glass!", Artists: []string{"Nova"}},
		{ID: "t3", Name: "Sand", Artists: []string{"Nova"}},
	}
	results, err := d.DownloadAll(context.Background(), items, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Nova - Glass_ [t1].mp3", "Nova - Glass_ [t2].mp3", "Nova - Sand.mp3"}
	for i, r := range results {
		if !r.OK() {
			t.Errorf("result %d failed: %v", i, r.Err)
		}
		if got := filepath.Base(r.Path); got != want[i] {
			t.Errorf("path %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestCheckDeps(t *testing.T) {
	d := New(Options{}, &fakeRunner{}, nil, nil)
	if err := d.CheckDeps(context.Background()); err != nil {
		t.Fatalf("expected deps present, got %v", err)
	}

	d = New(Options{}, &fakeRunner{missing: map[string]bool{"ffmpeg": true}}, nil, nil)
	err := d.CheckDeps(context.Background())
	if !errors.Is(err, ErrMissingDependency) || !strings.Contains(err.Error(), "ffmpeg") {
		t.Fatalf("expected missing ffmpeg, got %v", err)
	}
}
