package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gazelleops/internal/release"
	"gazelleops/internal/services"
)

func testGroup() release.ReleaseGroup {
	return release.ReleaseGroup{ID: 1, Name: "Album", Year: 1999, Artists: []string{"Artist"}}
}

func TestNextAttempt(t *testing.T) {
	cases := []struct {
		path   string
		exists bool
		want   Decision
	}{
		{"", false, Abandon},
		{"  ", true, Abandon},
		{"/music/album", true, Accept},
		{"/music/missing", false, Retry},
	}
	for _, tc := range cases {
		if got := NextAttempt(tc.path, tc.exists); got != tc.want {
			t.Errorf("NextAttempt(%q, %v) = %v, want %v", tc.path, tc.exists, got, tc.want)
		}
	}
}

func TestResolveFindsDeclaredPathInOrderedRoots(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := filepath.Join(second, "Artist - Album (1999)")
	if err := os.MkdirAll(want, 0o755); err != nil {
		t.Fatal(err)
	}

	locator := NewLocator([]string{first, second}, nil)
	torrent := release.Torrent{FilePath: "Artist - Album (1999)"}
	got, err := locator.Resolve(testGroup(), torrent)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveReconstructsSingleFileUpload(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "track.flac")
	if err := os.WriteFile(src, []byte("flac"), 0o644); err != nil {
		t.Fatal(err)
	}

	locator := NewLocator([]string{root}, nil)
	torrent := release.Torrent{Files: []release.FileEntry{{Name: "track.flac", Size: 4}}}
	got, err := locator.Resolve(testGroup(), torrent)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(root, "Artist - Album (1999)") {
		t.Fatalf("unexpected reconstructed dir %q", got)
	}
	if _, err := os.Stat(filepath.Join(got, "track.flac")); err != nil {
		t.Fatalf("file not copied into reconstructed dir: %v", err)
	}
}

type scriptedPrompter struct {
	answers []string
	calls   int
}

func (p *scriptedPrompter) AlternatePath(display, missing string) (string, error) {
	if p.calls >= len(p.answers) {
		return "", nil
	}
	answer := p.answers[p.calls]
	p.calls++
	return answer, nil
}

func TestResolveRetriesThroughPrompter(t *testing.T) {
	root := t.TempDir()
	alternate := filepath.Join(root, "elsewhere")
	if err := os.MkdirAll(alternate, 0o755); err != nil {
		t.Fatal(err)
	}

	prompt := &scriptedPrompter{answers: []string{"/definitely/missing", alternate}}
	locator := NewLocator([]string{root}, prompt)
	torrent := release.Torrent{FilePath: "not-here"}
	got, err := locator.Resolve(testGroup(), torrent)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != alternate {
		t.Fatalf("Resolve = %q, want %q", got, alternate)
	}
	if prompt.calls != 2 {
		t.Fatalf("expected 2 prompts, got %d", prompt.calls)
	}
}

func TestResolveAbandonIsSourceNotFound(t *testing.T) {
	prompt := &scriptedPrompter{answers: []string{""}}
	locator := NewLocator([]string{t.TempDir()}, prompt)
	_, err := locator.Resolve(testGroup(), release.Torrent{FilePath: "gone"})
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestResolveWithoutPrompterFailsFast(t *testing.T) {
	locator := NewLocator([]string{t.TempDir()}, nil)
	_, err := locator.Resolve(testGroup(), release.Torrent{FilePath: "gone"})
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}
