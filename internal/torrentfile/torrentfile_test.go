package torrentfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gazelleops/internal/services"
)

func stubMktorrent(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool is a POSIX shell script")
	}
	path := filepath.Join(t.TempDir(), "mktorrent")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPackageInvokesMktorrentWithPrivateFlags(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nprev=\"\"\nfor arg; do\n  if [ \"$prev\" = \"-o\" ]; then : > \"$arg\"; fi\n  prev=$arg\ndone\n"
	binary := stubMktorrent(t, script)

	torrentDir := t.TempDir()
	dir := filepath.Join(t.TempDir(), "Artist - Album (1999) [CD V0]")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	packager := New(binary, "https://tracker.example/announce/key", "RED", torrentDir)
	out, err := packager.Package(context.Background(), dir)
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	if out != filepath.Join(torrentDir, "Artist - Album (1999) [CD V0].torrent") {
		t.Fatalf("unexpected artifact path %q", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := string(raw)
	for _, want := range []string{"-l 21", "-p", "-a https://tracker.example/announce/key", "-s RED"} {
		if !strings.Contains(args, want) {
			t.Errorf("mktorrent args missing %q: %s", want, args)
		}
	}
}

func TestPackageSurfacesToolFailure(t *testing.T) {
	binary := stubMktorrent(t, "#!/bin/sh\necho 'no such directory' >&2\nexit 1\n")
	packager := New(binary, "https://tracker.example/announce", "", t.TempDir())

	_, err := packager.Package(context.Background(), "/does/not/exist")
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	if !strings.Contains(err.Error(), "no such directory") {
		t.Fatalf("tool stderr not surfaced: %v", err)
	}
}
