package services_test

import (
	"errors"
	"strings"
	"testing"

	"gazelleops/internal/services"
)

func TestWrapTagsSentinel(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := services.Wrap(services.ErrEncode, "transcode", "lame encode", "file 3 failed", underlying)
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected underlying error to survive wrapping, got %v", err)
	}
	for _, want := range []string{"transcode", "lame encode", "file 3 failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestWrapNilMarkerDefaultsToRemote(t *testing.T) {
	err := services.Wrap(nil, "gazelle", "fetch group", "", nil)
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected ErrRemote fallback, got %v", err)
	}
}

func TestDisposition(t *testing.T) {
	cases := []struct {
		err  error
		want services.Scope
	}{
		{services.Wrap(services.ErrEncode, "transcode", "", "", nil), services.ScopeFormat},
		{services.Wrap(services.ErrCache, "cache", "", "", nil), services.ScopeRun},
		{services.Wrap(services.ErrInvalidTags, "preflight", "", "", nil), services.ScopeRelease},
		{services.Wrap(services.ErrChannelLayout, "preflight", "", "", nil), services.ScopeRelease},
		{services.Wrap(services.ErrRemote, "gazelle", "", "", nil), services.ScopeRelease},
	}
	for _, tc := range cases {
		if got := services.Disposition(tc.err); got != tc.want {
			t.Fatalf("Disposition(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
