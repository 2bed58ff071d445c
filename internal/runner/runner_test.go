package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gazelleops/internal/audioinspect"
	"gazelleops/internal/formats"
	"gazelleops/internal/gazelle"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
	"gazelleops/internal/transcode"
)

type fakeMetadata struct {
	groups    map[int64]release.Group
	snatched  []Candidate
	uploads   []gazelle.UploadRequest
	uploadErr error
	fetchErr  error
}

func (f *fakeMetadata) TorrentGroup(ctx context.Context, id int64) (release.Group, error) {
	if f.fetchErr != nil {
		return release.Group{}, f.fetchErr
	}
	group, ok := f.groups[id]
	if !ok {
		return release.Group{}, services.Wrap(services.ErrRemote, "gazelle", "torrentgroup", "no such group", nil)
	}
	return group, nil
}

func (f *fakeMetadata) Torrent(ctx context.Context, id int64) (release.ReleaseGroup, release.Torrent, error) {
	if f.fetchErr != nil {
		return release.ReleaseGroup{}, release.Torrent{}, f.fetchErr
	}
	for _, group := range f.groups {
		if torrent, ok := group.Torrent(id); ok {
			return group.Group, torrent, nil
		}
	}
	return release.ReleaseGroup{}, release.Torrent{}, services.Wrap(services.ErrRemote, "gazelle", "torrent", "no such torrent", nil)
}

func (f *fakeMetadata) Snatched(ctx context.Context, fn func(groupID, torrentID int64) error) error {
	for _, candidate := range f.snatched {
		if err := fn(candidate.GroupID, candidate.TorrentID); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMetadata) Upload(ctx context.Context, req gazelle.UploadRequest) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, req)
	return nil
}

func (f *fakeMetadata) Permalink(torrentID int64) string {
	return "https://tracker.example/torrents.php?torrentid=11"
}

func (f *fakeMetadata) ReleaseURL(groupID, torrentID int64) string {
	return "https://tracker.example/torrents.php?id=7&torrentid=11#torrent11"
}

type fakeLocator struct {
	dir string
	err error
}

func (f fakeLocator) Resolve(group release.ReleaseGroup, torrent release.Torrent) (string, error) {
	return f.dir, f.err
}

type fakeValidator struct {
	err     error
	info    audioinspect.Info
	upgrade bool
}

func (f fakeValidator) Run(ctx context.Context, group release.ReleaseGroup, torrent release.Torrent, dir string) (release.Torrent, audioinspect.Info, error) {
	if f.upgrade {
		torrent.Encoding = "24bit Lossless"
	}
	return torrent, f.info, f.err
}

type fakePipeline struct {
	dir      string
	runs     []string
	failSpec string
}

func (f *fakePipeline) Run(ctx context.Context, job transcode.Job) (string, error) {
	f.runs = append(f.runs, job.Spec.Name)
	if job.Spec.Name == f.failSpec {
		return "", services.Wrap(services.ErrEncode, "transcode", "encode", job.Spec.Name, nil)
	}
	return f.dir, nil
}

type fakePackager struct {
	artifact string
	packages int
}

func (f *fakePackager) Package(ctx context.Context, dir string) (string, error) {
	f.packages++
	return f.artifact, nil
}

type memoryCache struct {
	ids      map[int64]struct{}
	writeErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{ids: make(map[int64]struct{})}
}

func (m *memoryCache) Contains(torrentID int64) bool {
	_, ok := m.ids[torrentID]
	return ok
}

func (m *memoryCache) MarkProcessed(ctx context.Context, torrentID int64) error {
	m.ids[torrentID] = struct{}{}
	return m.writeErr
}

func losslessGroup() map[int64]release.Group {
	return map[int64]release.Group{
		7: {
			Group: release.ReleaseGroup{ID: 7, Name: "Album", Year: 1999, Artists: []string{"Artist"}},
			Torrents: []release.Torrent{
				{ID: 11, GroupID: 7, Media: "CD", Format: "FLAC", Encoding: "Lossless", FilePath: "Artist - Album (1999)"},
			},
		},
	}
}

func stereoInfo() audioinspect.Info {
	return audioinspect.Info{Files: []audioinspect.FileInfo{{
		Path: "01.flac", Channels: 2, BitDepth: 16, SampleRate: 44100,
		Tags: map[string]string{"artist": "Artist", "album": "Album", "title": "Song", "tracknumber": "1"},
	}}}
}

func desired(t *testing.T) []formats.Spec {
	t.Helper()
	specs, err := formats.Desired([]string{"V0", "320"})
	if err != nil {
		t.Fatal(err)
	}
	return specs
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.torrent")
	if err := os.WriteFile(path, []byte("d4:info0:e"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newController(t *testing.T, metadata *fakeMetadata, pipeline *fakePipeline, packager *fakePackager, cache Cache) *Controller {
	t.Helper()
	return New(metadata, fakeLocator{dir: "/music/src"}, fakeValidator{info: stereoInfo()},
		pipeline, packager, cache, desired(t), nil)
}

func TestRunProcessesAndMarksRelease(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	packager := &fakePackager{artifact: writeArtifact(t)}
	cache := newMemoryCache()

	controller := newController(t, metadata, pipeline, packager, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 1 || summary.Uploaded != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(pipeline.runs) != 2 || pipeline.runs[0] != "V0" || pipeline.runs[1] != "320" {
		t.Fatalf("formats attempted out of order: %v", pipeline.runs)
	}
	if len(metadata.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(metadata.uploads))
	}
	if metadata.uploads[0].Encoding != "V0 (VBR)" || metadata.uploads[1].Encoding != "320" {
		t.Fatalf("unexpected upload encodings: %+v", metadata.uploads)
	}
	if !cache.Contains(11) {
		t.Fatal("release not marked processed")
	}
}

func TestRunResumePropertySkipsCachedRelease(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()
	cache.ids[11] = struct{}{}

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Cached != 1 || summary.Processed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(pipeline.runs) != 0 {
		t.Fatal("cached release must never reach the pipeline")
	}
}

func TestRunReclassifiedTorrentReopensItsOwnSlot(t *testing.T) {
	// The group snapshot is fetched before preflight. Once preflight upgrades
	// the torrent to 24-bit, its stale Lossless record must not keep the
	// 16-bit FLAC slot occupied.
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()
	specs, err := formats.Desired([]string{"FLAC", "V0", "320"})
	if err != nil {
		t.Fatal(err)
	}

	controller := New(metadata, fakeLocator{dir: "/music/src"},
		fakeValidator{info: stereoInfo(), upgrade: true},
		pipeline, &fakePackager{artifact: writeArtifact(t)}, cache, specs, nil)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(pipeline.runs) != 3 || pipeline.runs[0] != "FLAC" {
		t.Fatalf("reclassified source must transcode FLAC too, got %v", pipeline.runs)
	}
	if summary.Uploaded != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if metadata.uploads[0].Encoding != "Lossless" {
		t.Fatalf("FLAC upload must target the 16-bit slot: %+v", metadata.uploads[0])
	}
}

func TestRunWarmCacheRerunDoesNoWork(t *testing.T) {
	// First pass completes and caches the release; the rerun does no work at
	// all. A release interrupted before the cache write would redo every
	// format, which is the documented cost of release-level granularity.
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()
	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)

	candidates := []Candidate{{GroupID: 7, TorrentID: 11}}
	if _, err := controller.Run(context.Background(), candidates); err != nil {
		t.Fatal(err)
	}
	firstRuns := len(pipeline.runs)

	summary, err := controller.Run(context.Background(), candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(pipeline.runs) != firstRuns {
		t.Fatal("rerun with warm cache must not transcode")
	}
	if summary.Cached != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunFaultIsolationContinuesPastFailingRelease(t *testing.T) {
	groups := losslessGroup()
	groups[8] = release.Group{
		Group: release.ReleaseGroup{ID: 8, Name: "Other", Year: 2001, Artists: []string{"Artist"}},
		Torrents: []release.Torrent{
			{ID: 21, GroupID: 8, Media: "CD", Format: "FLAC", Encoding: "Lossless", FilePath: "x"},
		},
	}
	metadata := &fakeMetadata{groups: groups}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()

	// First candidate does not exist remotely; the second succeeds.
	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.Run(context.Background(), []Candidate{
		{GroupID: 99, TorrentID: 999},
		{GroupID: 7, TorrentID: 11},
	})
	if err != nil {
		t.Fatalf("one bad release must not abort the run: %v", err)
	}
	if summary.Failed != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunEncodeFailureIsFormatScoped(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir", failSpec: "V0"}
	cache := newMemoryCache()

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(pipeline.runs) != 2 {
		t.Fatalf("320 must still be attempted after V0 fails: %v", pipeline.runs)
	}
	if summary.Failed != 1 || summary.Uploaded != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if cache.Contains(11) {
		t.Fatal("release with a failed format must not be marked processed")
	}
}

func TestRunPublishFailureRetainsArtifactAndRelease(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	metadata.uploadErr = services.Wrap(services.ErrRemote, "gazelle", "upload", "tracker rejected", nil)
	pipeline := &fakePipeline{dir: "/out/dir"}
	packager := &fakePackager{artifact: writeArtifact(t)}
	cache := newMemoryCache()

	controller := newController(t, metadata, pipeline, packager, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("publish failure must count the release failed: %+v", summary)
	}
	if packager.packages != 2 {
		t.Fatalf("both formats should have been packaged, got %d", packager.packages)
	}
	if _, statErr := os.Stat(packager.artifact); statErr != nil {
		t.Fatalf("artifact must be retained after publish failure: %v", statErr)
	}
	if cache.Contains(11) {
		t.Fatal("publish failure must not mark the release processed")
	}
}

func TestRunFullyCoveredReleaseIsMarkedWithoutWork(t *testing.T) {
	groups := losslessGroup()
	group := groups[7]
	group.Torrents = append(group.Torrents,
		release.Torrent{ID: 12, GroupID: 7, Media: "CD", Format: "MP3", Encoding: "V0 (VBR)"},
		release.Torrent{ID: 13, GroupID: 7, Media: "CD", Format: "MP3", Encoding: "320"},
	)
	groups[7] = group
	metadata := &fakeMetadata{groups: groups}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 || summary.Uploaded != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(pipeline.runs) != 0 {
		t.Fatal("fully covered release must not transcode")
	}
	if !cache.Contains(11) {
		t.Fatal("fully covered release should be cached")
	}
}

func TestRunSkipsLossySources(t *testing.T) {
	groups := map[int64]release.Group{
		7: {
			Group: release.ReleaseGroup{ID: 7, Name: "Album", Artists: []string{"Artist"}},
			Torrents: []release.Torrent{
				{ID: 31, GroupID: 7, Media: "CD", Format: "MP3", Encoding: "320"},
			},
		},
	}
	metadata := &fakeMetadata{groups: groups}
	pipeline := &fakePipeline{dir: "/out/dir"}

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, newMemoryCache())
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 31}})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || len(pipeline.runs) != 0 {
		t.Fatalf("lossy source must be skipped: %+v", summary)
	}
}

func TestRunSnatchedFeedsCandidates(t *testing.T) {
	metadata := &fakeMetadata{
		groups:   losslessGroup(),
		snatched: []Candidate{{GroupID: 7, TorrentID: 11}},
	}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.RunSnatched(context.Background())
	if err != nil {
		t.Fatalf("RunSnatched failed: %v", err)
	}
	if summary.Considered != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunCacheWriteFailureDoesNotAbortRun(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()
	cache.writeErr = services.Wrap(services.ErrCache, "processed", "mark", "disk full", errors.New("enospc"))

	controller := newController(t, metadata, pipeline, &fakePackager{artifact: writeArtifact(t)}, cache)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("cache write failure must not abort: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunPreflightRejectionAbortsOnlyRelease(t *testing.T) {
	metadata := &fakeMetadata{groups: losslessGroup()}
	pipeline := &fakePipeline{dir: "/out/dir"}
	cache := newMemoryCache()
	validator := fakeValidator{err: services.Wrap(services.ErrInvalidTags, "preflight", "tags", "01.flac: missing artist", nil)}

	controller := New(metadata, fakeLocator{dir: "/music/src"}, validator,
		pipeline, &fakePackager{artifact: writeArtifact(t)}, cache, desired(t), nil)
	summary, err := controller.Run(context.Background(), []Candidate{{GroupID: 7, TorrentID: 11}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || len(pipeline.runs) != 0 {
		t.Fatalf("rejected release must not transcode: %+v", summary)
	}
	if cache.Contains(11) {
		t.Fatal("rejected release must not be cached")
	}
}
