package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gazelleops/internal/audioinspect"
	"gazelleops/internal/fileutil"
	"gazelleops/internal/formats"
	"gazelleops/internal/logging"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
)

// Prober re-reads one file's audio facts immediately before encoding. The
// declared encoding can change between preflight and encode (operator edits,
// reclassification races); the pipeline trusts only its own last look.
type Prober func(ctx context.Context, path string) (audioinspect.FileInfo, error)

// Job is one (release, format) unit of work.
type Job struct {
	Group   release.ReleaseGroup
	Torrent release.Torrent
	Spec    formats.Spec
	// SourceDir is the located, validated source directory.
	SourceDir string
	// Info is the preflight inspection of SourceDir.
	Info audioinspect.Info
	// Allow24Bit is set when the torrent's record already declares 24-bit
	// samples, so a measured 24-bit file is expected rather than a race.
	Allow24Bit bool
}

// Runner executes transcode jobs. One Runner serves the whole run; each job
// stages into its own uuid-named directory.
type Runner struct {
	bin        Binaries
	stagingDir string
	outputDir  string
	workers    int
	probe      Prober
	logger     *slog.Logger
}

// NewRunner wires a Runner. workers is clamped to at least one. A nil probe
// disables the pre-encode bit depth re-check; tests use that.
func NewRunner(bin Binaries, stagingDir, outputDir string, workers int, probe Prober, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		bin:        bin,
		stagingDir: stagingDir,
		outputDir:  outputDir,
		workers:    workers,
		probe:      probe,
		logger:     logging.NewComponentLogger(logger, "transcode"),
	}
}

// Run produces the output directory for one job, or nothing. On any failure
// the staging area is removed before the error is returned; the output
// directory only ever appears complete.
func (r *Runner) Run(ctx context.Context, job Job) (string, error) {
	name := OutputName(job.Group, job.Torrent, job.Spec)
	staging := filepath.Join(r.stagingDir, uuid.NewString())
	workDir := filepath.Join(staging, name)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEncode, "transcode", "stage", name, err)
	}
	defer os.RemoveAll(staging)

	r.logger.Info("transcoding",
		logging.String("release", job.Group.DisplayName()),
		logging.String(logging.FieldFormat, job.Spec.Name),
		logging.Int("files", len(job.Info.Files)),
		logging.Int("workers", r.workers))

	if err := r.encodeAll(ctx, job, workDir); err != nil {
		return "", err
	}
	if err := r.copyCompanions(job.SourceDir, workDir); err != nil {
		return "", services.Wrap(services.ErrEncode, "transcode", "companions", name, err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEncode, "transcode", "output", name, err)
	}
	finalDir := filepath.Join(r.outputDir, name)
	if err := os.Rename(workDir, finalDir); err != nil {
		return "", services.Wrap(services.ErrEncode, "transcode", "output", name, err)
	}
	return finalDir, nil
}

// encodeAll fans the job's files out over the worker pool. The first failure
// cancels the remaining work and wins.
func (r *Runner) encodeAll(ctx context.Context, job Job, workDir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files := make(chan audioinspect.FileInfo)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range files {
				if err := r.encodeFile(ctx, job, file, workDir); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for _, file := range job.Info.Files {
		select {
		case files <- file:
		case <-ctx.Done():
			break feed
		}
	}
	close(files)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// encodeFile runs one file through the stage chain into its mirrored
// location under workDir.
func (r *Runner) encodeFile(ctx context.Context, job Job, file audioinspect.FileInfo, workDir string) error {
	rel, err := filepath.Rel(job.SourceDir, file.Path)
	if err != nil {
		rel = filepath.Base(file.Path)
	}
	dst := filepath.Join(workDir, strings.TrimSuffix(rel, filepath.Ext(rel))+job.Spec.Extension)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return services.Wrap(services.ErrEncode, "transcode", "encode", rel, err)
	}

	measured := file
	if r.probe != nil {
		measured, err = r.probe(ctx, file.Path)
		if err != nil {
			return services.Wrap(services.ErrEncode, "transcode", "probe", rel, err)
		}
	}
	if measured.BitDepth > maxBitDepth && !job.Allow24Bit {
		return services.Wrap(services.ErrBitDepth, "transcode", "encode",
			fmt.Sprintf("%s is %d-bit but the release is not marked 24-bit", rel, measured.BitDepth), nil)
	}

	plan := PlanResample(measured.BitDepth, measured.SampleRate)
	stages, err := buildStages(r.bin, job.Spec, plan, file.Path, dst, file.Tags)
	if err != nil {
		return services.Wrap(services.ErrEncode, "transcode", "encode", rel, err)
	}
	if err := runStages(ctx, stages); err != nil {
		return services.Wrap(services.ErrEncode, "transcode", "encode", rel, err)
	}
	return nil
}

// runStages executes a pipe chain, connecting each stage's stdout to the
// next stage's stdin through OS pipes. The parent closes its copies of every
// pipe end once the children hold theirs, so a consumer that dies mid-stream
// breaks the pipe for its producer instead of leaving it blocked on a full
// buffer. Waits run in reverse so the consumer's diagnostic wins.
func runStages(ctx context.Context, stages []stage) error {
	cmds := make([]*exec.Cmd, len(stages))
	stderrs := make([]bytes.Buffer, len(stages))
	for i, st := range stages {
		cmds[i] = exec.CommandContext(ctx, st.binary, st.args...)
		cmds[i].Stderr = &stderrs[i]
	}

	pipeEnds := make([]*os.File, 0, 2*len(stages))
	closeEnds := func() {
		for _, end := range pipeEnds {
			_ = end.Close()
		}
	}
	for i := 1; i < len(cmds); i++ {
		read, write, err := os.Pipe()
		if err != nil {
			closeEnds()
			return fmt.Errorf("pipe %s: %w", stages[i-1].binary, err)
		}
		cmds[i-1].Stdout = write
		cmds[i].Stdin = read
		pipeEnds = append(pipeEnds, read, write)
	}

	started := 0
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			closeEnds()
			for j := 0; j < started; j++ {
				_ = cmds[j].Process.Kill()
				_ = cmds[j].Wait()
			}
			return fmt.Errorf("start %s: %w", stages[i].binary, err)
		}
		started++
	}
	closeEnds()

	var firstErr error
	for i := len(cmds) - 1; i >= 0; i-- {
		if err := cmds[i].Wait(); err != nil && firstErr == nil {
			detail := strings.TrimSpace(stderrs[i].String())
			if detail != "" {
				firstErr = fmt.Errorf("%s: %w: %s", stages[i].binary, err, detail)
			} else {
				firstErr = fmt.Errorf("%s: %w", stages[i].binary, err)
			}
		}
	}
	return firstErr
}

// copyCompanions mirrors non-audio files (art, logs, cue sheets) from the
// source into the output directory, preserving relative paths.
func (r *Runner) copyCompanions(sourceDir, workDir string) error {
	return filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".flac") {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(workDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return fileutil.CopyFile(path, dst)
	})
}
