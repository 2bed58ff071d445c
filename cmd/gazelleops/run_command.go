package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gazelleops/internal/audioinspect"
	"gazelleops/internal/config"
	"gazelleops/internal/formats"
	"gazelleops/internal/gazelle"
	"gazelleops/internal/preflight"
	"gazelleops/internal/processed"
	"gazelleops/internal/runner"
	"gazelleops/internal/source"
	"gazelleops/internal/torrentfile"
	"gazelleops/internal/transcode"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var torrentIDs []int64
	var snatched bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcode and upload missing formats",
		Long: `Processes candidate releases: locates the source data, validates it,
resolves which formats are missing, transcodes them, and uploads the results.
Candidates come from --torrent ids or, with --snatched, from the tracker's
snatched listing. Finished releases are remembered and skipped on later runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !snatched && len(torrentIDs) == 0 {
				return errors.New("nothing to do: pass --torrent ids or --snatched")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another run is already active (lock %s)", cfg.LockPath())
			}
			defer lock.Unlock()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			controller, store, err := buildController(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var summary runner.Summary
			if snatched {
				summary, err = controller.RunSnatched(runCtx)
			} else {
				candidates := make([]runner.Candidate, 0, len(torrentIDs))
				for _, id := range torrentIDs {
					candidates = append(candidates, runner.Candidate{TorrentID: id})
				}
				summary, err = controller.Run(runCtx, candidates)
			}

			printSummary(cmd, summary)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&torrentIDs, "torrent", nil, "Torrent ids to process")
	cmd.Flags().BoolVar(&snatched, "snatched", false, "Process the tracker's snatched listing")
	return cmd
}

// buildController wires every collaborator of a run from configuration.
func buildController(ctx *commandContext, cfg *config.Config) (*runner.Controller, *processed.Store, error) {
	logger, err := ctx.newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := processed.Open(cfg.CachePath(), logger)
	if err != nil {
		return nil, nil, err
	}

	desired, err := formats.Desired(cfg.Transcode.Formats)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	policy, err := preflight.ParsePolicy(cfg.Preflight.BitDepthPolicy)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	client := ctx.newClient(cfg)
	prompter := newConsolePrompter()
	locator := source.NewLocator(cfg.Paths.SearchDirs, prompter)
	inspector := audioinspect.New(cfg.Transcode.FFprobeBinary)
	validator := preflight.NewValidator(inspector, client, prompter, policy, logger)

	probe := func(probeCtx context.Context, path string) (audioinspect.FileInfo, error) {
		return audioinspect.InspectFile(probeCtx, cfg.Transcode.FFprobeBinary, path)
	}
	pipeline := transcode.NewRunner(
		transcode.Binaries{
			Flac: cfg.Transcode.FlacBinary,
			Sox:  cfg.Transcode.SoxBinary,
			Lame: cfg.Transcode.LameBinary,
		},
		cfg.Paths.StagingDir,
		cfg.Paths.OutputDir,
		cfg.WorkerCount(runtime.NumCPU()),
		probe,
		logger,
	)
	packager := torrentfile.New(cfg.Transcode.MktorrentBinary, cfg.Tracker.AnnounceURL, cfg.Tracker.SourceTag, cfg.Paths.TorrentDir)

	controller := runner.New(client, locator, validator, pipeline, packager, store, desired, logger)
	return controller, store, nil
}

func printSummary(cmd *cobra.Command, summary runner.Summary) {
	rows := [][]string{
		{"Considered", fmt.Sprintf("%d", summary.Considered)},
		{"Already done", fmt.Sprintf("%d", summary.Cached)},
		{"Processed", fmt.Sprintf("%d", summary.Processed)},
		{"Uploaded formats", fmt.Sprintf("%d", summary.Uploaded)},
		{"Skipped", fmt.Sprintf("%d", summary.Skipped)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
	}
	cmd.Println(renderTable([]column{{title: "Outcome"}, {title: "Count", numeric: true}}, rows))
}

// ensure the gazelle client satisfies the controller's metadata surface.
var _ runner.MetadataService = (*gazelle.Client)(nil)
