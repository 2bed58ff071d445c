// Package runner drives a full run: it iterates candidate releases, wires
// locator, preflight, gap resolver, transcode pipeline, packager, and
// tracker together, and contains every per-release failure so one bad
// release never aborts the run.
package runner
