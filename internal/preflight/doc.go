// Package preflight validates a located source before any transcode work:
// channel layout, measured bit depth against the declared encoding, and
// per-file tag completeness. It also provides the environment checks behind
// the status command.
package preflight
