// Package source locates a torrent's on-disk data under the configured
// search roots, reconstructing a directory for single-file uploads and
// driving the operator's retry loop when nothing is found.
package source
