// Package formats owns the transcode target registry, the source-encoding
// compatibility rules, and the gap resolver that decides which targets a
// release is still missing.
//
// The registry and rules are static configuration expressed as immutable
// values so tests can substitute fixtures without process-wide state.
package formats
