// Package services defines the shared error taxonomy and context helpers used
// across the pipeline.
//
// Every failure surfaced by a component is tagged with one of the exported
// sentinel errors so the run controller can decide how far the failure
// propagates: encode failures abort a single format job, everything else
// aborts the release. Wrap builds messages with consistent stage/operation
// framing so log lines and errors read the same everywhere.
package services
