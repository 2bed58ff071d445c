// Package config loads, validates, and normalizes the TOML configuration.
//
// Configuration covers search roots and output directories, tracker
// connection settings, the desired transcode formats and worker count, the
// external tool binaries, the bit-depth reclassification policy, and logging.
// Load applies defaults first so a partial file is always usable, then
// expands ~ paths and validates the result. CreateSample writes the embedded
// annotated sample for `gazelleops config init`.
package config
