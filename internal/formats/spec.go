package formats

import (
	"fmt"
	"strings"
)

// Spec is a transcodable output definition.
type Spec struct {
	// Name is the canonical short name used in config and directory labels.
	Name string
	// Format and Encoding are the tracker-side pair the output occupies.
	Format   string
	Encoding string
	// Extension of encoded audio files, with leading dot.
	Extension string
}

// Pair is a tracker-side (format, encoding) slot.
type Pair struct {
	Format   string
	Encoding string
}

// Slot returns the tracker slot this spec occupies.
func (s Spec) Slot() Pair {
	return Pair{Format: s.Format, Encoding: s.Encoding}
}

const (
	encodingLossless      = "Lossless"
	encodingLossless24bit = "24bit Lossless"
)

var registry = []Spec{
	{Name: "FLAC", Format: "FLAC", Encoding: encodingLossless, Extension: ".flac"},
	{Name: "V0", Format: "MP3", Encoding: "V0 (VBR)", Extension: ".mp3"},
	{Name: "320", Format: "MP3", Encoding: "320", Extension: ".mp3"},
}

// Registry returns all known target specs.
func Registry() []Spec {
	out := make([]Spec, len(registry))
	copy(out, registry)
	return out
}

// Lookup resolves a canonical name case-insensitively.
func Lookup(name string) (Spec, bool) {
	trimmed := strings.TrimSpace(name)
	for _, spec := range registry {
		if strings.EqualFold(spec.Name, trimmed) {
			return spec, true
		}
	}
	return Spec{}, false
}

// Desired maps configured format names onto specs, preserving order. Unknown
// names are an error so a typo cannot silently drop a format.
func Desired(names []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		spec, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown transcode format %q", name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
