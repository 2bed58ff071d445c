package formats

import (
	"regexp"

	"gazelleops/internal/release"
)

// Pre-emphasized pressings must not be transcoded; the de-emphasis curve
// would be baked into the output.
var preEmphasisPattern = regexp.MustCompile(`(?i)pre[- ]?emphasi(s(ed)?|zed)`)

// Allowed returns the target specs a torrent's declared encoding permits as
// transcode sources, in registry order.
//
// A 16-bit lossless source already occupies the (FLAC, Lossless) slot, so
// only the MP3 targets remain; a 24-bit source additionally permits a 16-bit
// FLAC. Lossy sources permit nothing.
func Allowed(t release.Torrent) []Spec {
	if preEmphasisPattern.MatchString(t.RemasterTitle) {
		return nil
	}
	switch t.Encoding {
	case encodingLossless24bit:
		return Registry()
	case encodingLossless:
		out := make([]Spec, 0, len(registry)-1)
		for _, spec := range registry {
			if spec.Slot() == (Pair{Format: "FLAC", Encoding: encodingLossless}) {
				continue
			}
			out = append(out, spec)
		}
		return out
	default:
		return nil
	}
}

// IsLossless reports whether a torrent can serve as a transcode source at all.
func IsLossless(t release.Torrent) bool {
	return t.Encoding == encodingLossless || t.Encoding == encodingLossless24bit
}

// Requires24Bit reports whether the torrent's declared encoding claims 24-bit
// samples.
func Requires24Bit(t release.Torrent) bool {
	return t.Encoding == encodingLossless24bit
}
