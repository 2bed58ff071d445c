package transcode

// Targets never exceed 16-bit/48kHz; anything above goes through sox first.
const (
	maxBitDepth   = 16
	maxSampleRate = 48000
)

// ResamplePlan says whether a file needs the sox stage and at what rate.
type ResamplePlan struct {
	Needed bool
	Rate   int
}

// PlanResample decides the resample stage for one source file. Rates from
// the 44.1kHz family land on 44100, everything else on 48000, so CD-derived
// masters keep their native grid.
func PlanResample(bitDepth, sampleRate int) ResamplePlan {
	if bitDepth <= maxBitDepth && sampleRate <= maxSampleRate {
		return ResamplePlan{}
	}
	rate := 48000
	if sampleRate%44100 == 0 {
		rate = 44100
	}
	return ResamplePlan{Needed: true, Rate: rate}
}
