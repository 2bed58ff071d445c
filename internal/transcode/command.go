package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"gazelleops/internal/formats"
)

// Binaries names the external tools the pipeline shells out to.
type Binaries struct {
	Flac string
	Sox  string
	Lame string
}

// stage is one external process in a pipe chain; stdout of each stage feeds
// stdin of the next.
type stage struct {
	binary string
	args   []string
}

// decodeStage streams a FLAC file as WAV on stdout.
func decodeStage(bin Binaries, src string) stage {
	return stage{binary: bin.Flac, args: []string{"-dcs", "--", src}}
}

// resampleStage converts the WAV stream to 16-bit at the planned rate with
// dithering, the standard downconversion chain for high-resolution masters.
func resampleStage(bin Binaries, rate int) stage {
	return stage{binary: bin.Sox, args: []string{
		"-t", "wav", "-",
		"-b", "16",
		"-t", "wav", "-",
		"rate", "-v", "-L", strconv.Itoa(rate),
		"dither",
	}}
}

// tagOrder keeps encoder invocations deterministic.
var tagOrder = []string{"title", "artist", "album", "date", "tracknumber", "genre"}

var lameTagFlags = map[string]string{
	"title":       "--tt",
	"artist":      "--ta",
	"album":       "--tl",
	"date":        "--ty",
	"tracknumber": "--tn",
	"genre":       "--tg",
}

// tagValue resolves a vorbis comment with its common aliases.
func tagValue(tags map[string]string, key string) string {
	if v := tags[key]; v != "" {
		return v
	}
	switch key {
	case "date":
		return tags["year"]
	case "tracknumber":
		return tags["track"]
	}
	return ""
}

// encodeStage builds the final stage writing dst from the WAV stream,
// re-applying the source file's tags through encoder arguments.
func encodeStage(bin Binaries, spec formats.Spec, tags map[string]string, dst string) (stage, error) {
	switch spec.Name {
	case "V0", "320":
		args := []string{"-S", "-q", "0"}
		if spec.Name == "V0" {
			args = append(args, "-V", "0", "--vbr-new")
		} else {
			args = append(args, "-b", "320", "--cbr")
		}
		args = append(args, "--add-id3v2")
		for _, key := range tagOrder {
			if value := tagValue(tags, key); value != "" {
				args = append(args, lameTagFlags[key], value)
			}
		}
		args = append(args, "-", dst)
		return stage{binary: bin.Lame, args: args}, nil
	case "FLAC":
		args := []string{"--best", "-s", "-f"}
		for _, key := range tagOrder {
			if value := tagValue(tags, key); value != "" {
				args = append(args, "-T", fmt.Sprintf("%s=%s", strings.ToUpper(key), value))
			}
		}
		args = append(args, "-o", dst, "-")
		return stage{binary: bin.Flac, args: args}, nil
	default:
		return stage{}, fmt.Errorf("no encoder for format %q", spec.Name)
	}
}

// buildStages assembles the full chain for one source file.
func buildStages(bin Binaries, spec formats.Spec, plan ResamplePlan, src, dst string, tags map[string]string) ([]stage, error) {
	stages := []stage{decodeStage(bin, src)}
	if plan.Needed {
		stages = append(stages, resampleStage(bin, plan.Rate))
	}
	encode, err := encodeStage(bin, spec, tags, dst)
	if err != nil {
		return nil, err
	}
	return append(stages, encode), nil
}
