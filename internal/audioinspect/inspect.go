package audioinspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileInfo is the inspection result for one audio file.
type FileInfo struct {
	Path       string
	Channels   int
	BitDepth   int
	SampleRate int
	// Tags holds vorbis comments with lower-cased keys.
	Tags map[string]string
}

// Info summarizes a source directory's audio files in sorted path order.
type Info struct {
	Files []FileInfo
}

// MaxChannels returns the highest channel count across files.
func (i Info) MaxChannels() int {
	max := 0
	for _, f := range i.Files {
		if f.Channels > max {
			max = f.Channels
		}
	}
	return max
}

// MaxBitDepth returns the highest measured bit depth across files.
func (i Info) MaxBitDepth() int {
	max := 0
	for _, f := range i.Files {
		if f.BitDepth > max {
			max = f.BitDepth
		}
	}
	return max
}

// MaxSampleRate returns the highest sample rate across files.
func (i Info) MaxSampleRate() int {
	max := 0
	for _, f := range i.Files {
		if f.SampleRate > max {
			max = f.SampleRate
		}
	}
	return max
}

type probePayload struct {
	Streams []struct {
		CodecType        string            `json:"codec_type"`
		Channels         int               `json:"channels"`
		SampleRate       string            `json:"sample_rate"`
		BitsPerRawSample string            `json:"bits_per_raw_sample"`
		BitsPerSample    int               `json:"bits_per_sample"`
		Tags             map[string]string `json:"tags"`
	} `json:"streams"`
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

// InspectFile executes ffprobe against one file and decodes the JSON output.
func InspectFile(ctx context.Context, binary, path string) (FileInfo, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return FileInfo{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return FileInfo{}, fmt.Errorf("ffprobe inspect %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(string(output)))
	}
	info, err := parseFileInfo(output)
	if err != nil {
		return FileInfo{}, fmt.Errorf("ffprobe parse %s: %w", filepath.Base(path), err)
	}
	info.Path = path
	return info, nil
}

func parseFileInfo(data []byte) (FileInfo, error) {
	var payload probePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return FileInfo{}, err
	}

	info := FileInfo{Tags: map[string]string{}}
	// FLAC stores vorbis comments at the container level; merge stream tags
	// on top so either location wins deterministically.
	for key, value := range payload.Format.Tags {
		info.Tags[strings.ToLower(key)] = value
	}

	found := false
	for _, stream := range payload.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		found = true
		info.Channels = stream.Channels
		info.SampleRate = parseInt(stream.SampleRate)
		info.BitDepth = parseInt(stream.BitsPerRawSample)
		if info.BitDepth == 0 {
			info.BitDepth = stream.BitsPerSample
		}
		for key, value := range stream.Tags {
			info.Tags[strings.ToLower(key)] = value
		}
		break
	}
	if !found {
		return FileInfo{}, errors.New("no audio stream")
	}
	return info, nil
}

func parseInt(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return parsed
}

// Inspector runs ffprobe over directories. The zero value is not usable; use
// New.
type Inspector struct {
	binary string
}

// New constructs an Inspector around the given ffprobe binary.
func New(binary string) *Inspector {
	return &Inspector{binary: binary}
}

// InspectDir inspects every FLAC file under dir, recursively, in sorted
// order. A directory without any FLAC files is an error: the caller expects a
// lossless source.
func (i *Inspector) InspectDir(ctx context.Context, dir string) (Info, error) {
	paths, err := LosslessFiles(dir)
	if err != nil {
		return Info{}, err
	}
	if len(paths) == 0 {
		return Info{}, fmt.Errorf("no FLAC files under %s", dir)
	}

	info := Info{Files: make([]FileInfo, 0, len(paths))}
	for _, path := range paths {
		fileInfo, err := InspectFile(ctx, i.binary, path)
		if err != nil {
			return Info{}, err
		}
		info.Files = append(info.Files, fileInfo)
	}
	return info, nil
}

// LosslessFiles lists the FLAC files under dir, recursively, sorted.
func LosslessFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".flac") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
