package config

import "strings"

// normalize expands paths and trims string fields so the rest of the program
// never sees ~ prefixes or stray whitespace.
func (c *Config) normalize() error {
	roots := make([]string, 0, len(c.Paths.SearchDirs))
	for _, dir := range c.Paths.SearchDirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		roots = append(roots, expanded)
	}
	c.Paths.SearchDirs = roots

	for _, field := range []*string{
		&c.Paths.OutputDir,
		&c.Paths.TorrentDir,
		&c.Paths.StagingDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Tracker.Endpoint = strings.TrimRight(strings.TrimSpace(c.Tracker.Endpoint), "/")
	c.Tracker.APIKey = strings.TrimSpace(c.Tracker.APIKey)
	c.Tracker.AnnounceURL = strings.TrimSpace(c.Tracker.AnnounceURL)
	c.Tracker.SourceTag = strings.TrimSpace(c.Tracker.SourceTag)

	formats := make([]string, 0, len(c.Transcode.Formats))
	for _, name := range c.Transcode.Formats {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			formats = append(formats, trimmed)
		}
	}
	c.Transcode.Formats = formats

	c.Preflight.BitDepthPolicy = strings.ToLower(strings.TrimSpace(c.Preflight.BitDepthPolicy))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
