package release

import (
	"fmt"
	"strings"
)

// ReleaseGroup is a musical work aggregating one or more torrents. Snapshots
// are fetched per processing pass and never mutated.
type ReleaseGroup struct {
	ID      int64
	Name    string
	Year    int
	Artists []string
}

// Torrent is one published encoding of a ReleaseGroup.
type Torrent struct {
	ID                      int64
	GroupID                 int64
	Media                   string
	Format                  string
	Encoding                string
	Remastered              bool
	RemasterYear            int
	RemasterTitle           string
	RemasterRecordLabel     string
	RemasterCatalogueNumber string
	// FilePath is the declared on-disk directory name; may be empty for
	// single-file uploads.
	FilePath string
	// Files are the file names from the torrent's file listing.
	Files []FileEntry
}

// FileEntry is one file from a torrent's listing.
type FileEntry struct {
	Name string
	Size int64
}

// RemasterKey is the composite identity distinguishing distinct remaster
// editions within a group. Torrents with equal keys are siblings competing
// for the same format slots. Comparable by design: use == only.
type RemasterKey struct {
	Media     string
	Year      int
	Title     string
	Label     string
	Catalogue string
}

// RemasterGroup returns the torrent's composite remaster key. Unremastered
// torrents collapse onto the zero remaster fields so original pressings group
// together regardless of stray values.
func (t Torrent) RemasterGroup() RemasterKey {
	key := RemasterKey{Media: t.Media}
	if t.Remastered {
		key.Year = t.RemasterYear
		key.Title = t.RemasterTitle
		key.Label = t.RemasterRecordLabel
		key.Catalogue = t.RemasterCatalogueNumber
	}
	return key
}

// Group bundles a fetched ReleaseGroup with its torrents.
type Group struct {
	Group    ReleaseGroup
	Torrents []Torrent
}

// Torrent returns the group's torrent with the given id.
func (g *Group) Torrent(id int64) (Torrent, bool) {
	for _, t := range g.Torrents {
		if t.ID == id {
			return t, true
		}
	}
	return Torrent{}, false
}

// ArtistLabel renders the contributor list the way release directories are
// named: one artist verbatim, two joined with an ampersand, more collapse to
// "Various Artists".
func (g ReleaseGroup) ArtistLabel() string {
	switch len(g.Artists) {
	case 0:
		return "Unknown Artist"
	case 1:
		return g.Artists[0]
	case 2:
		return g.Artists[0] + " & " + g.Artists[1]
	default:
		return "Various Artists"
	}
}

// DisplayName renders "Artist - Name (Year)".
func (g ReleaseGroup) DisplayName() string {
	name := fmt.Sprintf("%s - %s", g.ArtistLabel(), g.Name)
	if g.Year > 0 {
		name = fmt.Sprintf("%s (%d)", name, g.Year)
	}
	return name
}

// ParseFileList decodes the tracker's packed file listing
// ("name{{{size}}}|||name{{{size}}}") into entries.
func ParseFileList(raw string) []FileEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|||")
	entries := make([]FileEntry, 0, len(parts))
	for _, part := range parts {
		name := part
		var size int64
		if open := strings.Index(part, "{{{"); open >= 0 {
			name = part[:open]
			if close := strings.Index(part[open:], "}}}"); close >= 0 {
				fmt.Sscanf(part[open+3:open+close], "%d", &size)
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entries = append(entries, FileEntry{Name: name, Size: size})
	}
	return entries
}

// SingleLosslessFile returns the lone FLAC file name when the torrent holds
// exactly one, which is the case the source locator reconstructs a directory
// for.
func (t Torrent) SingleLosslessFile() (string, bool) {
	var found string
	for _, entry := range t.Files {
		if !strings.EqualFold(strings.TrimSpace(filepathExt(entry.Name)), ".flac") {
			continue
		}
		if found != "" {
			return "", false
		}
		found = entry.Name
	}
	return found, found != ""
}

func filepathExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
