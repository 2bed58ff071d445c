package transcode

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"gazelleops/internal/formats"
	"gazelleops/internal/release"
)

// maxNameLength keeps directory names under common filesystem limits with
// room for the torrent file suffix.
const maxNameLength = 180

// OutputName renders the deterministic directory name for one (release,
// format) pair:
//
//	Artist - Album (Remaster Title) (Year) [Media FORMAT]
//
// The remaster title appears only when set; the remaster year wins over the
// group year when the edition declares one.
func OutputName(group release.ReleaseGroup, torrent release.Torrent, spec formats.Spec) string {
	var b strings.Builder
	b.WriteString(group.ArtistLabel())
	b.WriteString(" - ")
	b.WriteString(group.Name)

	if torrent.Remastered && strings.TrimSpace(torrent.RemasterTitle) != "" {
		fmt.Fprintf(&b, " (%s)", strings.TrimSpace(torrent.RemasterTitle))
	}

	year := group.Year
	if torrent.Remastered && torrent.RemasterYear > 0 {
		year = torrent.RemasterYear
	}
	if year > 0 {
		fmt.Fprintf(&b, " (%d)", year)
	}

	fmt.Fprintf(&b, " [%s %s]", torrent.Media, spec.Name)
	return SanitizeName(b.String())
}

// SanitizeName makes a directory name safe across filesystems: NFC
// normalization, forbidden characters replaced, whitespace collapsed, length
// capped.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if len(cleaned) > maxNameLength {
		cut := maxNameLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = strings.TrimSpace(cleaned[:cut])
	}
	return cleaned
}
