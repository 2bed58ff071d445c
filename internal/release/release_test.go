package release_test

import (
	"testing"

	"gazelleops/internal/release"
)

func TestRemasterGroupEquality(t *testing.T) {
	a := release.Torrent{
		Media:                   "CD",
		Remastered:              true,
		RemasterYear:            2005,
		RemasterTitle:           "Deluxe Edition",
		RemasterRecordLabel:     "Label",
		RemasterCatalogueNumber: "CAT-001",
	}
	b := a
	b.ID = 99
	b.Format = "MP3"
	if a.RemasterGroup() != b.RemasterGroup() {
		t.Fatal("torrents differing only in format must share a remaster key")
	}

	c := a
	c.RemasterTitle = "Remastered"
	if a.RemasterGroup() == c.RemasterGroup() {
		t.Fatal("different remaster titles must not share a key")
	}
}

func TestRemasterGroupIgnoresStrayFieldsWhenUnremastered(t *testing.T) {
	a := release.Torrent{Media: "WEB", Remastered: false, RemasterYear: 2010, RemasterTitle: "junk"}
	b := release.Torrent{Media: "WEB", Remastered: false}
	if a.RemasterGroup() != b.RemasterGroup() {
		t.Fatal("unremastered torrents must collapse onto the zero remaster key")
	}
	d := release.Torrent{Media: "Vinyl", Remastered: false}
	if b.RemasterGroup() == d.RemasterGroup() {
		t.Fatal("media must still distinguish unremastered torrents")
	}
}

func TestParseFileList(t *testing.T) {
	entries := release.ParseFileList("01 - Intro.flac{{{12345}}}|||folder.jpg{{{999}}}")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "01 - Intro.flac" || entries[0].Size != 12345 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Name != "folder.jpg" || entries[1].Size != 999 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if got := release.ParseFileList(""); got != nil {
		t.Fatalf("expected nil for empty listing, got %v", got)
	}
}

func TestSingleLosslessFile(t *testing.T) {
	torrent := release.Torrent{Files: []release.FileEntry{
		{Name: "track.flac"},
		{Name: "cover.jpg"},
	}}
	name, ok := torrent.SingleLosslessFile()
	if !ok || name != "track.flac" {
		t.Fatalf("expected single flac, got %q ok=%v", name, ok)
	}

	torrent.Files = append(torrent.Files, release.FileEntry{Name: "other.FLAC"})
	if _, ok := torrent.SingleLosslessFile(); ok {
		t.Fatal("two flac files must not count as a single-file torrent")
	}
}

func TestDisplayName(t *testing.T) {
	group := release.ReleaseGroup{Name: "Album", Year: 1999, Artists: []string{"Artist"}}
	if got := group.DisplayName(); got != "Artist - Album (1999)" {
		t.Fatalf("unexpected display name %q", got)
	}
	group.Artists = []string{"A", "B", "C"}
	if got := group.ArtistLabel(); got != "Various Artists" {
		t.Fatalf("unexpected artist label %q", got)
	}
}
