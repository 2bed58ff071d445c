package gazelle

import (
	"html"
	"strings"

	"gazelleops/internal/release"
)

// Wire structures mirror the tracker's ajax JSON. Text fields arrive
// HTML-escaped and are unescaped during conversion.

type wireGroup struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	MusicInfo   *musicInfo `json:"musicInfo"`
	CatalogueID int64      `json:"catalogueNumber,omitempty"`
}

type musicInfo struct {
	Artists []wireArtist `json:"artists"`
}

type wireArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireTorrent struct {
	ID                      int64  `json:"id"`
	GroupID                 int64  `json:"groupId"`
	Media                   string `json:"media"`
	Format                  string `json:"format"`
	Encoding                string `json:"encoding"`
	Remastered              bool   `json:"remastered"`
	RemasterYear            int    `json:"remasterYear"`
	RemasterTitle           string `json:"remasterTitle"`
	RemasterRecordLabel     string `json:"remasterRecordLabel"`
	RemasterCatalogueNumber string `json:"remasterCatalogueNumber"`
	FilePath                string `json:"filePath"`
	FileList                string `json:"fileList"`
}

type torrentGroupResponse struct {
	Group    wireGroup     `json:"group"`
	Torrents []wireTorrent `json:"torrents"`
}

type torrentResponse struct {
	Group   wireGroup   `json:"group"`
	Torrent wireTorrent `json:"torrent"`
}

type snatchedResponse struct {
	Snatched []snatchedEntry `json:"snatched"`
}

type snatchedEntry struct {
	GroupID   int64 `json:"groupId"`
	TorrentID int64 `json:"torrentId"`
}

type indexResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func unescape(value string) string {
	return html.UnescapeString(strings.TrimSpace(value))
}

func convertGroup(wire wireGroup) release.ReleaseGroup {
	group := release.ReleaseGroup{
		ID:   wire.ID,
		Name: unescape(wire.Name),
		Year: wire.Year,
	}
	if wire.MusicInfo != nil {
		for _, artist := range wire.MusicInfo.Artists {
			group.Artists = append(group.Artists, unescape(artist.Name))
		}
	}
	return group
}

func convertTorrent(groupID int64, wire wireTorrent) release.Torrent {
	if wire.GroupID != 0 {
		groupID = wire.GroupID
	}
	return release.Torrent{
		ID:                      wire.ID,
		GroupID:                 groupID,
		Media:                   unescape(wire.Media),
		Format:                  unescape(wire.Format),
		Encoding:                unescape(wire.Encoding),
		Remastered:              wire.Remastered,
		RemasterYear:            wire.RemasterYear,
		RemasterTitle:           unescape(wire.RemasterTitle),
		RemasterRecordLabel:     unescape(wire.RemasterRecordLabel),
		RemasterCatalogueNumber: unescape(wire.RemasterCatalogueNumber),
		FilePath:                unescape(wire.FilePath),
		Files:                   release.ParseFileList(html.UnescapeString(wire.FileList)),
	}
}
