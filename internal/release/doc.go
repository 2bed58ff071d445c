// Package release holds the immutable tracker-side data model: release
// groups, torrents, and the composite remaster key that decides which
// torrents compete for the same format slot.
package release
