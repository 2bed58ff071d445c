// Package processed is the durable resume cache. It records which torrent
// ids have been fully handled so repeated runs skip them, survives restarts
// through SQLite, and degrades to an empty cache when the file is missing or
// unreadable.
package processed
