// Package transcode turns one located, validated source directory into one
// encoded output directory per needed format. Encoding is delegated to the
// external flac, sox, and lame tools chained over OS pipes; files within a
// job are encoded by a bounded worker pool.
package transcode
