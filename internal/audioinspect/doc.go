// Package audioinspect shells out to ffprobe to read the facts the pipeline
// needs from lossless sources: channel count, measured bit depth, sample
// rate, and vorbis tags. It never decodes audio itself.
package audioinspect
