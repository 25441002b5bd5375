// Package transcode normalizes MKV containers to MP4 after placement. It
// wraps ffprobe/ffmpeg behind a narrow probe/remux contract; callers treat
// every failure here as non-fatal to the owning job.
package transcode
