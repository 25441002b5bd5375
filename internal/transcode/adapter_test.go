package transcode_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/transcode"
)

const probeJSON = `{"format":{"format_name":"matroska,webm","duration":"1450.5"},"streams":[{"codec_type":"video","codec_name":"h264"},{"codec_type":"audio","codec_name":"aac"}]}`

// writeStub creates an executable shell script standing in for ffmpeg/ffprobe.
func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func newAdapter(t *testing.T, ffprobeScript, ffmpegScript string) *transcode.Adapter {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Transcode.Enabled = true
	cfg.Transcode.FFprobeBinary = writeStub(t, dir, "ffprobe", ffprobeScript)
	cfg.Transcode.FFmpegBinary = writeStub(t, dir, "ffmpeg", ffmpegScript)
	return transcode.NewAdapter(&cfg, logging.NewNop())
}

func TestNeedsNormalization(t *testing.T) {
	if !transcode.NeedsNormalization("/tv/Foo/Foo-S01E13.mkv") {
		t.Fatal("expected .mkv to need normalization")
	}
	if !transcode.NeedsNormalization("/tv/Foo/Foo-S01E13.MKV") {
		t.Fatal("expected case-insensitive extension match")
	}
	if transcode.NeedsNormalization("/movies/Action/clip.mp4") {
		t.Fatal("expected .mp4 to be left alone")
	}
}

func TestProbeParsesStreams(t *testing.T) {
	adapter := newAdapter(t, "printf '%s' '"+probeJSON+"'", "exit 0")

	info, err := adapter.Probe(context.Background(), "/in.mkv")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.VideoCodec != "h264" || info.AudioCodec != "aac" {
		t.Fatalf("unexpected codecs: %+v", info)
	}
	if info.DurationSecs != 1450.5 {
		t.Fatalf("duration = %v", info.DurationSecs)
	}
}

func TestProbeFailureIsConversionError(t *testing.T) {
	adapter := newAdapter(t, "echo 'moov atom not found' >&2; exit 1", "exit 0")

	_, err := adapter.Probe(context.Background(), "/in.mkv")
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
}

func TestNormalizeRemuxesMKV(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "episode.mkv")
	if err := os.WriteFile(source, []byte("mkv-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	// The ffmpeg stub writes its final argument.
	adapter := newAdapter(t,
		"printf '%s' '"+probeJSON+"'",
		`for out in "$@"; do :; done; printf 'mp4-bytes' > "$out"`)

	got, err := adapter.Normalize(context.Background(), source)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := filepath.Join(dir, "episode.mp4")
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("expected source removed after remux")
	}
}

func TestNormalizeReturnsOriginalPathOnFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "episode.mkv")
	if err := os.WriteFile(source, []byte("mkv-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	adapter := newAdapter(t, "printf '%s' '"+probeJSON+"'", "exit 1")

	got, err := adapter.Normalize(context.Background(), source)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if got != source {
		t.Fatalf("expected pre-conversion path back, got %q", got)
	}
	if _, statErr := os.Stat(source); statErr != nil {
		t.Fatal("expected source to survive failed remux")
	}
}

func TestNormalizeSkipsNonMKV(t *testing.T) {
	adapter := newAdapter(t, "exit 1", "exit 1")
	got, err := adapter.Normalize(context.Background(), "/movies/Action/clip.mp4")
	if err != nil || got != "/movies/Action/clip.mp4" {
		t.Fatalf("expected pass-through, got %q (%v)", got, err)
	}
}
