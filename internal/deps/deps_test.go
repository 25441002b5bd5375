package deps

import (
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestForConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcode.Enabled = false
	if reqs := ForConfig(&cfg); len(reqs) != 0 {
		t.Fatalf("expected no requirements with transcode disabled, got %v", reqs)
	}

	cfg.Transcode.Enabled = true
	cfg.Transcode.FFmpegBinary = "ffmpeg"
	cfg.Transcode.FFprobeBinary = "ffprobe"
	reqs := ForConfig(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe requirements, got %v", reqs)
	}
}
