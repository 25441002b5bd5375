package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/services"
)

var commandContext = exec.CommandContext

// SourceInfo describes a probed media file.
type SourceInfo struct {
	Container    string
	DurationSecs float64
	VideoCodec   string
	AudioCodec   string
}

// Adapter runs the probe/remux steps via ffprobe and ffmpeg.
type Adapter struct {
	enabled bool
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewAdapter constructs the adapter from configuration.
func NewAdapter(cfg *config.Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		enabled: cfg.Transcode.Enabled,
		ffmpeg:  cfg.Transcode.FFmpegBinary,
		ffprobe: cfg.Transcode.FFprobeBinary,
		logger:  logging.WithComponent(logger, "transcode"),
	}
}

// Enabled reports whether normalization is configured on.
func (a *Adapter) Enabled() bool {
	return a != nil && a.enabled
}

// NeedsNormalization reports whether the file at path is in a container that
// should be remuxed.
func NeedsNormalization(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mkv")
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe validates the file as a remux source and returns stream information.
func (a *Adapter) Probe(ctx context.Context, path string) (*SourceInfo, error) {
	cmd := commandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, services.Wrap(services.ErrConversion, "transcode", "probe", strings.TrimSpace(stderr.String()), err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return nil, services.Wrap(services.ErrConversion, "transcode", "probe", "unparseable ffprobe output", err)
	}

	info := &SourceInfo{Container: probed.Format.FormatName}
	if probed.Format.Duration != "" {
		if seconds, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
			info.DurationSecs = seconds
		}
	}
	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = stream.CodecName
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
			}
		}
	}
	if info.VideoCodec == "" {
		return nil, services.Wrap(services.ErrConversion, "transcode", "probe", "no video stream found", nil)
	}
	return info, nil
}

// Remux converts path to an MP4 container with stream copy and returns the
// output path. The source file is removed after a successful remux.
func (a *Adapter) Remux(ctx context.Context, path string, info *SourceInfo) (string, error) {
	outputPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp4"
	cmd := commandContext(ctx, a.ffmpeg,
		"-y",
		"-i", path,
		"-map", "0:v",
		"-map", "0:a?",
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		return "", services.Wrap(services.ErrConversion, "transcode", "remux", strings.TrimSpace(stderr.String()), err)
	}
	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		_ = os.Remove(outputPath)
		return "", services.Wrap(services.ErrConversion, "transcode", "remux", "ffmpeg produced no output", nil)
	}
	if err := os.Remove(path); err != nil {
		a.logger.Warn("failed to remove source after remux", logging.String("path", path), logging.Error(err))
	}
	return outputPath, nil
}

// Normalize runs the probe/remux flow for a placed file and returns the path
// the job should report. Every failure is logged and the pre-conversion path
// returned with the wrapped conversion error; callers decide leniency.
func (a *Adapter) Normalize(ctx context.Context, path string) (string, error) {
	if !a.Enabled() || !NeedsNormalization(path) {
		return path, nil
	}
	logger := logging.WithContext(ctx, a.logger)

	info, err := a.Probe(ctx, path)
	if err != nil {
		logger.Warn("file is not a valid remux source", logging.String("path", path), logging.Error(err))
		return path, err
	}
	logger.Info("remuxing to mp4",
		logging.String("path", path),
		logging.String("container", info.Container),
		logging.String("video_codec", info.VideoCodec),
	)

	outputPath, err := a.Remux(ctx, path, info)
	if err != nil {
		logger.Warn("remux failed", logging.String("path", path), logging.Error(err))
		return path, err
	}
	logger.Info("remux completed", logging.String("output", outputPath))
	return outputPath, nil
}

// String implements fmt.Stringer for diagnostics.
func (a *Adapter) String() string {
	return fmt.Sprintf("transcode(enabled=%v, ffmpeg=%s, ffprobe=%s)", a.enabled, a.ffmpeg, a.ffprobe)
}
