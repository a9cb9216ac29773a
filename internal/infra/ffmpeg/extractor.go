package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/port"
	"go.uber.org/zap"
)

var ErrNoFrames = errors.New("no frames extracted from video")

type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	format      string
	quality     int
	logger      *zap.Logger
}

type ExtractorConfig struct {
	FFmpegPath  string
	FFprobePath string
	Format      string
	Quality     int
}

func NewExtractor(cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.Format == "" {
		cfg.Format = "jpg"
	}
	return &Extractor{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		format:      cfg.Format,
		quality:     cfg.Quality,
		logger:      logger,
	}
}

// ExtractFrames writes frame_0001.<format>, frame_0002.<format>, ... into outputDir, one frame
// per interval of video time. It blocks until ffmpeg exits.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, outputDir string, interval time.Duration) (*port.FrameExtractionResult, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid frame interval %s", interval)
	}

	duration, err := e.getVideoDuration(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not get video duration", zap.Error(err))
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, e.args(videoPath, outputDir, interval)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, tail(output, 2048))
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, "*."+e.format))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	e.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Float64("video_duration", duration),
		zap.Duration("interval", interval),
	)

	return &port.FrameExtractionResult{
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}

func (e *Extractor) args(videoPath, outputDir string, interval time.Duration) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", fpsFilter(interval),
	}
	if e.quality > 0 {
		args = append(args, "-q:v", strconv.Itoa(e.quality))
	}
	return append(args, "-y", filepath.Join(outputDir, "frame_%04d."+e.format))
}

// fpsFilter renders "one frame every interval" as an ffmpeg fps filter, e.g. fps=1/20.
func fpsFilter(interval time.Duration) string {
	return "fps=1/" + strconv.FormatFloat(interval.Seconds(), 'f', -1, 64)
}

func (e *Extractor) getVideoDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
