package port

import (
	"context"
	"time"
)

type FrameExtractionResult struct {
	FrameCount    int
	VideoDuration float64
}

// FrameExtractor samples one frame per interval from videoPath into outputDir.
// It returns once the extraction has finished, successfully or not.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, outputDir string, interval time.Duration) (*FrameExtractionResult, error)
}

// ArchiveBuilder packs every file of sourceDir, without directory prefix, into outputPath.
type ArchiveBuilder interface {
	BuildArchive(ctx context.Context, sourceDir, outputPath string) error
}
