package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/port"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/metrics"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/staging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const archiveContentType = "application/zip"

var tracer = otel.Tracer("usecase")

// StagingArea is implemented by *staging.Manager.
type StagingArea interface {
	NewArea(userID string) staging.Area
	CreateDir(path string) error
	RemoveTree(path string) error
}

type ConvertVideoUseCase struct {
	queue     port.MessageSource
	store     port.ObjectStore
	notifier  port.NotificationSink
	extractor port.FrameExtractor
	archiver  port.ArchiveBuilder
	staging   StagingArea
	repo      port.ConversionRepository
	reporter  port.ErrorReporter
	logger    *zap.Logger
	limit     *semaphore.Weighted
	now       func() time.Time
	wg        sync.WaitGroup
}

type ConvertVideoDeps struct {
	Queue     port.MessageSource
	Store     port.ObjectStore
	Notifier  port.NotificationSink
	Extractor port.FrameExtractor
	Archiver  port.ArchiveBuilder
	Staging   StagingArea
	// Repository and Reporter are optional.
	Repository port.ConversionRepository
	Reporter   port.ErrorReporter
}

type ConvertVideoConfig struct {
	// MaxConcurrent bounds in-flight conversions; zero leaves them unbounded.
	MaxConcurrent int64
}

func NewConvertVideoUseCase(deps ConvertVideoDeps, logger *zap.Logger, cfg ConvertVideoConfig) *ConvertVideoUseCase {
	uc := &ConvertVideoUseCase{
		queue:     deps.Queue,
		store:     deps.Store,
		notifier:  deps.Notifier,
		extractor: deps.Extractor,
		archiver:  deps.Archiver,
		staging:   deps.Staging,
		repo:      deps.Repository,
		reporter:  deps.Reporter,
		logger:    logger,
		now:       time.Now,
	}
	if cfg.MaxConcurrent > 0 {
		uc.limit = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return uc
}

// ProcessBatch receives one batch of messages and starts a conversion for each.
// It returns as soon as the conversions are dispatched.
func (uc *ConvertVideoUseCase) ProcessBatch(ctx context.Context) error {
	uc.logger.Info("starting videos conversion")

	msgs, err := uc.queue.Receive(ctx)
	if err != nil {
		uc.logger.Error("failed to receive messages", zap.Error(err))
		return fmt.Errorf("receive messages: %w", err)
	}

	uc.logger.Info("messages received", zap.Int("count", len(msgs)))
	metrics.MessagesReceivedTotal.Add(float64(len(msgs)))

	for _, msg := range msgs {
		uc.dispatch(ctx, msg)
	}
	return nil
}

func (uc *ConvertVideoUseCase) dispatch(ctx context.Context, msg entity.ConversionMessage) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if uc.limit != nil {
			if err := uc.limit.Acquire(context.WithoutCancel(ctx), 1); err != nil {
				uc.logger.Error("failed to acquire conversion slot", zap.String("message_id", msg.ID), zap.Error(err))
				return
			}
			defer uc.limit.Release(1)
		}
		_ = uc.ConvertOne(ctx, msg)
	}()
}

// Wait blocks until every dispatched conversion and background source deletion has finished.
func (uc *ConvertVideoUseCase) Wait() {
	uc.wg.Wait()
}

// ConvertOne runs a single message through the pipeline. A message that fails validation is
// left on the queue untouched and its *entity.ValidationError is returned. Any later failure
// is reported as ERROR; either way the message is then deleted and the staging area removed.
func (uc *ConvertVideoUseCase) ConvertOne(ctx context.Context, msg entity.ConversionMessage) error {
	log := uc.logger.With(zap.String("message_id", msg.ID))

	req, err := msg.Parse()
	if err != nil {
		log.Error("discarding invalid conversion message", zap.Error(err), zap.ByteString("body", msg.Body))
		metrics.InvalidMessagesTotal.Inc()
		return err
	}

	// From here on the conversion always runs to cleanup, even during shutdown.
	ctx = context.WithoutCancel(ctx)

	attemptID := uuid.New()
	log = log.With(
		zap.String("attempt_id", attemptID.String()),
		zap.String("user_id", req.UserID),
		zap.String("file_id", req.FileID),
	)

	ctx, span := tracer.Start(ctx, "ConvertVideoUseCase.ConvertOne", trace.WithAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("conversion.user_id", req.UserID),
		attribute.String("conversion.file_id", req.FileID),
	))
	defer span.End()

	metrics.ActiveConversions.Inc()
	defer metrics.ActiveConversions.Dec()
	start := time.Now()

	conversion := entity.NewConversion(attemptID, msg.ID, req)
	uc.record(ctx, log, conversion, true)

	area := uc.staging.NewArea(req.UserID)
	log.Info("starting video conversion",
		zap.String("file_name", req.FileName),
		zap.String("source_key", req.SourceStorageKey),
		zap.Float64("frame_interval_seconds", req.FrameIntervalSeconds),
		zap.String("staging", area.Root),
	)

	archiveKey, runErr := uc.run(ctx, req, area, log)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		uc.fail(ctx, req, runErr, log)
		conversion.MarkFailed(runErr.Error())
		metrics.ConversionsTotal.WithLabelValues("failed").Inc()
	} else {
		conversion.MarkProcessed(archiveKey)
		metrics.ConversionsTotal.WithLabelValues("processed").Inc()
		log.Info("video conversion completed", zap.String("archive_key", archiveKey))
	}
	uc.record(ctx, log, conversion, false)

	uc.ack(ctx, msg, log)
	uc.cleanup(ctx, req, area, log)

	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return runErr
}

// run executes STARTED through NOTIFY_DONE and returns the uploaded archive key.
func (uc *ConvertVideoUseCase) run(ctx context.Context, req entity.ConversionRequest, area staging.Area, log *zap.Logger) (string, error) {
	if err := uc.notifier.Notify(ctx, entity.Started(req.UserID, req.FileID)); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(string(entity.StatusStarted)).Inc()
		return "", stageErr(StageNotifyStarted, err)
	}

	videoPath := area.VideoPath(req.FileName)
	if err := uc.stage(ctx, StageFetch, func(ctx context.Context) error {
		return uc.fetch(ctx, req.SourceStorageKey, area, videoPath)
	}); err != nil {
		return "", err
	}
	log.Info("source video stored", zap.String("path", videoPath))

	interval := req.FrameInterval()
	if err := uc.stage(ctx, StageExtract, func(ctx context.Context) error {
		if err := uc.staging.CreateDir(area.FramesDir()); err != nil {
			return err
		}
		result, err := uc.extractor.ExtractFrames(ctx, videoPath, area.FramesDir(), interval)
		if err != nil {
			return err
		}
		metrics.FramesExtractedTotal.Add(float64(result.FrameCount))
		log.Info("video to image conversion completed",
			zap.Int("frame_count", result.FrameCount),
			zap.Float64("duration_secs", result.VideoDuration),
		)
		return nil
	}); err != nil {
		return "", err
	}

	archiveName := entity.ArchiveName(req.FileName, uc.now())
	archivePath := area.ArchivePath(archiveName)
	if err := uc.stage(ctx, StageArchive, func(ctx context.Context) error {
		return uc.archiver.BuildArchive(ctx, area.FramesDir(), archivePath)
	}); err != nil {
		return "", err
	}

	archiveKey := entity.ArchiveKey(req.UserID, archiveName)
	if err := uc.stage(ctx, StageUpload, func(ctx context.Context) error {
		data, err := os.ReadFile(archivePath)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		log.Info("storing compressed images", zap.String("archive_key", archiveKey), zap.Int("size", len(data)))
		return uc.store.Put(ctx, archiveKey, data, archiveContentType)
	}); err != nil {
		return "", err
	}

	if err := uc.notifier.Notify(ctx, entity.Processed(req.UserID, req.FileID, archiveKey)); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(string(entity.StatusProcessed)).Inc()
		return "", stageErr(StageNotifyProcessed, err)
	}
	return archiveKey, nil
}

// stage runs fn inside a span, times it, and tags any error with the stage name.
func (uc *ConvertVideoUseCase) stage(ctx context.Context, name Stage, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, string(name))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stageErr(name, err)
	}
	metrics.StageDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
	return nil
}

func (uc *ConvertVideoUseCase) fetch(ctx context.Context, key string, area staging.Area, videoPath string) (err error) {
	if err := uc.staging.CreateDir(area.SourceDir()); err != nil {
		return err
	}

	obj, err := uc.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer obj.Content.Close()

	f, err := os.Create(videoPath)
	if err != nil {
		return fmt.Errorf("create video file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close video file: %w", cerr)
		}
	}()

	if _, err := io.Copy(f, obj.Content); err != nil {
		return fmt.Errorf("write video file: %w", err)
	}
	return nil
}

func (uc *ConvertVideoUseCase) fail(ctx context.Context, req entity.ConversionRequest, err error, log *zap.Logger) {
	stage := "unknown"
	var se *StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}

	log.Error("video conversion failed",
		zap.String("stage", stage),
		zap.String("file_name", req.FileName),
		zap.String("source_key", req.SourceStorageKey),
		zap.Float64("frame_interval_seconds", req.FrameIntervalSeconds),
		zap.Error(err),
	)

	if uc.reporter != nil {
		uc.reporter.Report(ctx, err, map[string]string{
			"stage":   stage,
			"user_id": req.UserID,
			"file_id": req.FileID,
		})
	}

	if nerr := uc.notifier.Notify(ctx, entity.Failed(req.UserID, req.FileID)); nerr != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(string(entity.StatusError)).Inc()
		log.Error("failed to send error status", zap.Error(nerr))
	}
}

func (uc *ConvertVideoUseCase) ack(ctx context.Context, msg entity.ConversionMessage, log *zap.Logger) {
	if err := uc.queue.Delete(ctx, msg.ID, msg.ReceiptToken); err != nil {
		log.Error("failed to delete message", zap.Error(err))
	}
}

// cleanup starts the source object deletion without waiting for it, then removes the staging tree.
func (uc *ConvertVideoUseCase) cleanup(ctx context.Context, req entity.ConversionRequest, area staging.Area, log *zap.Logger) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.store.Delete(ctx, req.SourceStorageKey)
	}()

	if err := uc.staging.RemoveTree(area.Root); err != nil {
		log.Warn("staging cleanup incomplete", zap.String("staging", area.Root), zap.Error(err))
	}
}

func (uc *ConvertVideoUseCase) record(ctx context.Context, log *zap.Logger, c *entity.Conversion, create bool) {
	if uc.repo == nil {
		return
	}
	var err error
	if create {
		err = uc.repo.Create(ctx, c)
	} else {
		err = uc.repo.Update(ctx, c)
	}
	if err != nil {
		log.Warn("failed to record conversion", zap.String("status", string(c.Status)), zap.Error(err))
	}
}
