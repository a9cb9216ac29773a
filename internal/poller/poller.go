package poller

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BatchProcessor is implemented by *usecase.ConvertVideoUseCase.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) error
}

// Poller triggers one batch per schedule tick. Ticks may overlap.
type Poller struct {
	schedule  string
	processor BatchProcessor
	logger    *zap.Logger
	cron      *cron.Cron
}

func New(schedule string, processor BatchProcessor, logger *zap.Logger) (*Poller, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	cl := cronLogger{logger.Sugar()}
	p := &Poller{
		schedule:  schedule,
		processor: processor,
		logger:    logger,
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
	}
	return p, nil
}

// Run blocks until ctx is done, then stops scheduling and waits for a running tick to return.
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", p.schedule, err)
	}

	p.logger.Info("poller started", zap.String("schedule", p.schedule))
	p.cron.Start()

	<-ctx.Done()
	p.logger.Info("poller stopping")
	<-p.cron.Stop().Done()
	p.logger.Info("poller stopped")
	return nil
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.processor.ProcessBatch(ctx); err != nil {
		p.logger.Error("batch failed", zap.Error(err))
	}
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
