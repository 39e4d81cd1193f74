package ingestion

import (
	"github.com/danielbgg/payment-batch/internal/models"
	"go.uber.org/zap"
)

// StepListener receives diagnostics around every partition run. Nothing it does affects the run.
type StepListener interface {
	BeforeStep(event models.StepEvent)
	AfterStep(event models.StepEvent)
}

type LoggingStepListener struct {
	logger *zap.SugaredLogger
}

func NewLoggingStepListener(logger *zap.SugaredLogger) *LoggingStepListener {
	return &LoggingStepListener{logger: logger}
}

func (l *LoggingStepListener) BeforeStep(event models.StepEvent) {
	l.logger.Infof(">>> [BEFORE STEP] step='%s', worker='%s', file='%s', range=[%d - %d]",
		event.StepName, event.Worker, event.FileName, event.StartLine, event.EndLine)
}

func (l *LoggingStepListener) AfterStep(event models.StepEvent) {
	if event.Err != nil {
		l.logger.Errorf("<<< [AFTER STEP] step='%s', worker='%s', range=[%d - %d], status=%s, readCount=%d, writeCount=%d, skipCount=%d, error=%v",
			event.StepName, event.Worker, event.StartLine, event.EndLine, event.Status,
			event.ReadCount, event.WriteCount, event.SkipCount, event.Err)
		return
	}
	l.logger.Infof("<<< [AFTER STEP] step='%s', worker='%s', range=[%d - %d], status=%s, readCount=%d, writeCount=%d, skipCount=%d",
		event.StepName, event.Worker, event.StartLine, event.EndLine, event.Status,
		event.ReadCount, event.WriteCount, event.SkipCount)
}

// CompositeStepListener fans every event out to its listeners in order.
type CompositeStepListener []StepListener

func (c CompositeStepListener) BeforeStep(event models.StepEvent) {
	for _, l := range c {
		l.BeforeStep(event)
	}
}

func (c CompositeStepListener) AfterStep(event models.StepEvent) {
	for _, l := range c {
		l.AfterStep(event)
	}
}
