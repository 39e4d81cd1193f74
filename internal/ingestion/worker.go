package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danielbgg/payment-batch/internal/database"
	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/danielbgg/payment-batch/internal/parser"
	"go.uber.org/zap"
)

const (
	StepName         = "paymentStep"
	DefaultChunkSize = 5000
)

// PaymentReader is a forward-only sequence of payments, io.EOF terminated.
type PaymentReader interface {
	Next() (*models.Payment, error)
	Close() error
}

// ReaderFactory opens a fresh reader for every partition attempt.
type ReaderFactory func(filePath string, startLine, endLine int64) (PaymentReader, error)

func OpenPartitionReader(filePath string, startLine, endLine int64) (PaymentReader, error) {
	reader, err := parser.OpenPartition(filePath, startLine, endLine)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// StepRunner processes one partition to a terminal state.
type StepRunner interface {
	Run(ctx context.Context, worker string, partition models.Partition) models.StepExecution
}

type ChunkRunnerConfig struct {
	ChunkSize  int
	Collection string
	// SkipLimit is how many unparseable rows a partition tolerates. Zero fails on the first one.
	SkipLimit int
}

// ChunkRunner drives reader -> classifier -> writer for one partition, one chunk at a time.
// A chunk is committed whole or not at all, and the first failed chunk stops the partition.
type ChunkRunner struct {
	config     ChunkRunnerConfig
	openReader ReaderFactory
	classifier *Classifier
	writer     database.BatchWriter
	listener   StepListener
	logger     *zap.SugaredLogger
}

func NewChunkRunner(cfg ChunkRunnerConfig, openReader ReaderFactory, classifier *Classifier, writer database.BatchWriter, listener StepListener, logger *zap.SugaredLogger) *ChunkRunner {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if listener == nil {
		listener = CompositeStepListener{}
	}
	return &ChunkRunner{
		config:     cfg,
		openReader: openReader,
		classifier: classifier,
		writer:     writer,
		listener:   listener,
		logger:     logger,
	}
}

func stepName(partition models.Partition) string {
	return fmt.Sprintf("%s:%s", StepName, partition.Name())
}

func (r *ChunkRunner) Run(ctx context.Context, worker string, partition models.Partition) models.StepExecution {
	step := models.StepExecution{
		Partition: partition,
		StepName:  stepName(partition),
		Worker:    worker,
		Status:    models.StepStarting,
		StartTime: time.Now(),
	}
	r.listener.BeforeStep(models.NewStepEvent(models.PhaseBefore, step))

	err := r.execute(ctx, &step)

	step.EndTime = time.Now()
	if err != nil {
		step.Status = models.StepFailed
		step.Err = &models.PartitionError{Partition: partition, Err: err}
	} else {
		step.Status = models.StepCompleted
	}

	r.listener.AfterStep(models.NewStepEvent(models.PhaseAfter, step))
	return step
}

func (r *ChunkRunner) execute(ctx context.Context, step *models.StepExecution) error {
	partition := step.Partition

	reader, err := r.openReader(partition.FilePath, partition.StartLine, partition.EndLine)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.logger.Warnf("Worker %s: failed to close reader of %s: %v", step.Worker, partition, err)
		}
	}()

	for chunkNumber := 1; ; chunkNumber++ {
		chunk, skipped, exhausted, err := r.readChunk(step, reader)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", chunkNumber, err)
		}

		if len(chunk) > 0 {
			r.logger.Debugf("Worker %s: writing chunk %d of %d payments from %s", step.Worker, chunkNumber, len(chunk), partition)
			if err := r.writer.WriteBatch(ctx, r.config.Collection, chunk); err != nil {
				return fmt.Errorf("chunk %d: %w", chunkNumber, err)
			}
		}

		// only committed chunks count
		step.ReadCount += int64(len(chunk))
		step.WriteCount += int64(len(chunk))
		step.SkipCount += skipped

		if exhausted {
			break
		}
	}

	if consumed := step.ReadCount + step.SkipCount; consumed != partition.Size() {
		return &models.RangeShortfallError{Expected: partition.Size(), Got: consumed}
	}

	return nil
}

// readChunk pulls and classifies up to ChunkSize payments in reader order, along with the
// number of skipped rows and whether the reader hit io.EOF.
func (r *ChunkRunner) readChunk(step *models.StepExecution, reader PaymentReader) ([]*models.Payment, int64, bool, error) {
	chunk := make([]*models.Payment, 0, r.config.ChunkSize)
	var skipped int64

	for len(chunk) < r.config.ChunkSize {
		payment, err := reader.Next()
		if err == io.EOF {
			return chunk, skipped, true, nil
		}
		if err != nil {
			if r.canSkip(err, step.SkipCount+skipped) {
				r.logger.Warnf("Worker %s: skipping unparseable row of %s: %v", step.Worker, step.Partition, err)
				skipped++
				continue
			}
			return nil, 0, false, err
		}

		chunk = append(chunk, r.classifier.Classify(step.Worker, payment))
	}

	return chunk, skipped, false, nil
}

func (r *ChunkRunner) canSkip(err error, skippedSoFar int64) bool {
	var parseErr *models.RecordParseError
	if !errors.As(err, &parseErr) {
		return false
	}
	return skippedSoFar < int64(r.config.SkipLimit)
}
