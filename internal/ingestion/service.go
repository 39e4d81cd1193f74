package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const WorkerPrefix = "payment-range-"

type ServiceConfig struct {
	GridSize  int
	ChunkSize int
}

type IngestionService struct {
	partitioner Partitioner
	runner      StepRunner
	config      ServiceConfig
	logger      *zap.SugaredLogger
}

func NewIngestionService(partitioner Partitioner, runner StepRunner, cfg ServiceConfig, logger *zap.SugaredLogger) *IngestionService {
	return &IngestionService{
		partitioner: partitioner,
		runner:      runner,
		config:      cfg,
		logger:      logger,
	}
}

func workerName(n int) string {
	return fmt.Sprintf("%s%d", WorkerPrefix, n)
}

// Execute orchestrates the partitioned ingestion of filePath. The returned JobExecution is never
// nil. The error is a SetupError when no partition could be computed, or wraps ErrJobFailed when
// at least one partition failed.
func (s *IngestionService) Execute(ctx context.Context, filePath string) (*models.JobExecution, error) {
	job := models.NewJobExecution(filePath, s.config.GridSize, s.config.ChunkSize)
	s.logger.Infof("Starting job %s for file %s (grid size %d, chunk size %d)", job.ID, filePath, s.config.GridSize, s.config.ChunkSize)

	// Step 1: Compute the line ranges, reading the file once.
	partitions, err := s.partitioner.Partition(filePath, s.config.GridSize)
	if err != nil {
		s.logger.Errorf("Failed to partition file %s: %v", filePath, err)
		job.Status = models.JobFailure
		job.Err = err
		job.EndTime = time.Now()
		return job, err
	}

	// Step 2: Run every partition on a pool of at most GridSize workers. A failed partition does
	// not stop its siblings, so the tasks never return an error to the group.
	steps := make([]models.StepExecution, len(partitions))
	group := new(errgroup.Group)
	group.SetLimit(max(s.config.GridSize, 1))

	for i, partition := range partitions {
		worker := workerName(i + 1)
		group.Go(func() error {
			s.logger.Debugf("Dispatching %s to worker %s", partition, worker)
			steps[i] = s.runner.Run(ctx, worker, partition)
			return nil
		})
	}

	// Step 3: Wait for every partition to reach a terminal state.
	s.logger.Infof("Waiting for %d partitions to finish...", len(partitions))
	_ = group.Wait()

	// Step 4: Aggregate.
	job.Steps = steps
	job.EndTime = time.Now()
	job.Status = models.JobSuccess

	failed := job.FailedSteps()
	if len(failed) > 0 {
		job.Status = models.JobFailure
		errs := []error{models.ErrJobFailed}
		for _, step := range failed {
			errs = append(errs, step.Err)
		}
		job.Err = errors.Join(errs...)
	}

	s.logger.Infof("Job %s finished with status %s: %d partitions, %d failed, readCount=%d, writeCount=%d, skipCount=%d, duration=%s",
		job.ID, job.Status, len(steps), len(failed), job.ReadCount(), job.WriteCount(), job.SkipCount(), job.Duration())

	return job, job.Err
}
