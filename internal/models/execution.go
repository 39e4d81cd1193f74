package models

import (
	"time"

	"github.com/google/uuid"
)

type StepStatus string

const (
	StepStarting  StepStatus = "STARTING"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
)

type JobStatus string

const (
	JobSuccess JobStatus = "SUCCESS"
	JobFailure JobStatus = "FAILURE"
)

// StepExecution is the outcome of one partition. Counters only reflect committed chunks.
type StepExecution struct {
	Partition  Partition
	StepName   string
	Worker     string
	Status     StepStatus
	ReadCount  int64
	WriteCount int64
	SkipCount  int64
	StartTime  time.Time
	EndTime    time.Time
	Err        error
}

func (s *StepExecution) Failed() bool {
	return s.Status == StepFailed
}

type JobExecution struct {
	ID        uuid.UUID
	FilePath  string
	GridSize  int
	ChunkSize int
	Status    JobStatus
	Steps     []StepExecution
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

func NewJobExecution(filePath string, gridSize, chunkSize int) *JobExecution {
	return &JobExecution{
		ID:        uuid.New(),
		FilePath:  filePath,
		GridSize:  gridSize,
		ChunkSize: chunkSize,
		StartTime: time.Now(),
	}
}

func (j *JobExecution) ReadCount() int64 {
	var total int64
	for _, s := range j.Steps {
		total += s.ReadCount
	}
	return total
}

func (j *JobExecution) WriteCount() int64 {
	var total int64
	for _, s := range j.Steps {
		total += s.WriteCount
	}
	return total
}

func (j *JobExecution) SkipCount() int64 {
	var total int64
	for _, s := range j.Steps {
		total += s.SkipCount
	}
	return total
}

// FailedSteps returns the steps that did not reach COMPLETED, in partition order.
func (j *JobExecution) FailedSteps() []StepExecution {
	var failed []StepExecution
	for _, s := range j.Steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}

func (j *JobExecution) Duration() time.Duration {
	return j.EndTime.Sub(j.StartTime)
}

type Phase string

const (
	PhaseBefore Phase = "BEFORE"
	PhaseAfter  Phase = "AFTER"
)

// StepEvent is what step listeners receive before and after each partition runs.
type StepEvent struct {
	Phase      Phase
	StepName   string
	Worker     string
	FileName   string
	StartLine  int64
	EndLine    int64
	ReadCount  int64
	WriteCount int64
	SkipCount  int64
	Status     StepStatus
	Duration   time.Duration
	Err        error
}

func NewStepEvent(phase Phase, step StepExecution) StepEvent {
	event := StepEvent{
		Phase:      phase,
		StepName:   step.StepName,
		Worker:     step.Worker,
		FileName:   step.Partition.FilePath,
		StartLine:  step.Partition.StartLine,
		EndLine:    step.Partition.EndLine,
		ReadCount:  step.ReadCount,
		WriteCount: step.WriteCount,
		SkipCount:  step.SkipCount,
		Status:     step.Status,
		Err:        step.Err,
	}
	if !step.EndTime.IsZero() {
		event.Duration = step.EndTime.Sub(step.StartTime)
	}
	return event
}
