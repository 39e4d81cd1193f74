package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/danielbgg/payment-batch/internal/models"
)

type StepStatus struct {
	StepName   string `json:"step_name"`
	Worker     string `json:"worker"`
	FileName   string `json:"file_name"`
	StartLine  int64  `json:"start_line"`
	EndLine    int64  `json:"end_line"`
	Status     string `json:"status"`
	ReadCount  int64  `json:"read_count"`
	WriteCount int64  `json:"write_count"`
	SkipCount  int64  `json:"skip_count"`
	Error      string `json:"error,omitempty"`
}

// StatusService is a step listener that keeps the latest event of every step and serves it over HTTP.
type StatusService struct {
	mu    sync.RWMutex
	steps map[string]StepStatus
}

func NewStatusService() *StatusService {
	return &StatusService{steps: make(map[string]StepStatus)}
}

func (s *StatusService) BeforeStep(event models.StepEvent) {
	s.record(event)
}

func (s *StatusService) AfterStep(event models.StepEvent) {
	s.record(event)
}

func (s *StatusService) record(event models.StepEvent) {
	status := StepStatus{
		StepName:   event.StepName,
		Worker:     event.Worker,
		FileName:   event.FileName,
		StartLine:  event.StartLine,
		EndLine:    event.EndLine,
		Status:     string(event.Status),
		ReadCount:  event.ReadCount,
		WriteCount: event.WriteCount,
		SkipCount:  event.SkipCount,
	}
	if event.Err != nil {
		status.Error = event.Err.Error()
	}

	s.mu.Lock()
	s.steps[event.StepName] = status
	s.mu.Unlock()
}

// Steps returns the known steps ordered by range start.
func (s *StatusService) Steps() []StepStatus {
	s.mu.RLock()
	steps := make([]StepStatus, 0, len(s.steps))
	for _, step := range s.steps {
		steps = append(steps, step)
	}
	s.mu.RUnlock()

	sort.Slice(steps, func(i, j int) bool {
		return steps[i].StartLine < steps[j].StartLine
	})
	return steps
}

func (s *StatusService) GetSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Steps()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (s *StatusService) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
