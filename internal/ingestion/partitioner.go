package ingestion

import (
	"fmt"
	"path/filepath"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/danielbgg/payment-batch/internal/parser"
	"go.uber.org/zap"
)

// Partitioner splits an input file into line ranges.
type Partitioner interface {
	Partition(filePath string, gridSize int) ([]models.Partition, error)
}

// RangePartitioner counts the data lines of the file once and cuts them into at most gridSize
// contiguous ranges. Boundaries are line indexes, not byte offsets.
type RangePartitioner struct {
	logger *zap.SugaredLogger
}

func NewRangePartitioner(logger *zap.SugaredLogger) *RangePartitioner {
	return &RangePartitioner{logger: logger}
}

func (rp *RangePartitioner) Partition(filePath string, gridSize int) ([]models.Partition, error) {
	if gridSize < 1 {
		return nil, &models.SetupError{FilePath: filePath, Err: fmt.Errorf("grid size must be at least 1, got %d", gridSize)}
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, &models.SetupError{FilePath: filePath, Err: err}
	}

	rp.logger.Infof("Counting data lines of %s...", absPath)
	totalLines, err := parser.CountDataLines(absPath)
	if err != nil {
		return nil, &models.SetupError{FilePath: absPath, Err: err}
	}

	partitions := RangePartitions(absPath, totalLines, gridSize)
	rp.logger.Infof("Found %d data lines, created %d partitions for grid size %d", totalLines, len(partitions), gridSize)

	return partitions, nil
}

// RangePartitions computes [start, end) ranges of ceil(totalLines/gridSize) lines each. The last
// one holds the remainder. No lines means no partitions.
func RangePartitions(filePath string, totalLines int64, gridSize int) []models.Partition {
	if totalLines <= 0 || gridSize < 1 {
		return nil
	}

	targetSize := (totalLines + int64(gridSize) - 1) / int64(gridSize)
	partitions := make([]models.Partition, 0, gridSize)

	for start, id := int64(0), 0; start < totalLines; id++ {
		end := min(start+targetSize, totalLines)
		partitions = append(partitions, models.Partition{
			ID:        id,
			FilePath:  filePath,
			StartLine: start,
			EndLine:   end,
		})
		start = end
	}

	return partitions
}
