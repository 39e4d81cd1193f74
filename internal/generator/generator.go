package generator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danielbgg/payment-batch/internal/parser"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultRecords = 10_000_000
	progressEvery  = 1_000_000
)

// Generator writes synthetic payment files for load testing the pipeline.
type Generator struct {
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Generator {
	return &Generator{logger: logger}
}

// GenerateFile creates outputPath, and its parent directories, holding a header and records rows.
func (g *Generator) GenerateFile(outputPath string, records int64) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", outputPath, err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer file.Close()

	if err := g.Generate(file, records); err != nil {
		return fmt.Errorf("failed to generate %s: %w", outputPath, err)
	}

	g.logger.Infof("File generated at: %s", outputPath)
	return file.Close()
}

func (g *Generator) Generate(w io.Writer, records int64) error {
	bw := bufio.NewWriterSize(w, 1<<20)

	if _, err := bw.WriteString(parser.Header + "\n"); err != nil {
		return err
	}

	for i := int64(1); i <= records; i++ {
		if _, err := bw.WriteString(Line(i)); err != nil {
			return err
		}
		if i%progressEvery == 0 {
			g.logger.Infof("Generated %d lines...", i)
		}
	}

	return bw.Flush()
}

// Line renders row i, newline included.
func Line(i int64) string {
	amount := decimal.NewFromInt(100 + i%1000).Add(decimal.New(i%97, -2))
	day := i%28 + 1
	return fmt.Sprintf("P%d;C%06d;L%06d;%s;BRL;2025-01-%02d\n",
		i, i%1_000_000, i%1_000_000, amount.StringFixed(2), day)
}
