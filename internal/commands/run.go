package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/danielbgg/payment-batch/internal/config"
	"github.com/danielbgg/payment-batch/internal/database"
	"github.com/danielbgg/payment-batch/internal/ingestion"
	"github.com/danielbgg/payment-batch/internal/metrics"
	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/danielbgg/payment-batch/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCommand(logger *zap.SugaredLogger) *cobra.Command {
	var gridSize, chunkSize, skipLimit int

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Ingest a payments file into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("grid-size") {
				cfg.GridSize = gridSize
			}
			if flags.Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if flags.Changed("skip-limit") {
				cfg.SkipLimit = skipLimit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			writer, cleanup, err := setupWriter(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return execute(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, writer, logger)
		},
	}

	cmd.Flags().IntVar(&gridSize, "grid-size", 4, "maximum number of partitions processed at once (overrides GRID_SIZE)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", ingestion.DefaultChunkSize, "payments committed per chunk (overrides CHUNK_SIZE)")
	cmd.Flags().IntVar(&skipLimit, "skip-limit", 0, "unparseable rows tolerated per partition (overrides SKIP_LIMIT)")

	return cmd
}

func setupWriter(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (database.BatchWriter, func(), error) {
	switch cfg.SinkType {
	case config.SinkPostgres:
		dbpool, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		writer := database.NewPostgresBatchWriter(dbpool, logger)
		if err := writer.CreatePaymentsTable(ctx, cfg.Collection); err != nil {
			dbpool.Close()
			return nil, nil, err
		}
		return writer, dbpool.Close, nil
	default:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warnf("Failed to disconnect from mongodb: %v", err)
			}
		}
		return database.NewMongoBatchWriter(client.Database(cfg.MongoDatabase), logger), cleanup, nil
	}
}

// execute wires the pipeline around writer, runs it once and prints the job report to out.
func execute(ctx context.Context, out io.Writer, filePath string, cfg *config.Config, writer database.BatchWriter, logger *zap.SugaredLogger) error {
	collector := metrics.NewCollector()
	status := server.NewStatusService()
	listener := ingestion.CompositeStepListener{
		ingestion.NewLoggingStepListener(logger),
		metrics.NewStepListener(collector),
		status,
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: server.SetupRoutes(status, collector.Registry())}
		go func() {
			logger.Infof("Metrics server starting on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Metrics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner := ingestion.NewChunkRunner(
		ingestion.ChunkRunnerConfig{
			ChunkSize:  cfg.ChunkSize,
			Collection: cfg.Collection,
			SkipLimit:  cfg.SkipLimit,
		},
		ingestion.OpenPartitionReader,
		ingestion.NewClassifier(logger, cfg.ProgressInterval),
		writer,
		listener,
		logger,
	)
	service := ingestion.NewIngestionService(
		ingestion.NewRangePartitioner(logger),
		runner,
		ingestion.ServiceConfig{GridSize: cfg.GridSize, ChunkSize: cfg.ChunkSize},
		logger,
	)

	job, err := service.Execute(ctx, filePath)
	if reportErr := printReport(out, job); reportErr != nil {
		logger.Warnf("Failed to print job report: %v", reportErr)
	}
	return err
}

func printReport(out io.Writer, job *models.JobExecution) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Job %s: %s (%s)\n", job.ID, job.Status, job.Duration().Round(time.Millisecond))
	fmt.Fprintln(tw, "STEP\tWORKER\tRANGE\tSTATUS\tREAD\tWRITE\tSKIP\tERROR")
	for _, step := range job.Steps {
		errText := ""
		if step.Err != nil {
			errText = step.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t[%d - %d)\t%s\t%d\t%d\t%d\t%s\n",
			step.StepName, step.Worker, step.Partition.StartLine, step.Partition.EndLine, step.Status,
			step.ReadCount, step.WriteCount, step.SkipCount, errText)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%d\t%d\t%d\t\n", job.ReadCount(), job.WriteCount(), job.SkipCount())
	return tw.Flush()
}
