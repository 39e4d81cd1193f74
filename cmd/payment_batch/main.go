package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielbgg/payment-batch/internal/commands"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger, err := commands.NewLogger(level)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = commands.NewRootCommand(logger).ExecuteContext(ctx)
	stop()
	logger.Infof("Execution time: %s", time.Since(startTime))
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
