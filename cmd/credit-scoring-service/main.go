package main

import (
	"context"
	"os"

	"credit-scoring-service/internal/app/runtime"
	"credit-scoring-service/internal/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := runtime.New(ctx)
	if err != nil {
		logger.Error("Failed to initialize application", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("Application terminated with error", err)
		os.Exit(1)
	}
}
