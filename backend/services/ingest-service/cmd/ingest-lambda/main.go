package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"airmonitor/backend/libs/logging"
	"airmonitor/backend/services/ingest-service/internal/app"
	"airmonitor/backend/services/ingest-service/internal/config"
	"airmonitor/backend/services/ingest-service/internal/lambda"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("ingest-lambda")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to init application", zap.Error(err))
	}
	defer application.Close()

	handler := lambda.NewHandler(application.Service, application.Verifier, logger)
	awslambda.Start(handler.Handle)
}
