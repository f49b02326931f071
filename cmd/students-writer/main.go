package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"

	"studentrecords/internal/config"
	"studentrecords/internal/db"
	"studentrecords/internal/handlers"
	"studentrecords/internal/logging"
	"studentrecords/internal/secrets"
	"studentrecords/internal/warmup"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Function: "students-writer"})
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load aws config")
	}

	h := handlers.NewStudentsWriterHandler(cfg,
		secrets.NewFromConfig(awsCfg),
		db.Dial,
		warmup.New(lambdasdk.NewFromConfig(awsCfg), cfg.FunctionName),
		logger,
	)

	lambda.Start(h.Handle)
}
