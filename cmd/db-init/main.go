package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"studentrecords/internal/alerts"
	"studentrecords/internal/config"
	"studentrecords/internal/db"
	"studentrecords/internal/handlers"
	"studentrecords/internal/logging"
	"studentrecords/internal/runlog"
	"studentrecords/internal/secrets"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Function: "db-init"})
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load aws config")
	}

	h := handlers.NewDBInitHandler(cfg,
		secrets.NewFromConfig(awsCfg),
		db.Dial,
		runlog.New(dynamodb.NewFromConfig(awsCfg), cfg.RunsTable),
		alerts.New(sns.NewFromConfig(awsCfg), cfg.AlertTopicARN),
		logger,
	)

	lambda.Start(h.Handle)
}
