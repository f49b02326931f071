package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"

	"studentrecords/internal/config"
	"studentrecords/internal/handlers"
	"studentrecords/internal/logging"
	"studentrecords/internal/storage"
	"studentrecords/internal/warmup"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Function: "images"})
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.RequireImages(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load aws config")
	}

	images, err := storage.New(awsCfg, storage.Options{
		Bucket:    cfg.Bucket,
		Prefix:    cfg.ImagesPrefix,
		TTL:       cfg.ImagesURLTTL,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init storage")
	}

	h := handlers.NewImagesHandler(images,
		warmup.New(lambdasdk.NewFromConfig(awsCfg), cfg.FunctionName),
		logger,
	)

	lambda.Start(h.Handle)
}
