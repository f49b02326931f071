// Package logging configures zerolog for Lambda functions.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

// Config represents logger configuration
type Config struct {
	// Level is one of debug, info, warn, error; anything else means info.
	Level string
	// Pretty enables human-readable console output
	Pretty bool
	// Output defaults to os.Stdout
	Output io.Writer
	// Function is attached to every line as "function".
	Function string
}

// New builds the process logger. Call once from main.
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = cfg.Output
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}
	}

	lc := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Function != "" {
		lc = lc.Str("function", cfg.Function)
	}
	return lc.Logger()
}

// ForRequest returns base annotated with the Lambda request id, if any.
func ForRequest(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return base.With().Str("request_id", lc.AwsRequestID).Logger()
	}
	return base
}
