// Package config reads function configuration from the Lambda environment.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"studentrecords/internal/apperrors"
)

// Environment variable names.
const (
	EnvDBSecret       = "DB_SECRET_ARN"
	EnvAppSecret      = "APP_SECRET_ARN"
	EnvBucket         = "BUCKET"
	EnvImagesPrefix   = "IMAGES_PREFIX"
	EnvImagesURLTTL   = "IMAGES_URL_TTL"
	EnvConnectTimeout = "DB_CONNECT_TIMEOUT"
	EnvSSLMode        = "DB_SSLMODE"
	EnvRunsTable      = "BOOTSTRAP_RUNS_TABLE"
	EnvAlertTopic     = "BOOTSTRAP_ALERT_TOPIC_ARN"
	EnvS3Endpoint     = "S3_ENDPOINT"
	EnvS3PathStyle    = "S3_PATH_STYLE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogPretty      = "LOG_PRETTY"
	EnvFunctionName   = "AWS_LAMBDA_FUNCTION_NAME"
)

type Config struct {
	DBSecretID  string
	AppSecretID string

	Bucket       string
	ImagesPrefix string
	ImagesURLTTL time.Duration
	S3Endpoint   string
	S3PathStyle  bool

	ConnectTimeout time.Duration
	SSLMode        string

	RunsTable     string
	AlertTopicARN string

	LogLevel     string
	LogPretty    bool
	FunctionName string
}

// Load reads every known key; it never fails on missing values; use the
// Require* methods to validate what a given function needs.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvImagesPrefix, "images/")
	v.SetDefault(EnvImagesURLTTL, "5m")
	v.SetDefault(EnvConnectTimeout, "5s")
	v.SetDefault(EnvSSLMode, "prefer")
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogPretty, false)
	v.SetDefault(EnvS3PathStyle, false)

	cfg := Config{
		DBSecretID:    strings.TrimSpace(v.GetString(EnvDBSecret)),
		AppSecretID:   strings.TrimSpace(v.GetString(EnvAppSecret)),
		Bucket:        strings.TrimSpace(v.GetString(EnvBucket)),
		ImagesPrefix:  v.GetString(EnvImagesPrefix),
		S3Endpoint:    strings.TrimSpace(v.GetString(EnvS3Endpoint)),
		S3PathStyle:   v.GetBool(EnvS3PathStyle),
		SSLMode:       strings.TrimSpace(v.GetString(EnvSSLMode)),
		RunsTable:     strings.TrimSpace(v.GetString(EnvRunsTable)),
		AlertTopicARN: strings.TrimSpace(v.GetString(EnvAlertTopic)),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString(EnvLogLevel))),
		LogPretty:     v.GetBool(EnvLogPretty),
		FunctionName:  v.GetString(EnvFunctionName),
	}

	var err error
	if cfg.ImagesURLTTL, err = parseDuration(v, EnvImagesURLTTL); err != nil {
		return Config{}, err
	}
	if cfg.ConnectTimeout, err = parseDuration(v, EnvConnectTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, apperrors.ErrConfiguration)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive: %w", key, apperrors.ErrConfiguration)
	}
	return d, nil
}

// RequireDBInit validates the keys used by the bootstrap function.
func (c Config) RequireDBInit() error {
	return requireKeys(map[string]string{
		EnvDBSecret:  c.DBSecretID,
		EnvAppSecret: c.AppSecretID,
	})
}

// RequireStudentsWriter validates the keys used by the insert function.
func (c Config) RequireStudentsWriter() error {
	return requireKeys(map[string]string{EnvDBSecret: c.DBSecretID})
}

// RequireImages validates the keys used by the image listing function.
func (c Config) RequireImages() error {
	return requireKeys(map[string]string{EnvBucket: c.Bucket})
}

func requireKeys(values map[string]string) error {
	var missing []string
	for k, v := range values {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), apperrors.ErrConfiguration)
}
