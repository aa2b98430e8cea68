package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "ANNOTRACK_"

// parseEnv loads dotenvFile (when it exists) into the process environment
// without overriding variables that are already set, then copies every
// recognized ANNOTRACK_* variable into config. Unparsable numeric values
// are ignored and the previous value is kept.
func parseEnv(config *Config, dotenvFile string) {
	if dotenvFile != "" {
		_ = godotenv.Load(dotenvFile)
	}

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.RoutePrefix, "ROUTE_PREFIX")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.TokenValidityDuration, "TOKEN_VALIDITY")
	envString(&config.StagingDir, "STAGING_DIR")
	envString(&config.UploadRoot, "UPLOAD_ROOT")
	envString(&config.StorageBackend, "STORAGE_BACKEND")
	envDuration(&config.RelocationTimeout, "RELOCATION_TIMEOUT")
	envInt64(&config.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envBool(&config.CompensateOnFailure, "COMPENSATE_ON_FAILURE")
	envFloat(&config.AuthRateLimit, "AUTH_RATE_LIMIT")
	envInt(&config.AuthRateBurst, "AUTH_RATE_BURST")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3KeyPrefix, "S3_KEY_PREFIX")
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envInt64(dst *int64, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, name string) {
	if v, ok := lookup(name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
