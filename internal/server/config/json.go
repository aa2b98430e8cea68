package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/annotrack/internal/flagx"
	"github.com/dmitrijs2005/annotrack/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Every
// field is a pointer so that keys missing from the file leave the current
// value untouched.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr"`
	RoutePrefix           *string         `json:"route_prefix"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	StagingDir            *string         `json:"staging_dir"`
	UploadRoot            *string         `json:"upload_root"`
	StorageBackend        *string         `json:"storage_backend"`
	RelocationTimeout     *timex.Duration `json:"relocation_timeout"`
	MaxUploadBytes        *int64          `json:"max_upload_bytes"`
	CompensateOnFailure   *bool           `json:"compensate_on_failure"`
	AuthRateLimit         *float64        `json:"auth_rate_limit"`
	AuthRateBurst         *int            `json:"auth_rate_burst"`
	LogLevel              *string         `json:"log_level"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	S3KeyPrefix           *string         `json:"s3_key_prefix"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// ANNOTRACK_CONFIG variable). Nothing happens when no file is configured.
// An unreadable or malformed file panics, since the server cannot start
// with a configuration the operator did not intend.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.RoutePrefix, c.RoutePrefix)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setIf(&config.StagingDir, c.StagingDir)
	setIf(&config.UploadRoot, c.UploadRoot)
	setIf(&config.StorageBackend, c.StorageBackend)
	if c.RelocationTimeout != nil {
		config.RelocationTimeout = c.RelocationTimeout.Duration
	}
	setIf(&config.MaxUploadBytes, c.MaxUploadBytes)
	setIf(&config.CompensateOnFailure, c.CompensateOnFailure)
	setIf(&config.AuthRateLimit, c.AuthRateLimit)
	setIf(&config.AuthRateBurst, c.AuthRateBurst)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3KeyPrefix, c.S3KeyPrefix)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
