package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/classdocs/internal/flagx"
	"github.com/dmitrijs2005/classdocs/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations go
// through timex.Duration so both "15m" and integer nanoseconds work.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	PublicBaseURL               string         `json:"public_base_url"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`
	BlobBackend                 string         `json:"blob_backend"`
	DataDir                     string         `json:"data_dir"`
	MaxUploadSize               int64          `json:"max_upload_size"`
	S3AccessKey                 string         `json:"s3_access_key"`
	S3SecretKey                 string         `json:"s3_secret_key"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PresignExpiry             timex.Duration `json:"s3_presign_expiry"`
	URLCacheSize                int            `json:"url_cache_size"`
	URLCacheTTL                 timex.Duration `json:"url_cache_ttl"`
	ReconcileInterval           timex.Duration `json:"reconcile_interval"`
	ReconcileGrace              timex.Duration `json:"reconcile_grace"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		PublicBaseURL:               c.PublicBaseURL,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		LogLevel:                    c.LogLevel,
		BlobBackend:                 c.BlobBackend,
		DataDir:                     c.DataDir,
		MaxUploadSize:               c.MaxUploadSize,
		S3AccessKey:                 c.S3AccessKey,
		S3SecretKey:                 c.S3SecretKey,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3PresignExpiry:             timex.Duration{Duration: c.S3PresignExpiry},
		URLCacheSize:                c.URLCacheSize,
		URLCacheTTL:                 timex.Duration{Duration: c.URLCacheTTL},
		ReconcileInterval:           timex.Duration{Duration: c.ReconcileInterval},
		ReconcileGrace:              timex.Duration{Duration: c.ReconcileGrace},
	}
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values. No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.PublicBaseURL = c.PublicBaseURL
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.LogLevel = c.LogLevel
	config.BlobBackend = c.BlobBackend
	config.DataDir = c.DataDir
	config.MaxUploadSize = c.MaxUploadSize
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3PresignExpiry = c.S3PresignExpiry.Duration
	config.URLCacheSize = c.URLCacheSize
	config.URLCacheTTL = c.URLCacheTTL.Duration
	config.ReconcileInterval = c.ReconcileInterval.Duration
	config.ReconcileGrace = c.ReconcileGrace.Duration
	return nil
}
