// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
)

const (
	BlobBackendDisk = "disk"
	BlobBackendS3   = "s3"
)

// Config holds runtime settings for the classdocs server.
//
// An empty DatabaseDSN selects the in-memory catalog. BlobBackend picks
// where uploaded bytes live: "disk" keeps them under DataDir and serves them
// from the HTTP endpoint at PublicBaseURL, "s3" stores them in S3Bucket and
// hands out presigned URLs valid for S3PresignExpiry.
type Config struct {
	EndpointAddrGRPC            string
	EndpointAddrHTTP            string
	PublicBaseURL               string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	LogLevel                    string

	BlobBackend     string
	DataDir         string
	MaxUploadSize   int64
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3PresignExpiry time.Duration

	URLCacheSize int
	URLCacheTTL  time.Duration

	// ReconcileInterval of zero disables the orphan sweep.
	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key and S3 credentials must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.PublicBaseURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.LogLevel = "info"

	c.BlobBackend = BlobBackendDisk
	c.DataDir = "uploads"
	c.MaxUploadSize = common.MaxUploadSize
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "classdocs"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PresignExpiry = 15 * time.Minute

	c.URLCacheSize = 1024
	c.URLCacheTTL = 5 * time.Minute

	c.ReconcileInterval = 0
	c.ReconcileGrace = time.Hour
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.BlobBackend != BlobBackendDisk && c.BlobBackend != BlobBackendS3 {
		return fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is empty")
	}
	if c.BlobBackend == BlobBackendS3 && c.URLCacheSize > 0 && c.URLCacheTTL >= c.S3PresignExpiry {
		return fmt.Errorf("url cache ttl %s must be shorter than presign expiry %s", c.URLCacheTTL, c.S3PresignExpiry)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
