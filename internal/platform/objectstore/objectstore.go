// Package objectstore builds S3-compatible clients (MinIO, Ceph RGW, EOS S3)
package objectstore

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"hh4b/internal/platform/config"
	perr "hh4b/internal/platform/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config locates one bucket on an S3-compatible endpoint
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Enabled reports whether enough is set to talk to a store
func (c Config) Enabled() bool { return c.Endpoint != "" && c.Bucket != "" }

// Validate checks the fields a client needs
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return perr.WithField(perr.Configf("object store endpoint is required"), "endpoint")
	case strings.Contains(c.Endpoint, "://"):
		return perr.WithField(perr.Configf("object store endpoint %q must be host[:port] without a scheme", c.Endpoint), "endpoint")
	case c.Bucket == "":
		return perr.WithField(perr.Configf("object store bucket is required"), "bucket")
	case (c.AccessKey == "") != (c.SecretKey == ""):
		return perr.WithField(perr.Configf("object store access and secret keys must be set together"), "access_key")
	}
	return nil
}

// ConfigFromEnv reads ENDPOINT, ACCESS_KEY, SECRET_KEY, REGION, USE_SSL, BUCKET and PREFIX under conf's prefix
func ConfigFromEnv(conf config.Conf) Config {
	return Config{
		Endpoint:  conf.MayString("ENDPOINT", ""),
		AccessKey: conf.MayString("ACCESS_KEY", ""),
		SecretKey: conf.MayString("SECRET_KEY", ""),
		Region:    conf.MayString("REGION", ""),
		UseSSL:    conf.MayBool("USE_SSL", true),
		Bucket:    conf.MayString("BUCKET", ""),
		Prefix:    strings.Trim(conf.MayString("PREFIX", ""), "/"),
	}
}

// NewMinIOClient returns a client for cfg
func NewMinIOClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	c, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "object store client for %s", cfg.Endpoint)
	}
	return c, nil
}

// CheckBucket fails unless the configured bucket exists
func CheckBucket(ctx context.Context, client *minio.Client, cfg Config) error {
	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "check bucket %s", cfg.Bucket)
	}
	if !ok {
		return perr.Storagef("bucket %s does not exist on %s", cfg.Bucket, cfg.Endpoint)
	}
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
